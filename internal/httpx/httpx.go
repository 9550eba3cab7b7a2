// Package httpx holds the small gin helpers every handler package shares:
// the auth context keys, id parsing, pagination and error responses.
package httpx

import (
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/uploads"
)

const (
	CtxUserIDKey = "userId"
	CtxRoleKey   = "role"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	MaxPage      = 1_000_000
)

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// StoreError maps repository errors onto HTTP statuses. what names the
// resource in the not-found message.
func StoreError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		Error(c, http.StatusNotFound, what+" not found")
	case errors.Is(err, store.ErrDuplicate):
		Error(c, http.StatusConflict, what+" already exists")
	case errors.Is(err, store.ErrInsufficientStock):
		Error(c, http.StatusConflict, "insufficient stock")
	case errors.Is(err, store.ErrConflict):
		Error(c, http.StatusConflict, err.Error())
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		Error(c, http.StatusInternalServerError, "internal error")
	}
}

func UploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, uploads.ErrTooLarge):
		Error(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, uploads.ErrNoFile), errors.Is(err, uploads.ErrBadType):
		Error(c, http.StatusBadRequest, err.Error())
	default:
		StoreError(c, err, "image")
	}
}

// ParamID parses the named path parameter as an ObjectID, writing a 400 on failure.
func ParamID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

func UserID(c *gin.Context) primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(c.GetString(CtxUserIDKey))
	return id
}

func IsAdmin(c *gin.Context) bool {
	return c.GetString(CtxRoleKey) == models.RoleAdmin
}

type Page struct {
	Page  int
	Limit int
}

func (p Page) Skip() int64 { return int64(p.Page-1) * int64(p.Limit) }

// ParsePage reads ?page and ?limit, falling back to defaults on bad input.
func ParsePage(c *gin.Context) Page {
	p := Page{Page: 1, Limit: DefaultLimit}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		p.Page = min(n, MaxPage)
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		p.Limit = min(n, MaxLimit)
	}
	return p
}

type PageResult[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func NewPageResult[T any](items []T, p Page, total int64) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return PageResult[T]{
		Items:      items,
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(p.Limit))),
	}
}

// BoolQuery parses an optional boolean query parameter.
func BoolQuery(c *gin.Context, name string) *bool {
	v, err := strconv.ParseBool(c.Query(name))
	if err != nil {
		return nil
	}
	return &v
}
