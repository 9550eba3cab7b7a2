package users

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/httpx"
	"storefront/internal/models"
)

type Store interface {
	ByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	List(ctx context.Context, f ListFilter, skip, limit int64) ([]models.User, int64, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role string) (models.User, error)
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) (models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// OwnedData is per-user state (cart, wishlist) removed along with the user.
type OwnedData interface {
	DeleteForUser(ctx context.Context, userID primitive.ObjectID) error
}

type ImageRemover interface {
	Remove(publicPath string)
}

// Handler serves the admin user-management endpoints.
type Handler struct {
	users  Store
	images ImageRemover
	owned  []OwnedData
}

func NewHandler(users Store, images ImageRemover, owned ...OwnedData) *Handler {
	return &Handler{users: users, images: images, owned: owned}
}

func (h *Handler) List(c *gin.Context) {
	p := httpx.ParsePage(c)
	f := ListFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Role:   c.Query("role"),
		Active: httpx.BoolQuery(c, "active"),
	}
	if f.Role != "" && f.Role != models.RoleUser && f.Role != models.RoleAdmin {
		httpx.Error(c, http.StatusBadRequest, "invalid role filter")
		return
	}
	items, total, err := h.users.List(c.Request.Context(), f, p.Skip(), int64(p.Limit))
	if err != nil {
		httpx.StoreError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, httpx.NewPageResult(items, p, total))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	u, err := h.users.ByID(c.Request.Context(), id)
	if err != nil {
		httpx.StoreError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, u)
}

type roleReq struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

func (h *Handler) SetRole(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req roleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "role must be user or admin")
		return
	}
	if id == httpx.UserID(c) && req.Role != models.RoleAdmin {
		httpx.Error(c, http.StatusBadRequest, "you cannot remove your own admin role")
		return
	}
	u, err := h.users.SetRole(c.Request.Context(), id, req.Role)
	if err != nil {
		httpx.StoreError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, u)
}

type statusReq struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "isActive is required")
		return
	}
	if id == httpx.UserID(c) && !*req.IsActive {
		httpx.Error(c, http.StatusBadRequest, "you cannot deactivate your own account")
		return
	}
	u, err := h.users.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		httpx.StoreError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	if id == httpx.UserID(c) {
		httpx.Error(c, http.StatusBadRequest, "you cannot delete your own account")
		return
	}
	ctx := c.Request.Context()
	u, err := h.users.ByID(ctx, id)
	if err != nil {
		httpx.StoreError(c, err, "user")
		return
	}
	if err := h.users.Delete(ctx, id); err != nil {
		httpx.StoreError(c, err, "user")
		return
	}
	for _, o := range h.owned {
		if err := o.DeleteForUser(ctx, id); err != nil {
			log.Printf("delete %T of user %s: %v", o, id.Hex(), err)
		}
	}
	h.images.Remove(u.ProfileImage)
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
