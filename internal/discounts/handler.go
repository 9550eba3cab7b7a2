package discounts

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/httpx"
	"storefront/internal/models"
	"storefront/internal/money"
	"storefront/internal/store"
)

type Store interface {
	List(ctx context.Context, skip, limit int64) ([]models.Discount, int64, error)
	ByID(ctx context.Context, id primitive.ObjectID) (models.Discount, error)
	ByCode(ctx context.Context, code string) (models.Discount, error)
	Create(ctx context.Context, d *models.Discount) error
	Update(ctx context.Context, id primitive.ObjectID, u Update) (models.Discount, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type Handler struct {
	repo Store
	now  func() time.Time
}

func NewHandler(repo Store) *Handler {
	return &Handler{repo: repo, now: time.Now}
}

func checkValue(typ string, value float64) error {
	if value <= 0 {
		return errors.New("value must be greater than zero")
	}
	if typ == models.DiscountPercentage && value > 100 {
		return errors.New("percentage discounts cannot exceed 100")
	}
	return nil
}

func (h *Handler) List(c *gin.Context) {
	p := httpx.ParsePage(c)
	items, total, err := h.repo.List(c.Request.Context(), p.Skip(), int64(p.Limit))
	if err != nil {
		httpx.StoreError(c, err, "discount")
		return
	}
	c.JSON(http.StatusOK, httpx.NewPageResult(items, p, total))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	d, err := h.repo.ByID(c.Request.Context(), id)
	if err != nil {
		httpx.StoreError(c, err, "discount")
		return
	}
	c.JSON(http.StatusOK, d)
}

type createReq struct {
	Code           string     `json:"code" binding:"required,min=3,max=30,alphanum"`
	Type           string     `json:"type" binding:"required,oneof=percentage fixed"`
	Value          float64    `json:"value" binding:"required"`
	MinOrderAmount float64    `json:"minOrderAmount" binding:"min=0"`
	UsageLimit     int        `json:"usageLimit" binding:"min=0"`
	Active         *bool      `json:"active"`
	ExpiresAt      *time.Time `json:"expiresAt"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkValue(req.Type, req.Value); err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	d := models.Discount{
		Code:           req.Code,
		Type:           req.Type,
		Value:          req.Value,
		MinOrderAmount: req.MinOrderAmount,
		UsageLimit:     req.UsageLimit,
		Active:         req.Active == nil || *req.Active,
		ExpiresAt:      req.ExpiresAt,
	}
	if err := h.repo.Create(c.Request.Context(), &d); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httpx.Error(c, http.StatusConflict, "discount code already exists")
			return
		}
		httpx.StoreError(c, err, "discount")
		return
	}
	c.JSON(http.StatusCreated, d)
}

type updateReq struct {
	Code           *string    `json:"code" binding:"omitempty,min=3,max=30,alphanum"`
	Type           *string    `json:"type" binding:"omitempty,oneof=percentage fixed"`
	Value          *float64   `json:"value"`
	MinOrderAmount *float64   `json:"minOrderAmount" binding:"omitempty,min=0"`
	UsageLimit     *int       `json:"usageLimit" binding:"omitempty,min=0"`
	Active         *bool      `json:"active"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	ClearExpiry    bool       `json:"clearExpiry"`
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	ctx := c.Request.Context()
	cur, err := h.repo.ByID(ctx, id)
	if err != nil {
		httpx.StoreError(c, err, "discount")
		return
	}
	typ, value := cur.Type, cur.Value
	if req.Type != nil {
		typ = *req.Type
	}
	if req.Value != nil {
		value = *req.Value
	}
	if err := checkValue(typ, value); err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.repo.Update(ctx, id, Update{
		Code:           req.Code,
		Type:           req.Type,
		Value:          req.Value,
		MinOrderAmount: req.MinOrderAmount,
		UsageLimit:     req.UsageLimit,
		Active:         req.Active,
		ExpiresAt:      req.ExpiresAt,
		ClearExpiry:    req.ClearExpiry,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httpx.Error(c, http.StatusConflict, "discount code already exists")
			return
		}
		httpx.StoreError(c, err, "discount")
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		httpx.StoreError(c, err, "discount")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "discount deleted"})
}

type validateReq struct {
	Code     string   `json:"code" binding:"required"`
	Subtotal *float64 `json:"subtotal" binding:"required,min=0"`
}

// Validate previews a code against a subtotal without consuming it.
func (h *Handler) Validate(c *gin.Context) {
	var req validateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "code and subtotal are required")
		return
	}
	d, err := h.repo.ByCode(c.Request.Context(), strings.TrimSpace(req.Code))
	if errors.Is(err, store.ErrNotFound) {
		httpx.Error(c, http.StatusBadRequest, ErrUnknown.Error())
		return
	}
	if err != nil {
		httpx.StoreError(c, err, "discount")
		return
	}
	subtotal := money.D(*req.Subtotal)
	off, err := Apply(d, subtotal, h.now())
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":     d.Code,
		"type":     d.Type,
		"value":    d.Value,
		"discount": money.Float(off),
		"total":    money.Float(subtotal.Sub(off)),
	})
}
