package categories

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/httpx"
	"storefront/internal/models"
	"storefront/internal/store"
)

type Store interface {
	List(ctx context.Context) ([]models.Category, error)
	ByID(ctx context.Context, id primitive.ObjectID) (models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, id primitive.ObjectID, name, description *string) (models.Category, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ProductCounter interface {
	CountByCategory(ctx context.Context, id primitive.ObjectID) (int64, error)
}

type Handler struct {
	repo     Store
	products ProductCounter
}

func NewHandler(repo Store, products ProductCounter) *Handler {
	return &Handler{repo: repo, products: products}
}

func (h *Handler) List(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context())
	if err != nil {
		httpx.StoreError(c, err, "category")
		return
	}
	if items == nil {
		items = []models.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	cat, err := h.repo.ByID(c.Request.Context(), id)
	if err != nil {
		httpx.StoreError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, cat)
}

type createReq struct {
	Name        string `json:"name" binding:"required,max=50"`
	Description string `json:"description" binding:"max=500"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		httpx.Error(c, http.StatusBadRequest, "name is required")
		return
	}
	cat := models.Category{Name: name, Description: strings.TrimSpace(req.Description)}
	if err := h.repo.Create(c.Request.Context(), &cat); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httpx.Error(c, http.StatusConflict, "category name already exists")
			return
		}
		httpx.StoreError(c, err, "category")
		return
	}
	c.JSON(http.StatusCreated, cat)
}

type updateReq struct {
	Name        *string `json:"name" binding:"omitempty,max=50"`
	Description *string `json:"description" binding:"omitempty,max=500"`
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
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		httpx.Error(c, http.StatusBadRequest, "name cannot be empty")
		return
	}
	cat, err := h.repo.Update(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httpx.Error(c, http.StatusConflict, "category name already exists")
			return
		}
		httpx.StoreError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	n, err := h.products.CountByCategory(ctx, id)
	if err != nil {
		httpx.StoreError(c, err, "category")
		return
	}
	if n > 0 {
		httpx.Error(c, http.StatusConflict, "category is still used by products")
		return
	}
	if err := h.repo.Delete(ctx, id); err != nil {
		httpx.StoreError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}
