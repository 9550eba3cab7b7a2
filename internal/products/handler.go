package products

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/httpx"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/uploads"
)

type Store interface {
	List(ctx context.Context, f Filter, skip, limit int64) ([]models.Product, int64, error)
	ByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, u Update) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type CategoryFinder interface {
	ByID(ctx context.Context, id primitive.ObjectID) (models.Category, error)
}

type ImageStore interface {
	Save(c *gin.Context, field, kind string) (string, error)
	Remove(publicPath string)
}

type Handler struct {
	repo       Store
	categories CategoryFinder
	images     ImageStore
}

func NewHandler(repo Store, categories CategoryFinder, images ImageStore) *Handler {
	return &Handler{repo: repo, categories: categories, images: images}
}

// List serves the public catalog: ?search ?category ?minPrice ?maxPrice ?inStock ?sort.
func (h *Handler) List(c *gin.Context) {
	p := httpx.ParsePage(c)
	f := Filter{
		Search: strings.TrimSpace(c.Query("search")),
		Sort:   strings.TrimSpace(c.Query("sort")),
	}
	switch f.Sort {
	case "":
		f.Sort = SortNewest
	case SortNewest, SortPriceAsc, SortPriceDesc, SortName:
	default:
		httpx.Error(c, http.StatusBadRequest, "invalid sort")
		return
	}
	if v := c.Query("category"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid category")
			return
		}
		f.Category = id
	}
	for name, dst := range map[string]**float64{"minPrice": &f.MinPrice, "maxPrice": &f.MaxPrice} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < 0 {
			httpx.Error(c, http.StatusBadRequest, "invalid "+name)
			return
		}
		*dst = &n
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		httpx.Error(c, http.StatusBadRequest, "minPrice exceeds maxPrice")
		return
	}
	if v := httpx.BoolQuery(c, "inStock"); v != nil {
		f.InStock = *v
	}

	items, total, err := h.repo.List(c.Request.Context(), f, p.Skip(), int64(p.Limit))
	if err != nil {
		httpx.StoreError(c, err, "product")
		return
	}
	c.JSON(http.StatusOK, httpx.NewPageResult(items, p, total))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	p, err := h.repo.ByID(c.Request.Context(), id)
	if err != nil {
		httpx.StoreError(c, err, "product")
		return
	}
	c.JSON(http.StatusOK, p)
}

type createReq struct {
	Name        string   `json:"name" binding:"required,max=120"`
	Description string   `json:"description" binding:"max=2000"`
	Price       *float64 `json:"price" binding:"required,min=0"`
	Stock       *int     `json:"stock" binding:"required,min=0"`
	Category    string   `json:"category" binding:"required"`
}

// resolveCategory parses and checks the category id, writing a 400 when it is
// malformed or unknown.
func (h *Handler) resolveCategory(c *gin.Context, raw string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid category")
		return primitive.NilObjectID, false
	}
	if _, err := h.categories.ByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.Error(c, http.StatusBadRequest, "category does not exist")
			return primitive.NilObjectID, false
		}
		httpx.StoreError(c, err, "category")
		return primitive.NilObjectID, false
	}
	return id, true
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
	catID, ok := h.resolveCategory(c, req.Category)
	if !ok {
		return
	}
	p := models.Product{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Price:       *req.Price,
		Stock:       *req.Stock,
		Category:    catID,
	}
	if err := h.repo.Create(c.Request.Context(), &p); err != nil {
		httpx.StoreError(c, err, "product")
		return
	}
	c.JSON(http.StatusCreated, p)
}

type updateReq struct {
	Name        *string  `json:"name" binding:"omitempty,max=120"`
	Description *string  `json:"description" binding:"omitempty,max=2000"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
	Stock       *int     `json:"stock" binding:"omitempty,min=0"`
	Category    *string  `json:"category"`
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
	u := Update{Description: req.Description, Price: req.Price, Stock: req.Stock}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			httpx.Error(c, http.StatusBadRequest, "name cannot be empty")
			return
		}
		u.Name = &name
	}
	if req.Category != nil {
		catID, ok := h.resolveCategory(c, *req.Category)
		if !ok {
			return
		}
		u.Category = &catID
	}

	ctx := c.Request.Context()
	if err := h.repo.Update(ctx, id, u); err != nil {
		httpx.StoreError(c, err, "product")
		return
	}
	p, err := h.repo.ByID(ctx, id)
	if err != nil {
		httpx.StoreError(c, err, "product")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	p, err := h.repo.ByID(ctx, id)
	if err != nil {
		httpx.StoreError(c, err, "product")
		return
	}
	if err := h.repo.Delete(ctx, id); err != nil {
		httpx.StoreError(c, err, "product")
		return
	}
	h.images.Remove(p.Image)
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

func (h *Handler) UploadImage(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	current, err := h.repo.ByID(ctx, id)
	if err != nil {
		httpx.StoreError(c, err, "product")
		return
	}
	img, err := h.images.Save(c, "image", uploads.KindProducts)
	if err != nil {
		httpx.UploadError(c, err)
		return
	}
	if err := h.repo.Update(ctx, id, Update{Image: &img}); err != nil {
		h.images.Remove(img)
		httpx.StoreError(c, err, "product")
		return
	}
	h.images.Remove(current.Image)
	current.Image = img
	c.JSON(http.StatusOK, current)
}
