package wishlist

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/httpx"
	"storefront/internal/models"
)

type Store interface {
	ForUser(ctx context.Context, userID primitive.ObjectID) (models.Wishlist, error)
	Add(ctx context.Context, userID, productID primitive.ObjectID) (models.Wishlist, error)
	Remove(ctx context.Context, userID, productID primitive.ObjectID) (models.Wishlist, error)
}

type ProductLookup interface {
	ByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
}

type Handler struct {
	lists    Store
	products ProductLookup
}

func NewHandler(lists Store, products ProductLookup) *Handler {
	return &Handler{lists: lists, products: products}
}

// respond writes the wishlist with its products resolved, skipping any that
// have since been deleted.
func (h *Handler) respond(c *gin.Context, w models.Wishlist) {
	found, err := h.products.ByIDs(c.Request.Context(), w.ProductIDs)
	if err != nil {
		httpx.StoreError(c, err, "wishlist")
		return
	}
	items := make([]models.Product, 0, len(w.ProductIDs))
	for _, id := range w.ProductIDs {
		if p, ok := found[id]; ok {
			items = append(items, p)
		}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Get(c *gin.Context) {
	w, err := h.lists.ForUser(c.Request.Context(), httpx.UserID(c))
	if err != nil {
		httpx.StoreError(c, err, "wishlist")
		return
	}
	h.respond(c, w)
}

type addReq struct {
	ProductID string `json:"productId" binding:"required"`
}

func (h *Handler) Add(c *gin.Context) {
	var req addReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "productId is required")
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid productId")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.products.ByID(ctx, productID); err != nil {
		httpx.StoreError(c, err, "product")
		return
	}
	w, err := h.lists.Add(ctx, httpx.UserID(c), productID)
	if err != nil {
		httpx.StoreError(c, err, "wishlist")
		return
	}
	h.respond(c, w)
}

func (h *Handler) Remove(c *gin.Context) {
	productID, ok := httpx.ParamID(c, "productId")
	if !ok {
		return
	}
	w, err := h.lists.Remove(c.Request.Context(), httpx.UserID(c), productID)
	if err != nil {
		httpx.StoreError(c, err, "wishlist")
		return
	}
	h.respond(c, w)
}
