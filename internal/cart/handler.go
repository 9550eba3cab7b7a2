package cart

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/httpx"
	"storefront/internal/models"
	"storefront/internal/money"
	"storefront/internal/store"
)

type Store interface {
	ForUser(ctx context.Context, userID primitive.ObjectID) (models.Cart, error)
	SaveItems(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) (models.Cart, error)
	Clear(ctx context.Context, userID primitive.ObjectID) error
}

type ProductLookup interface {
	ByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
}

type Handler struct {
	carts    Store
	products ProductLookup
}

func NewHandler(carts Store, products ProductLookup) *Handler {
	return &Handler{carts: carts, products: products}
}

type ProductSummary struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Price float64            `json:"price"`
	Image string             `json:"image,omitempty"`
	Stock int                `json:"stock"`
}

type Line struct {
	Product   ProductSummary `json:"product"`
	Quantity  int            `json:"quantity"`
	LineTotal float64        `json:"lineTotal"`
}

// View is the cart with product references populated.
type View struct {
	ID        primitive.ObjectID `json:"id,omitempty"`
	Items     []Line             `json:"items"`
	ItemCount int                `json:"itemCount"`
	Subtotal  float64            `json:"subtotal"`
	UpdatedAt time.Time          `json:"updatedAt,omitempty"`
}

func (h *Handler) view(ctx context.Context, c models.Cart) (View, error) {
	ids := make([]primitive.ObjectID, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	found, err := h.products.ByIDs(ctx, ids)
	if err != nil {
		return View{}, err
	}

	v := View{ID: c.ID, Items: []Line{}, UpdatedAt: c.UpdatedAt}
	subtotal := decimal.Zero
	for _, it := range c.Items {
		p, ok := found[it.ProductID]
		if !ok {
			continue
		}
		line := money.Line(p.Price, it.Quantity)
		subtotal = subtotal.Add(line)
		v.ItemCount += it.Quantity
		v.Items = append(v.Items, Line{
			Product:   ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image, Stock: p.Stock},
			Quantity:  it.Quantity,
			LineTotal: money.Float(line),
		})
	}
	v.Subtotal = money.Float(subtotal)
	return v, nil
}

func (h *Handler) respond(c *gin.Context, crt models.Cart, extra gin.H) {
	v, err := h.view(c.Request.Context(), crt)
	if err != nil {
		httpx.StoreError(c, err, "cart")
		return
	}
	body := gin.H{"cart": v}
	for k, val := range extra {
		body[k] = val
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) Get(c *gin.Context) {
	crt, err := h.carts.ForUser(c.Request.Context(), httpx.UserID(c))
	if err != nil {
		httpx.StoreError(c, err, "cart")
		return
	}
	h.respond(c, crt, nil)
}

type addReq struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

func (h *Handler) AddItem(c *gin.Context) {
	var req addReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "productId and a quantity of at least 1 are required")
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid productId")
		return
	}
	h.apply(c, productID, func(items []models.CartItem, stock int) (Change, error) {
		return AddLine(items, productID, req.Quantity, stock)
	})
}

type updateReq struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

func (h *Handler) UpdateItem(c *gin.Context) {
	productID, ok := httpx.ParamID(c, "productId")
	if !ok {
		return
	}
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "quantity must be zero or more")
		return
	}
	h.apply(c, productID, func(items []models.CartItem, stock int) (Change, error) {
		return SetLine(items, productID, *req.Quantity, stock)
	})
}

// apply loads the cart and product, runs the reconciliation and persists the result.
func (h *Handler) apply(c *gin.Context, productID primitive.ObjectID, fn func([]models.CartItem, int) (Change, error)) {
	ctx := c.Request.Context()
	userID := httpx.UserID(c)

	crt, err := h.carts.ForUser(ctx, userID)
	if err != nil {
		httpx.StoreError(c, err, "cart")
		return
	}
	stock := 0
	p, err := h.products.ByID(ctx, productID)
	switch {
	case err == nil:
		stock = p.Stock
	case !errors.Is(err, store.ErrNotFound), indexOf(crt.Items, productID) < 0:
		httpx.StoreError(c, err, "product")
		return
	}

	ch, err := fn(crt.Items, stock)
	if err != nil {
		h.cartError(c, err)
		return
	}
	saved, err := h.carts.SaveItems(ctx, userID, ch.Items)
	if err != nil {
		httpx.StoreError(c, err, "cart")
		return
	}
	h.respond(c, saved, gin.H{"quantity": ch.Quantity, "clamped": ch.Clamped, "removed": ch.Removed})
}

func (h *Handler) cartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrOutOfStock):
		httpx.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotInCart):
		httpx.Error(c, http.StatusNotFound, err.Error())
	default:
		httpx.StoreError(c, err, "cart")
	}
}

func (h *Handler) RemoveItem(c *gin.Context) {
	productID, ok := httpx.ParamID(c, "productId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	userID := httpx.UserID(c)
	crt, err := h.carts.ForUser(ctx, userID)
	if err != nil {
		httpx.StoreError(c, err, "cart")
		return
	}
	items, err := RemoveLine(crt.Items, productID)
	if err != nil {
		h.cartError(c, err)
		return
	}
	saved, err := h.carts.SaveItems(ctx, userID, items)
	if err != nil {
		httpx.StoreError(c, err, "cart")
		return
	}
	h.respond(c, saved, nil)
}

func (h *Handler) Clear(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), httpx.UserID(c)); err != nil {
		httpx.StoreError(c, err, "cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": View{Items: []Line{}}})
}
