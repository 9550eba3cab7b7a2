package orders

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/discounts"
	"storefront/internal/httpx"
	"storefront/internal/models"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) fail(c *gin.Context, err error) {
	var short *ShortfallError
	switch {
	case errors.As(err, &short):
		c.JSON(http.StatusConflict, gin.H{"error": short.Error(), "details": short.Items})
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrIllegalTransition), errors.Is(err, ErrNotCancellable):
		httpx.Error(c, http.StatusBadRequest, err.Error())
	case discounts.IsRejection(err):
		httpx.Error(c, http.StatusBadRequest, err.Error())
	default:
		httpx.StoreError(c, err, "order")
	}
}

type placeReq struct {
	ShippingAddress *models.ShippingAddress `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                  `json:"paymentMethod" binding:"required,oneof=card paypal cash_on_delivery"`
	DiscountCode    string                  `json:"discountCode" binding:"max=30"`
}

func (h *Handler) Place(c *gin.Context) {
	var req placeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	o, err := h.svc.Place(c.Request.Context(), httpx.UserID(c), PlaceInput{
		ShippingAddress: *req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		DiscountCode:    req.DiscountCode,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *Handler) ListMine(c *gin.Context) {
	p := httpx.ParsePage(c)
	items, total, err := h.svc.List(c.Request.Context(), httpx.UserID(c), "", p.Skip(), int64(p.Limit))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpx.NewPageResult(items, p, total))
}

// load fetches the order in :id and enforces that only its owner or an
// admin may see it.
func (h *Handler) load(c *gin.Context) (models.Order, bool) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return models.Order{}, false
	}
	o, err := h.svc.ByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return models.Order{}, false
	}
	if o.UserID != httpx.UserID(c) && !httpx.IsAdmin(c) {
		httpx.Error(c, http.StatusForbidden, "not your order")
		return models.Order{}, false
	}
	return o, true
}

func (h *Handler) Get(c *gin.Context) {
	o, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) Cancel(c *gin.Context) {
	o, ok := h.load(c)
	if !ok {
		return
	}
	if o.UserID != httpx.UserID(c) {
		httpx.Error(c, http.StatusForbidden, "not your order")
		return
	}
	updated, err := h.svc.Cancel(c.Request.Context(), o)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) AdminList(c *gin.Context) {
	p := httpx.ParsePage(c)
	status := c.Query("status")
	if status != "" && !ValidStatus(status) {
		httpx.Error(c, http.StatusBadRequest, "invalid status filter")
		return
	}
	items, total, err := h.svc.List(c.Request.Context(), primitive.NilObjectID, status, p.Skip(), int64(p.Limit))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, httpx.NewPageResult(items, p, total))
}

type statusReq struct {
	Status string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
}

func (h *Handler) AdminSetStatus(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid status")
		return
	}
	o, err := h.svc.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
