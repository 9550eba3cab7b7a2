package stats

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/httpx"
	"storefront/internal/money"
)

type Store interface {
	Sales(ctx context.Context) (Sales, error)
	TopProducts(ctx context.Context) ([]TopProduct, error)
}

type UserCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

type Handler struct {
	repo  Store
	users UserCounter
}

func NewHandler(repo Store, users UserCounter) *Handler {
	return &Handler{repo: repo, users: users}
}

type Summary struct {
	TotalSales  float64      `json:"totalSales"`
	OrderCount  int64        `json:"orderCount"`
	TopProducts []TopProduct `json:"topProducts"`
	ActiveUsers int64        `json:"activeUsers"`
}

func (h *Handler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	sales, err := h.repo.Sales(ctx)
	if err != nil {
		httpx.StoreError(c, err, "stats")
		return
	}
	top, err := h.repo.TopProducts(ctx)
	if err != nil {
		httpx.StoreError(c, err, "stats")
		return
	}
	active, err := h.users.CountActive(ctx)
	if err != nil {
		httpx.StoreError(c, err, "stats")
		return
	}
	if top == nil {
		top = []TopProduct{}
	}
	// sums over float64 fields come back with float noise
	for i := range top {
		top[i].Revenue = money.Float(money.D(top[i].Revenue))
	}
	c.JSON(http.StatusOK, Summary{
		TotalSales:  money.Float(money.D(sales.TotalSales)),
		OrderCount:  sales.OrderCount,
		TopProducts: top,
		ActiveUsers: active,
	})
}
