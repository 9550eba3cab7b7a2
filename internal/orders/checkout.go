package orders

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/money"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrNotCancellable    = errors.New("only pending orders can be cancelled")
)

// Shortfall is a cart line that cannot be fulfilled from current stock.
type Shortfall struct {
	ProductID primitive.ObjectID `json:"productId"`
	Name      string             `json:"name,omitempty"`
	Requested int                `json:"requested"`
	Available int                `json:"available"`
}

type ShortfallError struct {
	Items []Shortfall
}

func (e *ShortfallError) Error() string {
	names := make([]string, 0, len(e.Items))
	for _, s := range e.Items {
		if s.Name != "" {
			names = append(names, s.Name)
		} else {
			names = append(names, s.ProductID.Hex())
		}
	}
	return fmt.Sprintf("insufficient stock for %s", strings.Join(names, ", "))
}

// Snapshot copies the current product data into order lines. Lines whose
// product is gone or short on stock are reported together.
func Snapshot(lines []models.CartItem, found map[primitive.ObjectID]models.Product) ([]models.OrderItem, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	items := make([]models.OrderItem, 0, len(lines))
	var short []Shortfall
	for _, l := range lines {
		p, ok := found[l.ProductID]
		if !ok {
			short = append(short, Shortfall{ProductID: l.ProductID, Requested: l.Quantity})
			continue
		}
		if p.Stock < l.Quantity {
			short = append(short, Shortfall{ProductID: p.ID, Name: p.Name, Requested: l.Quantity, Available: p.Stock})
			continue
		}
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.Image,
			Quantity:  l.Quantity,
		})
	}
	if len(short) > 0 {
		return nil, &ShortfallError{Items: short}
	}
	return items, nil
}

func Subtotal(items []models.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(money.Line(it.Price, it.Quantity))
	}
	return sum
}

var transitions = map[string][]string{
	models.OrderPending:    {models.OrderProcessing, models.OrderCancelled},
	models.OrderProcessing: {models.OrderShipped, models.OrderCancelled},
	models.OrderShipped:    {models.OrderDelivered},
}

func ValidStatus(s string) bool {
	switch s {
	case models.OrderPending, models.OrderProcessing, models.OrderShipped, models.OrderDelivered, models.OrderCancelled:
		return true
	}
	return false
}

func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
