package cart

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

var (
	ErrOutOfStock = errors.New("product is out of stock")
	ErrNotInCart  = errors.New("product is not in the cart")
)

// Change describes the outcome of reconciling one line against stock.
type Change struct {
	Items    []models.CartItem
	Quantity int
	Clamped  bool
	Removed  bool
}

func indexOf(items []models.CartItem, productID primitive.ObjectID) int {
	for i, it := range items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func clamp(qty, stock int) (int, bool) {
	if qty > stock {
		return stock, true
	}
	return qty, false
}

func withQuantity(items []models.CartItem, productID primitive.ObjectID, qty int) []models.CartItem {
	out := make([]models.CartItem, 0, len(items)+1)
	found := false
	for _, it := range items {
		if it.ProductID == productID {
			found = true
			if qty > 0 {
				out = append(out, models.CartItem{ProductID: productID, Quantity: qty})
			}
			continue
		}
		out = append(out, it)
	}
	if !found && qty > 0 {
		out = append(out, models.CartItem{ProductID: productID, Quantity: qty})
	}
	return out
}

// AddLine merges qty into the existing line for productID, or appends a new
// line, clamping the resulting quantity to stock.
func AddLine(items []models.CartItem, productID primitive.ObjectID, qty, stock int) (Change, error) {
	if stock <= 0 {
		return Change{}, ErrOutOfStock
	}
	want := qty
	if i := indexOf(items, productID); i >= 0 {
		want += items[i].Quantity
	}
	got, clamped := clamp(want, stock)
	return Change{Items: withQuantity(items, productID, got), Quantity: got, Clamped: clamped}, nil
}

// SetLine sets the quantity for productID. Zero removes the line; positive
// quantities are clamped to stock and add the line when it is missing.
func SetLine(items []models.CartItem, productID primitive.ObjectID, qty, stock int) (Change, error) {
	exists := indexOf(items, productID) >= 0
	if qty <= 0 {
		if !exists {
			return Change{}, ErrNotInCart
		}
		return Change{Items: withQuantity(items, productID, 0), Removed: true}, nil
	}
	if stock <= 0 {
		return Change{}, ErrOutOfStock
	}
	got, clamped := clamp(qty, stock)
	return Change{Items: withQuantity(items, productID, got), Quantity: got, Clamped: clamped}, nil
}

func RemoveLine(items []models.CartItem, productID primitive.ObjectID) ([]models.CartItem, error) {
	if indexOf(items, productID) < 0 {
		return nil, ErrNotInCart
	}
	return withQuantity(items, productID, 0), nil
}
