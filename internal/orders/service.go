package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/discounts"
	"storefront/internal/models"
	"storefront/internal/money"
	"storefront/internal/store"
)

type Store interface {
	Create(ctx context.Context, o *models.Order) error
	ByID(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	List(ctx context.Context, userID primitive.ObjectID, status string, skip, limit int64) ([]models.Order, int64, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, from, to string, payment *models.Payment) (models.Order, error)
}

type CartStore interface {
	ForUser(ctx context.Context, userID primitive.ObjectID) (models.Cart, error)
	Clear(ctx context.Context, userID primitive.ObjectID) error
}

type Inventory interface {
	ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
}

type DiscountStore interface {
	ByCode(ctx context.Context, code string) (models.Discount, error)
	IncrementUsage(ctx context.Context, code string) error
	DecrementUsage(ctx context.Context, code string) error
}

// Service places orders and moves them through their lifecycle. There are
// no multi-document transactions: every step that touches stock or discount
// usage is undone by hand when a later step fails.
type Service struct {
	orders    Store
	carts     CartStore
	inventory Inventory
	discounts DiscountStore
	now       func() time.Time
}

func NewService(orders Store, carts CartStore, inventory Inventory, discounts DiscountStore) *Service {
	return &Service{orders: orders, carts: carts, inventory: inventory, discounts: discounts, now: time.Now}
}

type PlaceInput struct {
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
	DiscountCode    string
}

func (s *Service) Place(ctx context.Context, userID primitive.ObjectID, in PlaceInput) (models.Order, error) {
	crt, err := s.carts.ForUser(ctx, userID)
	if err != nil {
		return models.Order{}, err
	}
	if len(crt.Items) == 0 {
		return models.Order{}, ErrEmptyCart
	}
	ids := make([]primitive.ObjectID, 0, len(crt.Items))
	for _, it := range crt.Items {
		ids = append(ids, it.ProductID)
	}
	found, err := s.inventory.ByIDs(ctx, ids)
	if err != nil {
		return models.Order{}, err
	}
	items, err := Snapshot(crt.Items, found)
	if err != nil {
		return models.Order{}, err
	}

	subtotal := Subtotal(items)
	off := money.D(0)
	code := discounts.NormalizeCode(in.DiscountCode)
	if code != "" {
		d, err := s.discounts.ByCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return models.Order{}, discounts.ErrUnknown
		}
		if err != nil {
			return models.Order{}, err
		}
		if off, err = discounts.Apply(d, subtotal, s.now()); err != nil {
			return models.Order{}, err
		}
	}

	taken, err := s.take(ctx, items)
	if err != nil {
		return models.Order{}, err
	}
	if code != "" {
		if err := s.discounts.IncrementUsage(ctx, code); err != nil {
			s.restock(ctx, taken)
			return models.Order{}, err
		}
	}

	o := models.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		Payment:         models.Payment{Method: in.PaymentMethod, Status: models.PaymentPending},
		DiscountCode:    code,
		Subtotal:        money.Float(subtotal),
		Discount:        money.Float(off),
		Total:           money.Float(subtotal.Sub(off)),
		Status:          models.OrderPending,
	}
	if err := s.orders.Create(ctx, &o); err != nil {
		s.restock(ctx, taken)
		if code != "" {
			if uerr := s.discounts.DecrementUsage(ctx, code); uerr != nil {
				log.Printf("orders: release discount %s: %v", code, uerr)
			}
		}
		return models.Order{}, err
	}
	if err := s.carts.Clear(ctx, userID); err != nil {
		log.Printf("orders: clear cart for %s after order %s: %v", userID.Hex(), o.ID.Hex(), err)
	}
	return o, nil
}

// take decrements stock line by line. If any line loses a race the lines
// already taken are put back.
func (s *Service) take(ctx context.Context, items []models.OrderItem) ([]models.OrderItem, error) {
	taken := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		if err := s.inventory.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			s.restock(ctx, taken)
			if errors.Is(err, store.ErrInsufficientStock) {
				return nil, &ShortfallError{Items: []Shortfall{{ProductID: it.ProductID, Name: it.Name, Requested: it.Quantity}}}
			}
			return nil, err
		}
		taken = append(taken, it)
	}
	return taken, nil
}

func (s *Service) restock(ctx context.Context, items []models.OrderItem) {
	for _, it := range items {
		if err := s.inventory.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			log.Printf("orders: restock %s x%d: %v", it.ProductID.Hex(), it.Quantity, err)
		}
	}
}

// Cancel is the customer-side cancel, allowed only while the order is pending.
func (s *Service) Cancel(ctx context.Context, o models.Order) (models.Order, error) {
	if o.Status != models.OrderPending {
		return models.Order{}, ErrNotCancellable
	}
	return s.transition(ctx, o, models.OrderCancelled)
}

// SetStatus is the admin-side transition.
func (s *Service) SetStatus(ctx context.Context, id primitive.ObjectID, to string) (models.Order, error) {
	o, err := s.orders.ByID(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if !CanTransition(o.Status, to) {
		return models.Order{}, fmt.Errorf("%s to %s: %w", o.Status, to, ErrIllegalTransition)
	}
	return s.transition(ctx, o, to)
}

func (s *Service) transition(ctx context.Context, o models.Order, to string) (models.Order, error) {
	var payment *models.Payment
	switch to {
	case models.OrderDelivered:
		now := s.now().UTC()
		payment = &models.Payment{Method: o.Payment.Method, Status: models.PaymentPaid, PaidAt: &now}
	case models.OrderCancelled:
		if o.Payment.Status == models.PaymentPaid {
			payment = &models.Payment{Method: o.Payment.Method, Status: models.PaymentRefunded, PaidAt: o.Payment.PaidAt}
		}
	}
	updated, err := s.orders.SetStatus(ctx, o.ID, o.Status, to, payment)
	if err != nil {
		return models.Order{}, err
	}
	if to == models.OrderCancelled {
		s.restock(ctx, o.Items)
	}
	return updated, nil
}

func (s *Service) ByID(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	return s.orders.ByID(ctx, id)
}

func (s *Service) List(ctx context.Context, userID primitive.ObjectID, status string, skip, limit int64) ([]models.Order, int64, error) {
	return s.orders.List(ctx, userID, status, skip, limit)
}
