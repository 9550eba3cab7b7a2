package orders

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/money"
)

func TestSnapshotCollectsAllShortfalls(t *testing.T) {
	a, b, gone := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	found := map[primitive.ObjectID]models.Product{
		a: {ID: a, Name: "Lamp", Price: 20, Stock: 1},
		b: {ID: b, Name: "Desk", Price: 150, Stock: 9},
	}
	lines := []models.CartItem{{ProductID: a, Quantity: 2}, {ProductID: b, Quantity: 1}, {ProductID: gone, Quantity: 1}}

	_, err := Snapshot(lines, found)
	var short *ShortfallError
	if !errors.As(err, &short) {
		t.Fatalf("expected ShortfallError, got %v", err)
	}
	if len(short.Items) != 2 || short.Items[0].Name != "Lamp" || short.Items[0].Available != 1 || short.Items[1].ProductID != gone {
		t.Errorf("unexpected shortfalls %+v", short.Items)
	}
}

func TestSnapshotCopiesProductData(t *testing.T) {
	a := primitive.NewObjectID()
	found := map[primitive.ObjectID]models.Product{a: {ID: a, Name: "Lamp", Price: 19.99, Image: "/uploads/products/x.png", Stock: 5}}
	items, err := Snapshot([]models.CartItem{{ProductID: a, Quantity: 3}}, found)
	if err != nil {
		t.Fatal(err)
	}
	want := models.OrderItem{ProductID: a, Name: "Lamp", Price: 19.99, Image: "/uploads/products/x.png", Quantity: 3}
	if items[0] != want {
		t.Errorf("expected %+v, got %+v", want, items[0])
	}
	if got := money.Float(Subtotal(items)); got != 59.97 {
		t.Errorf("expected subtotal 59.97, got %v", got)
	}

	if _, err := Snapshot(nil, found); !errors.Is(err, ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{models.OrderPending, models.OrderProcessing, true},
		{models.OrderPending, models.OrderCancelled, true},
		{models.OrderProcessing, models.OrderShipped, true},
		{models.OrderProcessing, models.OrderCancelled, true},
		{models.OrderShipped, models.OrderDelivered, true},
		{models.OrderShipped, models.OrderCancelled, false},
		{models.OrderPending, models.OrderDelivered, false},
		{models.OrderDelivered, models.OrderPending, false},
		{models.OrderCancelled, models.OrderPending, false},
		{models.OrderProcessing, models.OrderPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}
