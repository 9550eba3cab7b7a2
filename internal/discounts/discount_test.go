package discounts

import (
	"errors"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/money"
)

func TestAmount(t *testing.T) {
	cases := []struct {
		name     string
		d        models.Discount
		subtotal float64
		want     float64
	}{
		{"percentage", models.Discount{Type: models.DiscountPercentage, Value: 15}, 80, 12},
		{"percentage rounds to cents", models.Discount{Type: models.DiscountPercentage, Value: 33}, 9.99, 3.30},
		{"fixed", models.Discount{Type: models.DiscountFixed, Value: 5}, 20, 5},
		{"fixed capped at subtotal", models.Discount{Type: models.DiscountFixed, Value: 50}, 20, 20},
		{"full percentage", models.Discount{Type: models.DiscountPercentage, Value: 100}, 12.34, 12.34},
	}
	for _, tc := range cases {
		if got := money.Float(Amount(tc.d, money.D(tc.subtotal))); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestCheckReasons(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	base := models.Discount{Code: "SPRING", Type: models.DiscountFixed, Value: 5, Active: true, MinOrderAmount: 10}

	cases := []struct {
		name     string
		mutate   func(*models.Discount)
		subtotal float64
		want     error
	}{
		{"ok", func(*models.Discount) {}, 10, nil},
		{"inactive", func(d *models.Discount) { d.Active = false }, 50, ErrInactive},
		{"expired", func(d *models.Discount) { d.ExpiresAt = &past }, 50, ErrExpired},
		{"not yet expired", func(d *models.Discount) { d.ExpiresAt = &future }, 50, nil},
		{"exhausted", func(d *models.Discount) { d.UsageLimit, d.UsedCount = 3, 3 }, 50, ErrExhausted},
		{"unlimited", func(d *models.Discount) { d.UsedCount = 1000 }, 50, nil},
		{"below minimum", func(*models.Discount) {}, 9.99, ErrBelowMinimum},
	}
	for _, tc := range cases {
		d := base
		tc.mutate(&d)
		err := Check(d, money.D(tc.subtotal), now)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if tc.want != nil && !IsRejection(err) {
			t.Errorf("%s: expected a rejection", tc.name)
		}
	}
}

func TestNormalizeCode(t *testing.T) {
	if NormalizeCode(" summer10 ") != "SUMMER10" {
		t.Errorf("unexpected %q", NormalizeCode(" summer10 "))
	}
}
