package discounts

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
	"storefront/internal/money"
)

var (
	ErrUnknown      = errors.New("invalid discount code")
	ErrInactive     = errors.New("discount code is not active")
	ErrExpired      = errors.New("discount code has expired")
	ErrExhausted    = errors.New("discount code usage limit reached")
	ErrBelowMinimum = errors.New("order subtotal is below the minimum for this code")
)

// NormalizeCode is the stored form of a discount code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Check reports why d cannot be applied to subtotal at now, or nil.
func Check(d models.Discount, subtotal decimal.Decimal, now time.Time) error {
	switch {
	case !d.Active:
		return ErrInactive
	case d.ExpiresAt != nil && !now.Before(*d.ExpiresAt):
		return ErrExpired
	case d.UsageLimit > 0 && d.UsedCount >= d.UsageLimit:
		return ErrExhausted
	case subtotal.LessThan(money.D(d.MinOrderAmount)):
		return ErrBelowMinimum
	}
	return nil
}

// Amount is the reduction d gives on subtotal, never more than subtotal,
// rounded to cents.
func Amount(d models.Discount, subtotal decimal.Decimal) decimal.Decimal {
	var off decimal.Decimal
	switch d.Type {
	case models.DiscountPercentage:
		off = subtotal.Mul(money.D(d.Value)).Div(decimal.NewFromInt(100))
	case models.DiscountFixed:
		off = money.D(d.Value)
	}
	if off.GreaterThan(subtotal) {
		off = subtotal
	}
	if off.IsNegative() {
		off = decimal.Zero
	}
	return off.Round(2)
}

// Apply checks d and returns the discount amount for subtotal.
func Apply(d models.Discount, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if err := Check(d, subtotal, now); err != nil {
		return decimal.Zero, err
	}
	return Amount(d, subtotal), nil
}

// IsRejection reports whether err is one of the reasons a code is refused.
func IsRejection(err error) bool {
	return errors.Is(err, ErrUnknown) || errors.Is(err, ErrInactive) || errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrExhausted) || errors.Is(err, ErrBelowMinimum)
}
