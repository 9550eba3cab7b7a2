// Package money does currency arithmetic on decimals and rounds to cents
// before values are stored as float64.
package money

import "github.com/shopspring/decimal"

func D(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// Line is price × qty.
func Line(price float64, qty int) decimal.Decimal {
	return D(price).Mul(decimal.NewFromInt(int64(qty)))
}

// Float rounds to cents.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
