package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLineAvoidsFloatDrift(t *testing.T) {
	// 0.1 * 3 is 0.30000000000000004 in float64
	if got := Float(Line(0.1, 3)); got != 0.3 {
		t.Errorf("expected 0.3, got %v", got)
	}
	sum := decimal.Zero
	for i := 0; i < 10; i++ {
		sum = sum.Add(Line(0.1, 1))
	}
	if Float(sum) != 1 {
		t.Errorf("expected 1, got %v", Float(sum))
	}
}

func TestFloatRoundsToCents(t *testing.T) {
	if got := Float(D(10).Div(D(3))); got != 3.33 {
		t.Errorf("expected 3.33, got %v", got)
	}
	if got := Float(D(2.675)); got != 2.68 {
		t.Errorf("expected 2.68, got %v", got)
	}
}
