// Package pricing computes line totals and order totals. It is pure so
// the cart display and the committed order are priced by the same code
// and can never diverge.
package pricing

import (
	"github.com/shopspring/decimal"
)

// Line pairs a unit price with a quantity.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  uint
}

// LineTotal returns unitPrice x quantity. Both operands are already
// 2-decimal-place values so no rounding is involved.
func LineTotal(unitPrice decimal.Decimal, quantity uint) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Total returns each line's total and their sum.
func Total(lines []Line) ([]decimal.Decimal, decimal.Decimal) {
	totals := make([]decimal.Decimal, len(lines))
	sum := decimal.Zero
	for i, l := range lines {
		totals[i] = LineTotal(l.UnitPrice, l.Quantity)
		sum = sum.Add(totals[i])
	}
	return totals, sum
}

// Sum adds already-captured line totals. Used when re-deriving an
// order's total from its items.
func Sum(amounts []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(a)
	}
	return sum
}
