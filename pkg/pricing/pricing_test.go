package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		quantity uint
		want     string
	}{
		{"single unit", "10.00", 1, "10.00"},
		{"multiple units", "10.00", 2, "20.00"},
		{"cents", "0.99", 3, "2.97"},
		{"zero quantity", "5.00", 0, "0"},
		{"large quantity", "19.99", 100, "1999.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineTotal(dec(tt.unit), tt.quantity)
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestTotal(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("10.00"), Quantity: 2},
		{UnitPrice: dec("5.00"), Quantity: 1},
	}

	totals, sum := Total(lines)

	assert.Len(t, totals, 2)
	assert.True(t, totals[0].Equal(dec("20.00")))
	assert.True(t, totals[1].Equal(dec("5.00")))
	assert.True(t, sum.Equal(dec("25.00")))
}

func TestTotalEmpty(t *testing.T) {
	totals, sum := Total(nil)
	assert.Empty(t, totals)
	assert.True(t, sum.IsZero())
}

func TestTotalDeterministic(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("3.33"), Quantity: 3},
		{UnitPrice: dec("0.01"), Quantity: 7},
	}
	_, first := Total(lines)
	_, second := Total(lines)
	assert.True(t, first.Equal(second))
}

func TestSum(t *testing.T) {
	sum := Sum([]decimal.Decimal{dec("20.00"), dec("5.00")})
	assert.True(t, sum.Equal(dec("25.00")))

	assert.True(t, Sum(nil).IsZero())
}
