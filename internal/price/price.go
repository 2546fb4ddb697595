// Package price holds the exact decimal helpers used for price and volume
// comparisons. Floating point is only used at the edges where values feed the
// zoom math or leave the process.
package price

import (
	"math"

	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// Cmp returns -1, 0 or +1.
func Cmp(a, b decimal.Decimal) int { return a.Cmp(b) }

// Mid is the midpoint between the best ask and the best bid.
func Mid(bestAsk, bestBid decimal.Decimal) decimal.Decimal {
	return bestAsk.Add(bestBid).Div(two)
}

// Float converts to float64 for chart math.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// FromFloat converts a chart coordinate back to a decimal for exact comparisons.
func FromFloat(f float64) decimal.Decimal {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// Within reports lo <= v <= hi.
func Within(v, lo, hi decimal.Decimal) bool {
	return v.GreaterThanOrEqual(lo) && v.LessThanOrEqual(hi)
}

// Clamp bounds v to [lo, hi]. When lo > hi the upper bound wins.
func Clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
