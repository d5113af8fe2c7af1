package scan

import (
	"github.com/shopspring/decimal"
)

// Tier buckets a scanned product by how attractive its numbers are.
type Tier int

const (
	TierNone Tier = iota
	TierLow
	TierMedium
	TierHigh
)

// Tier thresholds: margin percentages for high and medium, absolute
// profit per unit for low.
var (
	highMarginPct  = decimal.New(15, 0)
	mediumMarginPct = decimal.New(10, 0)
	lowProfitAbs   = decimal.New(30, 0)
)

// classify maps a margin percentage and absolute profit to a tier.
// Margin takes precedence; the low tier catches items whose margin is
// modest but whose absolute profit per unit is large.
func classify(margin, profit decimal.Decimal) Tier {
	switch {
	case margin.GreaterThan(highMarginPct):
		return TierHigh
	case margin.GreaterThan(mediumMarginPct):
		return TierMedium
	case profit.GreaterThan(lowProfitAbs):
		return TierLow
	default:
		return TierNone
	}
}
