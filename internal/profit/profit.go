// Package profit holds the fee model and margin math for resale
// profitability. Single currency, fixed fee schedule.
package profit

import (
	"github.com/shopspring/decimal"

	"arb-profit-bot/internal/keepa"
)

var (
	referralRate = decimal.New(15, -2) // 15% of sell price
	taxRate      = decimal.New(16, -2) // 16% consumption tax on sell price
	hundred      = decimal.New(100, 0)
)

// Result is the per-unit outcome of the fee model. All values are
// rounded to 2 decimals.
type Result struct {
	Profit decimal.Decimal
	ROI    decimal.Decimal
}

// Calculate applies the fee schedule to one unit:
// profit = sell - referral - fulfillment - buy - tax.
// ROI is profit relative to the buy price, and defaults to 0 when the
// buy price is not positive rather than failing.
func Calculate(buy, sell decimal.Decimal, fees *keepa.FBAFees) Result {
	referral := sell.Mul(referralRate).Round(2)
	tax := sell.Mul(taxRate).Round(2)
	fulfillment := decimal.Zero
	if fees != nil && fees.PickAndPackFee > 0 {
		fulfillment = decimal.New(fees.PickAndPackFee, -2)
	}

	p := sell.Sub(referral).Sub(fulfillment).Sub(buy).Sub(tax).Round(2)

	roi := decimal.Zero
	if buy.IsPositive() {
		roi = p.Div(buy).Mul(hundred).Round(2)
	}

	return Result{Profit: p, ROI: roi}
}

// Margin is profit per unit as a percentage of the sell price, 0 when
// the sell price is not positive.
func Margin(profit, sell decimal.Decimal) decimal.Decimal {
	if !sell.IsPositive() {
		return decimal.Zero
	}
	return profit.Div(sell).Mul(hundred).Round(2)
}

// Monthly estimates profit per month: per-unit profit times the
// monthly-sold estimate, split across the qualifying sellers plus us.
func Monthly(profit decimal.Decimal, monthlySold, sellers int) decimal.Decimal {
	if monthlySold <= 0 {
		return decimal.Zero
	}
	return profit.
		Mul(decimal.New(int64(monthlySold), 0)).
		Div(decimal.New(int64(sellers+1), 0)).
		Round(2)
}
