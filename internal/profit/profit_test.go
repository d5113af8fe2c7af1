package profit

import (
	"testing"

	"github.com/shopspring/decimal"

	"arb-profit-bot/internal/keepa"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalculateWithFulfillmentFee(t *testing.T) {
	// buy £10.00, sell £20.00, pick-and-pack 200 minor units:
	// referral £3.00, fulfillment £2.00, tax £3.20 -> profit £1.80, ROI 18%
	got := Calculate(dec("10.00"), dec("20.00"), &keepa.FBAFees{PickAndPackFee: 200})

	if !got.Profit.Equal(dec("1.80")) {
		t.Errorf("profit = %s, want 1.80", got.Profit)
	}
	if !got.ROI.Equal(dec("18")) {
		t.Errorf("roi = %s, want 18", got.ROI)
	}
	if m := Margin(got.Profit, dec("20.00")); !m.Equal(dec("9")) {
		t.Errorf("margin = %s, want 9", m)
	}
}

func TestCalculateWithoutFees(t *testing.T) {
	// sell £30.00, buy £10.00, no fee: referral £4.50, tax £4.80 -> profit £10.70
	got := Calculate(dec("10.00"), dec("30.00"), nil)

	if !got.Profit.Equal(dec("10.70")) {
		t.Errorf("profit = %s, want 10.70", got.Profit)
	}
	if m := Margin(got.Profit, dec("30.00")); !m.Equal(dec("35.67")) {
		t.Errorf("margin = %s, want 35.67", m)
	}
}

func TestZeroBuyPriceROI(t *testing.T) {
	for _, sell := range []string{"0", "5.00", "999.99"} {
		got := Calculate(decimal.Zero, dec(sell), &keepa.FBAFees{})
		if !got.ROI.IsZero() {
			t.Errorf("roi for zero buy price and sell %s = %s, want 0", sell, got.ROI)
		}
	}
}

func TestZeroSellPriceIsNonFatal(t *testing.T) {
	got := Calculate(dec("10.00"), decimal.Zero, &keepa.FBAFees{PickAndPackFee: 200})
	if !got.Profit.Equal(dec("-12.00")) {
		t.Errorf("profit = %s, want -12.00", got.Profit)
	}
	if m := Margin(got.Profit, decimal.Zero); !m.IsZero() {
		t.Errorf("margin with zero sell price = %s, want 0", m)
	}
}

func TestMonthly(t *testing.T) {
	// £2.00 profit, 30 sold per month, 2 other sellers -> 2*30/3 = £20.00
	got := Monthly(dec("2.00"), 30, 2)
	if !got.Equal(dec("20.00")) {
		t.Errorf("monthly = %s, want 20.00", got)
	}

	if got := Monthly(dec("2.00"), 0, 2); !got.IsZero() {
		t.Errorf("monthly with no sales estimate = %s, want 0", got)
	}
}
