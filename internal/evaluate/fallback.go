package evaluate

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"arb-profit-bot/internal/keepa"
)

// FallbackPrice derives a sell price from snapshot aggregates when no
// live offer produced one. The order is canonical for every caller:
// reported buy-box price, then the newest positive price in the primary
// paired price series, then the newest positive buy-box history value.
// Returns zero when every source is empty.
func FallbackPrice(p *keepa.Product) decimal.Decimal {
	if p.Stats.BuyBoxPrice > 0 {
		return fromCents(p.Stats.BuyBoxPrice)
	}
	if cents := latestCSVPrice(p.CSV); cents > 0 {
		return fromCents(cents)
	}
	if cents := latestPositive(p.BuyBoxPriceHistory); cents > 0 {
		return fromCents(cents)
	}
	return decimal.Zero
}

// SellPrice runs the offer evaluation and, when it yields no price,
// the fallback chain. The seller count always comes from the offer
// evaluation. This is the single entry point shared by the full scan
// and the single-identifier lookup.
func SellPrice(logger zerolog.Logger, p *keepa.Product) (decimal.Decimal, int) {
	result := Offers(logger, p)
	price := result.SellPrice
	if price.IsZero() {
		price = FallbackPrice(p)
		if !price.IsZero() {
			logger.Debug().
				Str("asin", p.ASIN).
				Str("fallback_price", price.String()).
				Msg("Sell price taken from fallback chain")
		}
	}
	return price, result.SellerCount
}

// latestCSVPrice scans the primary paired [timestamp, price, ...] series
// newest to oldest and returns the first positive price, which sits at
// the odd-indexed positions.
func latestCSVPrice(csv [][]int64) int64 {
	if len(csv) == 0 || len(csv[0]) < 2 {
		return 0
	}
	series := csv[0]
	start := len(series) - 1
	if start%2 == 0 {
		start--
	}
	for i := start; i >= 1; i -= 2 {
		if series[i] > 0 {
			return series[i]
		}
	}
	return 0
}

// latestPositive returns the most recent positive value of a history
// list, scanning newest to oldest.
func latestPositive(history []int64) int64 {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i] > 0 {
			return history[i]
		}
	}
	return 0
}
