// Package evaluate derives a canonical sell price and qualifying seller
// count from a product snapshot's raw offer list.
package evaluate

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"arb-profit-bot/internal/keepa"
)

// livenessWindowSeconds is how far an offer's lastSeen timestamp may lie
// from the snapshot's lastUpdate and still count as live.
const livenessWindowSeconds = 3600

// conditionNew is the marketplace condition code for a new item.
const conditionNew = 1

// specialSellerID is the one seller identity that always counts as a
// qualifying seller regardless of its fulfillment flags. It never
// contributes a price.
const specialSellerID = "A3P5ROKL5A1OLE"

// Result is the outcome of evaluating one snapshot's offers.
type Result struct {
	SellPrice   decimal.Decimal
	SellerCount int
}

// Offers applies the layered eligibility policy to the snapshot's offer
// list. Live, baseline-valid offers are classified into three disjoint
// seller buckets (platform-sold, FBA+Prime, special seller); the sell
// price is the minimum usable price across the two price-bearing
// buckets, or zero when neither has one. One debug event is emitted per
// offer decision.
func Offers(logger zerolog.Logger, p *keepa.Product) Result {
	amazonSellers := make(map[string]struct{})
	primeSellers := make(map[string]struct{})
	specialSellers := make(map[string]struct{})
	var amazonPrices, primePrices []int64

	for i, offer := range p.Offers {
		event := logger.Debug().
			Int("offer", i).
			Str("seller_id", offer.SellerID).
			Int64("last_seen", offer.LastSeen)

		if !isLive(offer.LastSeen, p.LastUpdate) {
			event.Str("decision", "stale").Msg("Offer evaluated")
			continue
		}
		if !baselineValid(offer) {
			event.Str("decision", "ineligible").Msg("Offer evaluated")
			continue
		}

		price := usablePrice(offer)
		switch {
		case offer.IsAmazon:
			if offer.SellerID != "" {
				amazonSellers[offer.SellerID] = struct{}{}
			}
			if price > 0 {
				amazonPrices = append(amazonPrices, price)
			}
			event.Str("decision", "accepted").Str("bucket", "amazon").Int64("price_cents", price)
		case offer.IsFBA && offer.IsPrime:
			if offer.SellerID != "" {
				primeSellers[offer.SellerID] = struct{}{}
			}
			if price > 0 {
				primePrices = append(primePrices, price)
			}
			event.Str("decision", "accepted").Str("bucket", "fba_prime").Int64("price_cents", price)
		case offer.SellerID == specialSellerID:
			specialSellers[offer.SellerID] = struct{}{}
			event.Str("decision", "accepted").Str("bucket", "special_seller")
		default:
			event.Str("decision", "unbucketed")
		}
		event.Msg("Offer evaluated")
	}

	sellPrice := decimal.Zero
	if best, ok := minPrice(amazonPrices, primePrices); ok {
		sellPrice = fromCents(best)
	}

	return Result{
		SellPrice:   sellPrice,
		SellerCount: len(amazonSellers) + len(primeSellers) + len(specialSellers),
	}
}

// isLive tests the offer's lastSeen against the snapshot's lastUpdate.
// Both timestamps arrive in the pricing API's minute resolution; the
// window is specified in seconds.
func isLive(lastSeen, lastUpdate int64) bool {
	diff := lastSeen - lastUpdate
	if diff < 0 {
		diff = -diff
	}
	return diff*60 <= livenessWindowSeconds
}

func baselineValid(o keepa.Offer) bool {
	return o.Condition == conditionNew &&
		o.IsShippable &&
		!o.IsScam &&
		!o.IsWarehouseDeal
}

// usablePrice takes the second-to-last element of the paired offer
// price series when the series is long enough; the flat price field is
// consulted only when it isn't. A present-but-non-positive series value
// (the API's gap marker) makes the offer's price unusable outright.
func usablePrice(o keepa.Offer) int64 {
	if n := len(o.OfferCSV); n >= 2 {
		if v := o.OfferCSV[n-2]; v > 0 {
			return v
		}
		return 0
	}
	if o.Price > 0 {
		return o.Price
	}
	return 0
}

func minPrice(lists ...[]int64) (int64, bool) {
	var best int64
	found := false
	for _, list := range lists {
		for _, p := range list {
			if !found || p < best {
				best = p
				found = true
			}
		}
	}
	return best, found
}

// fromCents converts minor units to a major-unit amount at 2 decimals.
func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
