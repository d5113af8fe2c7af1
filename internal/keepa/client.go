package keepa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"arb-profit-bot/internal/ratelimit"

	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://api.keepa.com"

// Bounds of the batch fetch retry loops. Transport attempts cover
// network and malformed-payload failures; token waits cover
// quota-exhaustion responses.
const (
	defaultMaxAttempts   = 3
	defaultBackoff       = 5 * time.Second
	defaultMaxTokenWaits = 3
)

var (
	errQuotaExhausted = errors.New("pricing API token quota exhausted")
	errBatchFailed    = errors.New("pricing API rejected the batch")
)

// Client issues batched product lookups against the pricing API.
type Client struct {
	apiKey     string
	domain     string
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Keyed
	budget     *TokenBudget

	maxAttempts   int
	backoff       time.Duration
	maxTokenWaits int

	apiCallCount atomic.Int64
}

// NewClient builds a pricing API client. The limiter spaces calls at the
// configured per-minute ceiling; the budget tracks the server-side token
// bucket.
func NewClient(apiKey, domain string, limiter *ratelimit.Keyed, budget *TokenBudget) *Client {
	return &Client{
		apiKey:  apiKey,
		domain:  domain,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:       limiter,
		budget:        budget,
		maxAttempts:   defaultMaxAttempts,
		backoff:       defaultBackoff,
		maxTokenWaits: defaultMaxTokenWaits,
	}
}

// Budget exposes the token budget shared with the scan orchestrator.
func (c *Client) Budget() *TokenBudget {
	return c.budget
}

// APICallCount returns how many requests this client has issued.
func (c *Client) APICallCount() int64 {
	return c.apiCallCount.Load()
}

// FetchBatch looks up all given identifiers in a single request and
// returns a mapping of identifier to snapshot. A failed batch never
// returns an error: after exhausting retries the result is an empty map
// and the caller treats every identifier as "no data".
func (c *Client) FetchBatch(ctx context.Context, asins []string) map[string]*Product {
	results := make(map[string]*Product)
	if len(asins) == 0 {
		return results
	}

	attempts := 0
	tokenWaits := 0
	for {
		if err := c.limiter.Throttle(ctx, ratelimit.ServiceKeepa); err != nil {
			log.Warn().Err(err).Msg("Batch fetch aborted during throttle")
			return results
		}

		if !c.budget.HasCapacity() {
			if _, err := c.budget.WaitUntilReady(ctx); err != nil {
				log.Warn().Err(err).Msg("Batch fetch aborted while waiting for tokens")
				return results
			}
			continue
		}

		products, err := c.request(ctx, asins)
		if err == nil {
			return c.mapByASIN(asins, products)
		}

		switch {
		case errors.Is(err, errQuotaExhausted):
			tokenWaits++
			if tokenWaits > c.maxTokenWaits {
				log.Error().
					Int("token_waits", tokenWaits-1).
					Msg("Giving up on batch after repeated quota exhaustion")
				return results
			}
			if _, werr := c.budget.WaitUntilReady(ctx); werr != nil {
				log.Warn().Err(werr).Msg("Batch fetch aborted while waiting for tokens")
				return results
			}
		case errors.Is(err, errBatchFailed):
			log.Error().Err(err).Int("batch_size", len(asins)).Msg("Batch fetch failed, treating batch as missing")
			return results
		default:
			attempts++
			if attempts >= c.maxAttempts {
				log.Error().
					Err(err).
					Int("attempts", attempts).
					Msg("Batch fetch exhausted transport retries")
				return results
			}
			log.Warn().
				Err(err).
				Int("attempt", attempts).
				Dur("backoff", c.backoff).
				Msg("Transient batch fetch failure, retrying")
			if serr := sleepContext(ctx, c.backoff); serr != nil {
				return results
			}
		}
	}
}

// request performs one HTTP round trip for the whole batch. Token
// accounting fields are always fed into the budget, even on failures.
func (c *Client) request(ctx context.Context, asins []string) ([]*Product, error) {
	url := fmt.Sprintf("%s/product?key=%s&domain=%s&asin=%s&buybox=1&offers=40",
		c.baseURL, c.apiKey, c.domain, strings.Join(asins, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.apiCallCount.Add(1)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		// A throttled response may carry a non-JSON body; it is still a
		// quota signal, not a transport failure.
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, errQuotaExhausted
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.budget.ConsumeFromResponse(parsed.TokensLeft, parsed.RefillIn, parsed.RefillRate)

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errQuotaExhausted
	}
	if parsed.Error != nil {
		if isQuotaError(parsed.Error) {
			return nil, errQuotaExhausted
		}
		return nil, fmt.Errorf("%w: %s", errBatchFailed, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", errBatchFailed, resp.StatusCode)
	}
	if parsed.Products == nil {
		return nil, fmt.Errorf("%w: response has no products collection", errBatchFailed)
	}

	return parsed.Products, nil
}

func isQuotaError(e *apiError) bool {
	return strings.Contains(strings.ToUpper(e.Type), "TOKEN") ||
		strings.Contains(strings.ToUpper(e.Message), "TOKEN")
}

// mapByASIN keys the returned snapshots by identifier and logs any
// requested identifier the response did not cover. Missing identifiers
// are non-fatal; downstream treats them as "no data".
func (c *Client) mapByASIN(asins []string, products []*Product) map[string]*Product {
	results := make(map[string]*Product, len(products))
	for _, p := range products {
		if p == nil || p.ASIN == "" {
			continue
		}
		p.normalize()
		results[p.ASIN] = p
	}

	for _, asin := range asins {
		if _, ok := results[asin]; !ok {
			log.Warn().Str("asin", asin).Msg("No product data returned for identifier")
		}
	}

	log.Debug().
		Int("requested", len(asins)).
		Int("returned", len(results)).
		Float64("tokens_left", c.budget.Remaining()).
		Msg("Batch fetch complete")

	return results
}
