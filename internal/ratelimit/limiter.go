package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Service keys for the two external APIs this process talks to.
const (
	ServiceKeepa  = "keepa"
	ServiceSheets = "sheets"
)

// Keyed spaces out calls per service key so each external API sees at
// most its configured requests-per-minute ceiling.
type Keyed struct {
	limiters map[string]*rate.Limiter
}

// New builds a Keyed limiter from a map of service key to requests per minute.
func New(perMinute map[string]int) *Keyed {
	limiters := make(map[string]*rate.Limiter, len(perMinute))
	for key, rpm := range perMinute {
		if rpm <= 0 {
			rpm = 1
		}
		limiters[key] = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}
	return &Keyed{limiters: limiters}
}

// NewDefault returns limiters for the pricing API (20/min) and the
// spreadsheet API (60/min).
func NewDefault() *Keyed {
	return New(map[string]int{
		ServiceKeepa:  20,
		ServiceSheets: 60,
	})
}

// Throttle blocks until enough time has passed since the previous call
// tagged with the same service key. Returns an error only when the
// context is cancelled or the key is unknown.
func (k *Keyed) Throttle(ctx context.Context, service string) error {
	limiter, ok := k.limiters[service]
	if !ok {
		return fmt.Errorf("no rate limiter configured for service %q", service)
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", service, err)
	}
	return nil
}
