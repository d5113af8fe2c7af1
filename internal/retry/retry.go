// Package retry provides bounded retries with exponential backoff for
// the collaborator calls that may transiently fail (sheet write-backs,
// notification delivery).
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Timeout    time.Duration
}

// Retry profiles for the two collaborators this system retries.
var (
	SheetWrite = Config{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
		Timeout:    15 * time.Second,
	}
	Notify = Config{
		MaxRetries: 2,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
		Timeout:    10 * time.Second,
	}
)

// WithRetry runs the operation until it succeeds or the attempt budget
// is spent. Each attempt gets its own timeout context.
func WithRetry[T any](ctx context.Context, cfg Config, operation func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		opCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		result, err := operation(opCtx)
		cancel()

		if err == nil {
			return result, nil
		}
		lastErr = err

		log.Debug().
			Err(err).
			Int("attempt", attempt+1).
			Msg("Operation failed")

		if attempt == cfg.MaxRetries {
			break
		}

		delay := backoff(attempt, cfg)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxRetries+1, lastErr)
}

// backoff doubles the base delay per attempt with jitter between 0.5x
// and 1.5x, capped at MaxDelay.
func backoff(attempt int, cfg Config) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	delay := cfg.BaseDelay << attempt
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	delay = time.Duration(float64(delay) * (0.5 + rand.Float64()))
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}
