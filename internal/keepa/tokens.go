package keepa

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// MaxTokens is the bucket capacity of the pricing API quota.
const MaxTokens = 1200

// defaultRefillWait is used when the server has not told us when the
// next refill happens.
const defaultRefillWait = 60 * time.Second

// TokenBudget mirrors the pricing API's token bucket locally. Between
// responses the remaining count is advanced by elapsed wall-clock time;
// whenever a response carries authoritative values they overwrite the
// local estimate.
type TokenBudget struct {
	mu         sync.Mutex
	tokens     float64
	refillIn   time.Duration // time until the server's next refill
	refillRate float64       // tokens per minute
	lastCheck  time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewTokenBudget starts with the given token count and refill rate per
// minute.
func NewTokenBudget(tokens, ratePerMinute float64) *TokenBudget {
	b := &TokenBudget{
		tokens:     tokens,
		refillRate: ratePerMinute,
		now:        time.Now,
		sleep:      sleepContext,
	}
	b.lastCheck = b.now()
	return b
}

// NewTokenBudgetWithClock is NewTokenBudget with an injected clock and
// sleeper, for tests that simulate elapsed time.
func NewTokenBudgetWithClock(tokens, ratePerMinute float64, now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) *TokenBudget {
	b := NewTokenBudget(tokens, ratePerMinute)
	if now != nil {
		b.now = now
		b.lastCheck = now()
	}
	if sleep != nil {
		b.sleep = sleep
	}
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// HasCapacity advances the local estimate by elapsed time and reports
// whether at least one token remains.
func (b *TokenBudget) HasCapacity() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.tokens > 0
}

// advance applies the lazy elapsed-time refill. Must be called with the
// mutex held.
func (b *TokenBudget) advance() {
	now := b.now()
	elapsed := now.Sub(b.lastCheck)
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed.Seconds() * b.refillRate / 60
	if b.tokens > MaxTokens {
		b.tokens = MaxTokens
	}
	b.lastCheck = now
}

// ConsumeFromResponse overwrites the local state with the values the
// server reported. Server state always wins over the local estimate.
func (b *TokenBudget) ConsumeFromResponse(tokensLeft *float64, refillInSeconds *int64, refillRate *float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if tokensLeft != nil {
		b.tokens = *tokensLeft
		b.lastCheck = b.now()
	}
	if refillInSeconds != nil {
		b.refillIn = time.Duration(*refillInSeconds) * time.Second
	}
	if refillRate != nil && *refillRate > 0 {
		b.refillRate = *refillRate
	}
}

// Remaining returns the current token estimate, never negative.
func (b *TokenBudget) Remaining() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	if b.tokens < 0 {
		return 0
	}
	return b.tokens
}

// WaitUntilReady blocks until the server's reported refill time has
// passed when the bucket is exhausted. It reports whether a wait
// actually occurred. No network activity happens during the wait.
func (b *TokenBudget) WaitUntilReady(ctx context.Context) (bool, error) {
	if b.HasCapacity() {
		return false, nil
	}

	b.mu.Lock()
	wait := b.refillIn
	b.mu.Unlock()
	if wait <= 0 {
		wait = defaultRefillWait
	}

	log.Info().
		Dur("wait", wait).
		Msg("Token budget exhausted, waiting for refill")

	if err := b.sleep(ctx, wait); err != nil {
		return false, err
	}
	return true, nil
}
