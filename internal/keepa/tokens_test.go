package keepa

import (
	"context"
	"testing"
	"time"
)

// fakeClock lets tests advance wall-clock time explicitly.
type fakeClock struct {
	current time.Time
}

func (f *fakeClock) now() time.Time {
	return f.current
}

func (f *fakeClock) advance(d time.Duration) {
	f.current = f.current.Add(d)
}

func newTestBudget(tokens, ratePerMinute float64) (*TokenBudget, *fakeClock) {
	clock := &fakeClock{current: time.Unix(1_700_000_000, 0)}
	b := NewTokenBudget(tokens, ratePerMinute)
	b.now = clock.now
	b.lastCheck = clock.current
	return b, clock
}

func TestHasCapacityLazyRefill(t *testing.T) {
	b, clock := newTestBudget(0, 60) // 1 token per second

	if b.HasCapacity() {
		t.Error("empty budget should have no capacity")
	}

	clock.advance(10 * time.Second)
	if !b.HasCapacity() {
		t.Error("budget should refill with elapsed time")
	}
	if got := b.Remaining(); got < 9.9 || got > 10.1 {
		t.Errorf("expected ~10 tokens after 10s at 60/min, got %v", got)
	}
}

func TestRefillCappedAtMax(t *testing.T) {
	b, clock := newTestBudget(1000, 6000) // 100 tokens per second

	clock.advance(time.Hour)
	if got := b.Remaining(); got != MaxTokens {
		t.Errorf("expected refill capped at %d, got %v", MaxTokens, got)
	}
}

func TestRemainingNeverNegative(t *testing.T) {
	b, _ := newTestBudget(0, 60)
	left := -5.0
	b.ConsumeFromResponse(&left, nil, nil)

	if got := b.Remaining(); got != 0 {
		t.Errorf("remaining should clamp to 0, got %v", got)
	}
	if b.HasCapacity() {
		t.Error("negative server balance should report no capacity")
	}
}

func TestConsumeFromResponseOverwritesLocalEstimate(t *testing.T) {
	b, clock := newTestBudget(500, 60)

	left := 42.0
	refillIn := int64(30)
	rate := 300.0
	b.ConsumeFromResponse(&left, &refillIn, &rate)

	if got := b.Remaining(); got != 42 {
		t.Errorf("server value should win, got %v", got)
	}

	// New refill rate applies to subsequent lazy refills.
	clock.advance(time.Minute)
	if got := b.Remaining(); got < 341.9 || got > 342.1 {
		t.Errorf("expected 42+300 tokens after a minute, got %v", got)
	}
}

func TestConsumeFromResponsePartialFields(t *testing.T) {
	b, _ := newTestBudget(100, 60)
	refillIn := int64(15)
	b.ConsumeFromResponse(nil, &refillIn, nil)

	if got := b.Remaining(); got != 100 {
		t.Errorf("token count should be untouched when server omits it, got %v", got)
	}
	if b.refillIn != 15*time.Second {
		t.Errorf("refillIn not recorded, got %v", b.refillIn)
	}
}

func TestWaitUntilReadyNoWaitWhenCapacity(t *testing.T) {
	b, _ := newTestBudget(10, 60)
	waited, err := b.WaitUntilReady(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if waited {
		t.Error("should not wait while tokens remain")
	}
}

func TestWaitUntilReadyUsesReportedRefill(t *testing.T) {
	b, clock := newTestBudget(0, 60)
	refillIn := int64(7)
	zero := 0.0
	b.ConsumeFromResponse(&zero, &refillIn, nil)

	var slept time.Duration
	b.sleep = func(ctx context.Context, d time.Duration) error {
		slept = d
		clock.advance(d)
		return nil
	}

	waited, err := b.WaitUntilReady(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !waited {
		t.Error("expected a wait with an empty bucket")
	}
	if slept != 7*time.Second {
		t.Errorf("expected 7s wait from server-reported refill, got %v", slept)
	}
}

func TestWaitUntilReadyDefaultsToSixtySeconds(t *testing.T) {
	b, _ := newTestBudget(0, 0)

	var slept time.Duration
	b.sleep = func(ctx context.Context, d time.Duration) error {
		slept = d
		return nil
	}

	if _, err := b.WaitUntilReady(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slept != defaultRefillWait {
		t.Errorf("expected default %v wait, got %v", defaultRefillWait, slept)
	}
}

func TestWaitUntilReadyCancelled(t *testing.T) {
	b, _ := newTestBudget(0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.WaitUntilReady(ctx); err == nil {
		t.Error("expected context error")
	}
}
