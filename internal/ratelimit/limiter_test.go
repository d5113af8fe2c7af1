package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestThrottleSpacing(t *testing.T) {
	// 600 per minute = one call every 100ms
	k := New(map[string]int{"svc": 600})
	ctx := context.Background()

	if err := k.Throttle(ctx, "svc"); err != nil {
		t.Fatalf("first throttle failed: %v", err)
	}

	start := time.Now()
	if err := k.Throttle(ctx, "svc"); err != nil {
		t.Fatalf("second throttle failed: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 80*time.Millisecond {
		t.Errorf("second call after %v, expected at least ~100ms spacing", elapsed)
	}
}

func TestThrottleIndependentKeys(t *testing.T) {
	k := New(map[string]int{"a": 1, "b": 600})
	ctx := context.Background()

	// Consume a's only slot, then b must still proceed immediately.
	if err := k.Throttle(ctx, "a"); err != nil {
		t.Fatalf("throttle a: %v", err)
	}

	start := time.Now()
	if err := k.Throttle(ctx, "b"); err != nil {
		t.Fatalf("throttle b: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("key b blocked for %v behind key a", elapsed)
	}
}

func TestThrottleUnknownService(t *testing.T) {
	k := NewDefault()
	if err := k.Throttle(context.Background(), "nope"); err == nil {
		t.Error("expected error for unknown service key")
	}
}

func TestThrottleContextCancelled(t *testing.T) {
	k := New(map[string]int{"svc": 1})
	ctx := context.Background()
	if err := k.Throttle(ctx, "svc"); err != nil {
		t.Fatalf("first throttle failed: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := k.Throttle(cancelled, "svc"); err == nil {
		t.Error("expected error when context already cancelled")
	}
}
