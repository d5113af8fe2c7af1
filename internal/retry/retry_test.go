package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var testConfig = Config{
	MaxRetries: 3,
	BaseDelay:  time.Millisecond,
	MaxDelay:   10 * time.Millisecond,
	Timeout:    time.Second,
}

func TestWithRetryImmediateSuccess(t *testing.T) {
	calls := 0
	result, err := WithRetry(context.Background(), testConfig, func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("got (%q, %d calls), want (ok, 1)", result, calls)
	}
}

func TestWithRetryEventualSuccess(t *testing.T) {
	calls := 0
	result, err := WithRetry(context.Background(), testConfig, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 || calls != 3 {
		t.Errorf("got (%d, %d calls), want (42, 3)", result, calls)
	}
}

func TestWithRetryExhaustsBudget(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), testConfig, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("persistent")
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != testConfig.MaxRetries+1 {
		t.Errorf("got %d calls, want %d", calls, testConfig.MaxRetries+1)
	}
}

func TestWithRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := WithRetry(ctx, testConfig, func(ctx context.Context) (int, error) {
		calls++
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("operation must not run on a cancelled context, got %d calls", calls)
	}
}
