package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/colligo/internal/common"
)

func TestShouldRetry(t *testing.T) {
	policy := NewRetryPolicy()

	tests := []struct {
		name       string
		attempt    int
		statusCode int
		err        error
		want       bool
	}{
		{"retryable 429", 0, 429, nil, true},
		{"retryable 503", 1, 503, nil, true},
		{"retryable 408", 0, 408, nil, true},
		{"non-retryable 404", 0, 404, nil, false},
		{"non-retryable 401", 0, 401, nil, false},
		{"max attempts reached", 3, 503, nil, false},
		{"deadline exceeded", 0, 0, context.DeadlineExceeded, true},
		{"generic error", 0, 0, errors.New("boom"), false},
		{"success", 0, 200, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.ShouldRetry(tt.attempt, tt.statusCode, tt.err); got != tt.want {
				t.Errorf("ShouldRetry(%d, %d, %v) = %v, want %v", tt.attempt, tt.statusCode, tt.err, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	policy := NewRetryPolicy()

	for attempt := 0; attempt < 5; attempt++ {
		backoff := policy.CalculateBackoff(attempt)
		if backoff <= 0 {
			t.Errorf("backoff for attempt %d should be positive, got %v", attempt, backoff)
		}
		// Jitter is ±25%, so the cap can be exceeded by at most 25%
		maxAllowed := time.Duration(float64(policy.MaxBackoff) * 1.25)
		if backoff > maxAllowed {
			t.Errorf("backoff for attempt %d exceeds cap: %v", attempt, backoff)
		}
	}
}

func TestExecuteWithRetrySucceedsAfterFailure(t *testing.T) {
	policy := NewRetryPolicy()
	policy.InitialBackoff = time.Millisecond
	policy.MaxBackoff = 5 * time.Millisecond

	calls := 0
	statusCode, err := policy.ExecuteWithRetry(context.Background(), common.GetLogger(), func() (int, error) {
		calls++
		if calls < 3 {
			return 503, errors.New("service unavailable")
		}
		return 200, nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if statusCode != 200 {
		t.Errorf("expected 200, got %d", statusCode)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestExecuteWithRetryStopsOnClientError(t *testing.T) {
	policy := NewRetryPolicy()
	policy.InitialBackoff = time.Millisecond

	calls := 0
	statusCode, err := policy.ExecuteWithRetry(context.Background(), common.GetLogger(), func() (int, error) {
		calls++
		return 404, errors.New("not found")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if statusCode != 404 {
		t.Errorf("expected 404, got %d", statusCode)
	}
	if calls != 1 {
		t.Errorf("client error should not be retried, got %d calls", calls)
	}
}

func TestExecuteWithRetryHonorsContext(t *testing.T) {
	policy := NewRetryPolicy()
	policy.InitialBackoff = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := policy.ExecuteWithRetry(ctx, common.GetLogger(), func() (int, error) {
		return 503, errors.New("service unavailable")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
