package llm

import (
	"context"
	"testing"
	"time"
)

// fastPolicy returns a retry policy with near-zero delays for tests.
func fastPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:        maxRetries,
		BaseDelay:         0.001,
		MaxDelay:          0.01,
		BackoffMultiplier: 1.0,
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastPolicy(3), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("expected %q, got %q", "ok", result)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryRecoversFromRetryableError(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastPolicy(3), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &ServerError{ProviderError: ProviderError{
				SDKError: SDKError{Message: "transient"}, Retryable: true,
			}}
		}
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "recovered" {
		t.Errorf("expected %q, got %q", "recovered", result)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(3), func(ctx context.Context) (string, error) {
		calls++
		return "", &AuthenticationError{ProviderError: ProviderError{
			SDKError: SDKError{Message: "bad key"},
		}}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call (no retry), got %d", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(2), func(ctx context.Context) (string, error) {
		calls++
		return "", &ServerError{ProviderError: ProviderError{
			SDKError: SDKError{Message: "still down"}, Retryable: true,
		}}
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	// Initial attempt + 2 retries.
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Retry(ctx, fastPolicy(3), func(ctx context.Context) (string, error) {
		return "", &ServerError{ProviderError: ProviderError{
			SDKError: SDKError{Message: "down"}, Retryable: true,
		}}
	})
	if _, ok := err.(*AbortError); !ok {
		t.Fatalf("expected AbortError, got %T: %v", err, err)
	}
}

func TestDefaultRetryPolicyDelays(t *testing.T) {
	policy := DefaultRetryPolicy()
	if policy.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", policy.MaxRetries)
	}

	// Jitter swings each delay by +/- 50%; the backoff must still grow
	// from the base and stay capped at MaxDelay.
	first := policy.Delay(0)
	if first < 500*time.Millisecond || first > 1500*time.Millisecond {
		t.Errorf("first delay = %v, want ~1s with jitter", first)
	}
	capped := policy.Delay(30)
	if capped > time.Duration(policy.MaxDelay*1.5*float64(time.Second)) {
		t.Errorf("late delay = %v, exceeds the cap", capped)
	}
}

func TestWithRetryMiddleware(t *testing.T) {
	mock := &mockAdapter{
		name: "flaky",
		err: &ServerError{ProviderError: ProviderError{
			SDKError: SDKError{Message: "down"}, Retryable: true,
		}},
	}
	client := NewClient(
		WithProvider("flaky", mock),
		WithMiddleware(WithRetry(fastPolicy(2))),
	)

	_, err := client.Complete(context.Background(), Request{
		Messages: []Message{UserMessage("Hi")},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.calls != 3 {
		t.Errorf("expected 3 attempts through middleware, got %d", mock.calls)
	}
}
