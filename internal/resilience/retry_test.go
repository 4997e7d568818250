package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestRetrySuccessOnFirstAttempt(t *testing.T) {
	var calls int
	val, err := Retry(context.Background(), DefaultPolicy(), "op", func(_ context.Context) (int, error) {
		calls++
		return 7, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 7 || calls != 1 {
		t.Errorf("got val=%d calls=%d, want 7 and 1", val, calls)
	}
}

func TestRetrySuccessAfterTransientFailures(t *testing.T) {
	var calls int
	val, err := Retry(context.Background(), fastPolicy(), "op", func(_ context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(errors.New("temporary"), 503)
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "ok" || calls != 3 {
		t.Errorf("got val=%q calls=%d, want \"ok\" and 3", val, calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	var calls int
	_, err := Retry(context.Background(), fastPolicy(), "op", func(_ context.Context) (int, error) {
		calls++
		return 0, NewTransientError(errors.New("always fails"), 500)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("bad request")
	var calls int
	_, err := Retry(context.Background(), fastPolicy(), "op", func(_ context.Context) (int, error) {
		calls++
		return 0, permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	_, err := Retry(ctx, fastPolicy(), "op", func(_ context.Context) (int, error) {
		calls++
		cancel()
		return 0, NewTransientError(errors.New("temporary"), 503)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil should not be transient")
	}
	if !IsTransient(NewTransientError(errors.New("x"), 429)) {
		t.Error("TransientError should be transient")
	}
	if !IsTransient(errors.New("read tcp: connection reset by peer")) {
		t.Error("connection reset should be transient")
	}
	if !IsTransient(errors.New("api error: rate limit exceeded")) {
		t.Error("rate limit should be transient")
	}
	if IsTransient(errors.New("invalid api key")) {
		t.Error("auth failure should not be transient")
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("status %d should be transient", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("status %d should not be transient", code)
		}
	}
}

func TestBackoffCapped(t *testing.T) {
	p := withDefaults(Policy{InitialBackoff: time.Second, MaxBackoff: 4 * time.Second, Multiplier: 10, JitterFraction: 0})
	if d := backoff(5, p); d > 4*time.Second {
		t.Errorf("backoff %v exceeds cap", d)
	}
}
