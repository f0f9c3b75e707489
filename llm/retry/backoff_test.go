package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func fastPolicy() *Policy {
	return &Policy{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestBackoffRetryer_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	r := NewBackoffRetryer(fastPolicy(), zap.NewNop())
	attempts := 0
	err := r.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestBackoffRetryer_ReturnsLastErrorOnExhaustion(t *testing.T) {
	t.Parallel()

	r := NewBackoffRetryer(fastPolicy(), zap.NewNop())
	last := errors.New("attempt 4")
	attempts := 0
	err := r.Do(context.Background(), func() error {
		attempts++
		if attempts == 4 {
			return last
		}
		return errors.New("earlier failure")
	})
	if attempts != 4 {
		t.Fatalf("expected 4 attempts, got %d", attempts)
	}
	if !errors.Is(err, last) {
		t.Fatalf("expected last observed error, got %v", err)
	}
}

func TestBackoffRetryer_NonRetryableStopsImmediately(t *testing.T) {
	t.Parallel()

	fatal := errors.New("fatal")
	policy := fastPolicy()
	policy.Classify = func(err error) bool { return !errors.Is(err, fatal) }

	r := NewBackoffRetryer(policy, zap.NewNop())
	attempts := 0
	err := r.Do(context.Background(), func() error {
		attempts++
		return fatal
	})
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
}

func TestBackoffRetryer_HonorsCancellation(t *testing.T) {
	t.Parallel()

	policy := fastPolicy()
	policy.InitialDelay = time.Minute

	r := NewBackoffRetryer(policy, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- r.Do(ctx, func() error { return errors.New("always fails") })
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retryer did not honor cancellation")
	}
}
