package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/primeforge/codec-engine/pkg/models"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), time.Second, func() error {
		attempts++
		if attempts < 3 {
			return &models.TransientError{Err: errors.New("temporary glitch")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestRetryDoesNotRetryPermanentErrors(t *testing.T) {
	attempts := 0
	permanent := errors.New("not retryable")
	err := Retry(context.Background(), time.Second, func() error {
		attempts++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error to surface unwrapped-ish, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1 (no retry for non-transient errors)", attempts)
	}
}

func TestRetryableClassification(t *testing.T) {
	if Retryable(errors.New("plain")) {
		t.Fatal("plain errors must not be retryable")
	}
	if !Retryable(&models.TransientError{Err: errors.New("x")}) {
		t.Fatal("TransientError must be retryable")
	}
}
