// Package resilience provides the cross-cutting fault-tolerance primitives
// the stream orchestrator composes around the codec (spec.md §5.4): a token
// bucket rate limiter, a circuit breaker, and backoff-based retry. None of
// internal/registry, internal/checksum, internal/encoding, internal/vm, or
// internal/ntt import this package — the codec itself stays pure; only the
// orchestrator layer is resilient.
//
// The teacher's own rate limiter (internal/api/ratelimit.go) was a
// hand-rolled per-IP token bucket built on stdlib time.Ticker. The rest of
// the retrieval pack carries golang.org/x/time/rate as a real dependency
// for the same concern (see the luxfi-consensus and ethereum-go-ethereum
// manifests), so this layer adopts that library instead of re-deriving the
// teacher's bespoke bucket.
package resilience

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/primeforge/codec-engine/pkg/models"
)

// RateLimiter wraps golang.org/x/time/rate.Limiter with the codec's error
// vocabulary.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter returns a limiter permitting ratePerSecond sustained
// events with a burst of burst.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Allow reports whether an event may proceed right now, consuming a token
// if so, without blocking.
func (r *RateLimiter) Allow() error {
	if !r.limiter.Allow() {
		return models.ErrRateLimitExceeded
	}
	return nil
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return models.ErrCancelled
		}
		return err
	}
	return nil
}
