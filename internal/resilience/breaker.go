package resilience

import (
	"sync"
	"time"

	"github.com/primeforge/codec-engine/pkg/models"
)

// breakerState is the circuit breaker's three-state machine.
type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// CircuitBreaker trips to OPEN after a run of consecutive failures, refuses
// calls while OPEN, and probes a single HALF_OPEN call after a cooldown to
// decide whether to close again. No library in the retrieval pack covers
// this concern (none of the example repos import sony/gobreaker or an
// equivalent), so it is hand-rolled on stdlib sync/time, same as the
// teacher hand-rolls its own per-IP bucket in internal/api/ratelimit.go.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	cooldown         time.Duration

	state       breakerState
	consecutive int
	openedAt    time.Time
}

// NewCircuitBreaker returns a breaker that opens after failureThreshold
// consecutive failures and stays open for cooldown before probing again.
func NewCircuitBreaker(failureThreshold int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		state:            stateClosed,
	}
}

// Allow reports whether a call may proceed, transitioning OPEN->HALF_OPEN
// once the cooldown has elapsed and letting that one probe call through;
// further calls are refused until the probe's outcome is recorded.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		if time.Since(b.openedAt) >= b.cooldown {
			b.state = stateHalfOpen
			return nil
		}
		return models.ErrCircuitOpen
	case stateHalfOpen:
		return models.ErrCircuitOpen
	default:
		return nil
	}
}

// RecordSuccess closes the breaker and resets the failure count.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = stateClosed
	b.consecutive = 0
}

// RecordFailure increments the consecutive-failure count, opening the
// breaker once it reaches the threshold (or immediately, if the failing
// call was itself the HALF_OPEN probe).
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateHalfOpen {
		b.trip()
		return
	}

	b.consecutive++
	if b.consecutive >= b.failureThreshold {
		b.trip()
	}
}

func (b *CircuitBreaker) trip() {
	b.state = stateOpen
	b.openedAt = time.Now()
	b.consecutive = 0
}

// State reports the breaker's current state as a string, for logging.
func (b *CircuitBreaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case stateOpen:
		return "OPEN"
	case stateHalfOpen:
		return "HALF_OPEN"
	default:
		return "CLOSED"
	}
}
