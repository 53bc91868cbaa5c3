package stream

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/primeforge/codec-engine/internal/persist"
)

// CompareFunc runs one strategy and reports the observed mean latency
// (milliseconds) and error count over a fixed workload, letting Comparator
// stay agnostic about what's being compared (two optimizer configs, two
// checksum derivation paths, anything with a measurable cost).
type CompareFunc func(ctx context.Context) (meanLatencyMs float64, errCount int, err error)

// CompareResult captures the diff between a production and an experimental
// strategy run, mirroring the teacher's ShadowResult.
type CompareResult struct {
	RunID             uuid.UUID
	ProductionLatency float64
	ShadowLatency     float64
	DeltaLatency      float64
	ProductionErrors  int
	ShadowErrors      int
	CreatedAt         time.Time
}

// Comparator runs a production and an experimental strategy side by side
// and records their divergence, grounded on the teacher's
// internal/shadow.ShadowRunner — same "run both, diff the outcome, persist
// unless store is nil" shape, generalized from a single Transaction-typed
// comparison to an arbitrary CompareFunc pair.
type Comparator struct {
	store      *persist.Store
	production CompareFunc
	shadow     CompareFunc
}

// NewComparator returns a Comparator over the given strategies. store may
// be nil, in which case results are only logged, never persisted.
func NewComparator(store *persist.Store, production, shadow CompareFunc) *Comparator {
	return &Comparator{store: store, production: production, shadow: shadow}
}

// Run executes both strategies and returns their comparison. A large
// divergence is logged the way the teacher logs shadow/production
// heuristic flag divergence.
func (c *Comparator) Run(ctx context.Context) (*CompareResult, error) {
	prodLatency, prodErrs, err := c.production(ctx)
	if err != nil {
		return nil, err
	}
	shadowLatency, shadowErrs, err := c.shadow(ctx)
	if err != nil {
		return nil, err
	}

	result := &CompareResult{
		RunID:             uuid.New(),
		ProductionLatency: prodLatency,
		ShadowLatency:     shadowLatency,
		DeltaLatency:      shadowLatency - prodLatency,
		ProductionErrors:  prodErrs,
		ShadowErrors:      shadowErrs,
		CreatedAt:         time.Now(),
	}

	if prodLatency > 0 && (result.DeltaLatency/prodLatency) > 0.25 {
		log.Printf("[Stream] strategy divergence run=%s: prod=%.3fms shadow=%.3fms delta=%.3fms",
			result.RunID, prodLatency, shadowLatency, result.DeltaLatency)
	}

	if c.store != nil {
		if err := c.store.SaveComparatorRun(ctx, result.RunID, prodLatency, shadowLatency, result.DeltaLatency, prodErrs, shadowErrs); err != nil {
			log.Printf("[Stream] failed to persist comparator run %s: %v", result.RunID, err)
		}
	}

	return result, nil
}
