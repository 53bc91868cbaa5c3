package stream

import (
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

// BufferConfig is the tuning decision an Optimizer hands back to the
// Adapter/Backpressure pair: the chunk size to batch items into and the
// concurrency to run the adapter at.
type BufferConfig struct {
	ChunkSize   int
	Concurrency int64
}

const defaultWindowSize = 256

// Optimizer keeps a rolling window of recent per-item latencies and
// recommends a BufferConfig from their distribution, grounded on the
// teacher's shadow-runner A/B comparison loop (internal/shadow) reworked
// from "compare two heuristic implementations" into "compare two tuning
// strategies" — see compare.go. Percentile/mean math is
// github.com/montanaflynn/stats, present elsewhere in the retrieval pack.
type Optimizer struct {
	mu         sync.Mutex
	window     []float64 // milliseconds
	windowSize int

	baseChunkSize   int
	baseConcurrency int64
}

// NewOptimizer returns an Optimizer seeded with baseline chunk size and
// concurrency, used until enough samples accumulate to adjust them.
func NewOptimizer(baseChunkSize int, baseConcurrency int64) *Optimizer {
	return &Optimizer{
		windowSize:      defaultWindowSize,
		baseChunkSize:   baseChunkSize,
		baseConcurrency: baseConcurrency,
	}
}

// Observe records one item's processing latency.
func (o *Optimizer) Observe(d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.window = append(o.window, float64(d.Microseconds())/1000.0)
	if len(o.window) > o.windowSize {
		o.window = o.window[len(o.window)-o.windowSize:]
	}
}

// Recommend returns a BufferConfig derived from the rolling window's p95
// latency: a high p95 relative to the mean (high variance) favors smaller
// chunks and lower concurrency to reduce tail risk; a low, stable p95
// favors larger chunks and higher concurrency to raise throughput.
func (o *Optimizer) Recommend() (BufferConfig, error) {
	o.mu.Lock()
	sample := make([]float64, len(o.window))
	copy(sample, o.window)
	base := BufferConfig{ChunkSize: o.baseChunkSize, Concurrency: o.baseConcurrency}
	o.mu.Unlock()

	if len(sample) < 8 {
		return base, nil
	}

	mean, err := stats.Mean(sample)
	if err != nil {
		return base, err
	}
	p95, err := stats.Percentile(sample, 95)
	if err != nil {
		return base, err
	}

	if mean == 0 {
		return base, nil
	}
	variance := p95 / mean

	cfg := base
	switch {
	case variance > 3.0:
		cfg.ChunkSize = maxInt(base.ChunkSize/2, 1)
		cfg.Concurrency = maxInt64(base.Concurrency/2, 1)
	case variance < 1.5:
		cfg.ChunkSize = base.ChunkSize * 2
		cfg.Concurrency = base.Concurrency * 2
	}
	return cfg, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
