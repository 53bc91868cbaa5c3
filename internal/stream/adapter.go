package stream

import (
	"context"
	"math/big"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/primeforge/codec-engine/internal/encoding"
	"github.com/primeforge/codec-engine/pkg/models"
)

// ItemResult is the per-chunk outcome an Adapter produces: the decode
// result (or error) plus the time it took, feeding both BatchVerifier and
// the Performance Optimizer's rolling metrics window.
type ItemResult struct {
	Index   int
	Decoded models.DecodedChunk
	Err     error
	Elapsed time.Duration
}

// Adapter drives a sequence of encoded integers through an
// encoding.Codec's DecodeChunk with bounded concurrency, grounded on the
// teacher's ticker-driven poller loop reworked from a time-based producer
// into a concurrency-bounded consumer.
type Adapter struct {
	codec       *encoding.Codec
	concurrency int64
}

// NewAdapter returns an Adapter decoding with up to concurrency chunks
// in flight at once.
func NewAdapter(codec *encoding.Codec, concurrency int64) *Adapter {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Adapter{codec: codec, concurrency: concurrency}
}

// DecodeAll decodes every value in values, preserving order in the
// returned slice regardless of completion order, stopping early if ctx is
// cancelled.
func (a *Adapter) DecodeAll(ctx context.Context, values []*big.Int) ([]ItemResult, error) {
	results := make([]ItemResult, len(values))
	sem := semaphore.NewWeighted(a.concurrency)
	g, gctx := errgroup.WithContext(ctx)

	for i, v := range values {
		i, v := i, v
		if err := sem.Acquire(gctx, 1); err != nil {
			return results, models.ErrCancelled
		}
		g.Go(func() error {
			defer sem.Release(1)
			start := time.Now()
			decoded, err := a.codec.DecodeChunk(v)
			results[i] = ItemResult{Index: i, Decoded: decoded, Err: err, Elapsed: time.Since(start)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
