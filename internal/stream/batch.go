package stream

import (
	"math/big"

	"github.com/primeforge/codec-engine/internal/checksum"
	"github.com/primeforge/codec-engine/pkg/models"
)

// BatchResult is the outcome of verifying one batch of decoded chunks: the
// per-member validity bits plus the fused overall verdict.
type BatchResult struct {
	Valid           bool
	AggregateDigest *big.Int
	Members         []bool
	FirstFailure    int // -1 if none
}

// BatchVerifier groups per-chunk checksum outcomes the way the teacher's
// factor-graph evidence fusion groups edges by DependencyGroup: the fused
// verdict is the conservative AND of its members, not a sum, so one bad
// chunk cannot be outvoted by many good ones.
type BatchVerifier struct {
	chk      *checksum.Layer
	failFast bool
}

// NewBatchVerifier returns a verifier over chk. When failFast is true,
// Verify stops at the first invalid member instead of scoring the whole
// batch, mirroring the teacher's fail-closed shadow-evaluation split.
func NewBatchVerifier(chk *checksum.Layer, failFast bool) *BatchVerifier {
	return &BatchVerifier{chk: chk, failFast: failFast}
}

// Verify checks every full factorization in a batch, fusing the per-member
// results with AND.
func (v *BatchVerifier) Verify(fulls []models.Factorization) (BatchResult, error) {
	result := BatchResult{Valid: true, FirstFailure: -1, Members: make([]bool, len(fulls))}

	for i, full := range fulls {
		_, valid, err := v.chk.Verify(full)
		if err != nil {
			if _, ok := err.(*models.ChecksumMismatchError); !ok {
				return result, &models.ChunkIndexError{ChunkIndex: i, Stage: "batch-verify", Err: err}
			}
		}
		result.Members[i] = valid
		if !valid {
			result.Valid = false
			if result.FirstFailure == -1 {
				result.FirstFailure = i
			}
			if v.failFast {
				break
			}
		}
	}

	digest, err := v.chk.BatchChecksum(fulls)
	if err == nil {
		result.AggregateDigest = digest
	}
	return result, nil
}
