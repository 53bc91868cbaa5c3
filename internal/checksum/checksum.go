// Package checksum implements the integrity layer: deriving a checksum
// prime from a value's core factors, attaching it at a high exponent, and
// extracting/verifying it back out (spec.md §4.2). Derived checksums are
// memoized in an LRU keyed on the core's factor signature, grounded on the
// pack's use of github.com/hashicorp/golang-lru/v2 for generic, bounded,
// hit/miss-instrumented caches.
package checksum

import (
	"hash/fnv"
	"math/big"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/primeforge/codec-engine/internal/registry"
	"github.com/primeforge/codec-engine/pkg/models"
)

// DefaultK is the minimum exponent a factor must carry to be recognized as
// the checksum term, per spec.md's choice of k=6 (comfortably above the
// exponents core data factors are expected to reach).
const DefaultK = 6

const defaultCacheSize = 4096

// Layer derives, attaches, and verifies checksum primes against a shared
// Registry. It is safe for concurrent use.
type Layer struct {
	reg *registry.Registry
	k   uint32

	cache    *lru.Cache[string, string]
	hits     atomic.Uint64
	misses   atomic.Uint64
}

// New returns a Layer with the default checksum power and cache size.
func New(reg *registry.Registry) *Layer {
	l, err := NewWithOptions(reg, DefaultK, defaultCacheSize)
	if err != nil {
		// DefaultK and defaultCacheSize are both known-valid constants;
		// NewWithOptions only fails on caller-supplied misconfiguration.
		panic(err)
	}
	return l
}

// NewWithOptions returns a Layer with an explicit checksum power k and
// cache size. k must be >= 3: the encoding layer spreads every payload
// field across digit slots in base k-1, storing each digit as exponent
// digit+1 (spec.md §4.3(b)); k < 3 would leave a base < 2, too narrow to
// encode a digit at all.
func NewWithOptions(reg *registry.Registry, k uint32, cacheSize int) (*Layer, error) {
	if k < 3 {
		return nil, &models.ConfigurationError{Reason: "checksum power k must be >= 3"}
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	c, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, &models.ConfigurationError{Reason: err.Error()}
	}
	return &Layer{reg: reg, k: k, cache: c}, nil
}

// CacheStats reports cumulative cache hits and misses across Derive calls.
func (l *Layer) CacheStats() (hits, misses uint64) {
	return l.hits.Load(), l.misses.Load()
}

// K returns the checksum power this layer was constructed with: the
// exponent Attach stamps the checksum term at, and the minimum exponent
// Extract requires of a candidate checksum factor.
func (l *Layer) K() uint32 { return l.k }

// XorHashState is the incremental fold state behind xorSum and
// BatchChecksum: a running XOR of per-term FNV-1a hashes (spec.md §4.2/§6's
// createXorHash/updateXorHash/finalizeXorHash). XOR is commutative, so the
// fold order of the terms folded into it never affects the result.
type XorHashState struct {
	h uint64
}

// CreateXorHash returns a fresh XorHashState seeded with the FNV-1a offset
// basis.
func CreateXorHash() XorHashState {
	return XorHashState{h: fnvOffset()}
}

func fnvOffset() uint64 {
	h := fnv.New64a()
	return h.Sum64()
}

// UpdateXorHash folds one (prime, exponent) factor into state and returns
// the updated value.
func UpdateXorHash(state XorHashState, fac models.Factor) XorHashState {
	h := fnv.New64a()
	h.Write(fac.Prime.Bytes())
	var expBytes [4]byte
	expBytes[0] = byte(fac.Exponent)
	expBytes[1] = byte(fac.Exponent >> 8)
	expBytes[2] = byte(fac.Exponent >> 16)
	expBytes[3] = byte(fac.Exponent >> 24)
	h.Write(expBytes[:])
	state.h ^= h.Sum64()
	return state
}

// FinalizeXorHash returns the digest folded into state so far.
func FinalizeXorHash(state XorHashState) uint64 {
	return state.h
}

// xorSum folds every factor of core through the incremental XorHash API and
// returns the resulting digest.
func xorSum(core models.Factorization) uint64 {
	s := CreateXorHash()
	for _, fac := range core {
		s = UpdateXorHash(s, fac)
	}
	return FinalizeXorHash(s)
}

// Derive computes the checksum prime for core: P[xorSum(core) mod 65536],
// memoized by the core's factor signature.
func (l *Layer) Derive(core models.Factorization) (*big.Int, error) {
	sig := registry.Signature(core)
	if cached, ok := l.cache.Get(sig); ok {
		l.hits.Add(1)
		p, ok := new(big.Int).SetString(cached, 10)
		if !ok {
			return nil, &models.EncodingError{Reason: "corrupt checksum cache entry"}
		}
		return p, nil
	}
	l.misses.Add(1)

	h := xorSum(core)
	index := uint32(h % 65536)
	p, err := l.reg.GetPrime(index)
	if err != nil {
		return nil, err
	}
	l.cache.Add(sig, p.String())
	return p, nil
}

// Attach appends the checksum prime to core at exponent k, returning the
// full factorization that would be encoded.
func (l *Layer) Attach(core models.Factorization) (models.Factorization, error) {
	checksumPrime, err := l.Derive(core)
	if err != nil {
		return nil, err
	}
	full := core.Clone()
	full = append(full, models.Factor{Prime: new(big.Int).Set(checksumPrime), Exponent: l.k})
	return full, nil
}

// Extract splits full into (core, checksumPrime) by finding the factor with
// the highest exponent at or above k and treating it as the checksum term.
// It fails with NoChecksumError if no factor qualifies.
func (l *Layer) Extract(full models.Factorization) (core models.Factorization, checksumPrime *big.Int, err error) {
	best := -1
	for i, fac := range full {
		if fac.Exponent < l.k {
			continue
		}
		if best == -1 || fac.Exponent > full[best].Exponent {
			best = i
		}
	}
	if best == -1 {
		return nil, nil, &models.NoChecksumError{Value: full.Reconstruct(), K: l.k}
	}

	checksumPrime = new(big.Int).Set(full[best].Prime)
	core = make(models.Factorization, 0, len(full)-1)
	for i, fac := range full {
		if i == best {
			continue
		}
		core = append(core, models.Factor{Prime: new(big.Int).Set(fac.Prime), Exponent: fac.Exponent})
	}
	return core, checksumPrime, nil
}

// Verify extracts the checksum from full and confirms it matches the
// checksum Derive would compute from the remaining core factors.
func (l *Layer) Verify(full models.Factorization) (core models.Factorization, valid bool, err error) {
	core, actual, err := l.Extract(full)
	if err != nil {
		return nil, false, err
	}
	expected, err := l.Derive(core)
	if err != nil {
		return nil, false, err
	}
	if expected.Cmp(actual) != 0 {
		return core, false, &models.ChecksumMismatchError{Expected: expected, Actual: actual}
	}
	return core, true, nil
}

// batchExtractFailureSentinel replaces a batch member's checksum term in
// the aggregate fold when that member's Extract fails, so one unreadable
// value changes the digest (and the scan notices) instead of aborting
// verification of every member after it.
const batchExtractFailureSentinel uint64 = 0xbaadf00ddeadbeef

// BatchChecksum folds the checksum primes of an ordered batch of
// factorizations into one aggregate digest prime, letting a stream consumer
// verify a whole batch with a single comparison (spec.md §5's batch
// verification optimization, §4.2's `registry.getPrime(batchXor)`). Each
// member also contributes a distinctness term derived from its own encoded
// value, so two batches with the same checksum primes but different
// payloads still fold to different digests. A member whose checksum cannot
// be extracted does not abort the batch: batchExtractFailureSentinel is
// folded in for it and the scan continues.
func (l *Layer) BatchChecksum(fulls []models.Factorization) (*big.Int, error) {
	agg := CreateXorHash()
	for _, full := range fulls {
		distinct := new(big.Int).Mod(full.Reconstruct(), big.NewInt(0xFFFF)).Uint64() ^ 0xAAAA
		agg.h ^= distinct

		_, checksumPrime, err := l.Extract(full)
		if err != nil {
			agg.h ^= batchExtractFailureSentinel
			continue
		}
		agg = UpdateXorHash(agg, models.Factor{Prime: checksumPrime, Exponent: l.k})
	}

	index := uint32(FinalizeXorHash(agg) % 65536)
	return l.reg.GetPrime(index)
}
