// Package registry implements the append-only, indexed table of primes
// shared read-mostly across the codec (spec.md §4.1). Construction mirrors
// the teacher's stateful, mutex-guarded collaborator pattern
// (internal/bitcoin.Client / internal/db.PostgresStore): a small struct
// with a constructor and every mutation serialized
// through a lock rather than relying on package-level globals.
package registry

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/primeforge/codec-engine/pkg/models"
)

var (
	two   = big.NewInt(2)
	three = big.NewInt(3)
	zero  = big.NewInt(0)
	one   = big.NewInt(1)
)

// Registry is the append-only indexed table of primes P0=2, P1=3, P2=5, ...
// Extension is idempotent and safe for concurrent readers; at most one
// extension runs at a time.
type Registry struct {
	mu     sync.RWMutex
	extMu  sync.Mutex
	primes []*big.Int
	index  map[string]int
}

// New returns a Registry pre-seeded with P0=2, satisfying invariant (c):
// indices are contiguous starting at 0.
func New() *Registry {
	r := &Registry{
		primes: make([]*big.Int, 0, 64),
		index:  make(map[string]int, 64),
	}
	r.append(new(big.Int).Set(two))
	return r
}

// append is only ever called while holding extMu (so a single writer at a
// time), or from New before the registry is shared; it takes mu for writing
// itself.
func (r *Registry) append(p *big.Int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index[p.String()] = len(r.primes)
	r.primes = append(r.primes, p)
}

// snapshotLen returns the current table length under a read lock.
func (r *Registry) snapshotLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.primes)
}

// IsPrime performs trial division up to isqrt(n). n<2 is false, n==2 is
// true, even n>2 is false; odd n>=3 is tested against odd divisors d with
// d*d <= n.
func (r *Registry) IsPrime(n *big.Int) bool {
	if n.Sign() <= 0 {
		return false
	}
	if n.Cmp(two) < 0 {
		return false
	}
	if n.Cmp(two) == 0 {
		return true
	}
	mod2 := new(big.Int).Mod(n, two)
	if mod2.Sign() == 0 {
		return false
	}

	limit, _ := r.IntegerSqrt(n)
	d := new(big.Int).Set(three)
	mod := new(big.Int)
	for d.Cmp(limit) <= 0 {
		mod.Mod(n, d)
		if mod.Sign() == 0 {
			return false
		}
		d.Add(d, two)
	}
	return true
}

// IntegerSqrt returns floor(sqrt(n)) via Newton iteration on big.Int,
// failing for n<0 per spec.md §4.1.
func (r *Registry) IntegerSqrt(n *big.Int) (*big.Int, error) {
	if n.Sign() < 0 {
		return nil, models.ErrNonPositive
	}
	if n.Sign() == 0 {
		return new(big.Int), nil
	}
	// Initial guess: 2^ceil(bitlen(n)/2), always >= the true root.
	bitLen := n.BitLen()
	guess := new(big.Int).Lsh(one, uint((bitLen+1)/2))

	x := guess
	for {
		// next = (x + n/x) / 2
		q := new(big.Int).Div(n, x)
		next := new(big.Int).Add(x, q)
		next.Div(next, two)
		if next.Cmp(x) >= 0 {
			break
		}
		x = next
	}
	// Correct for Newton overshoot/undershoot by at most one ULP.
	for {
		sq := new(big.Int).Mul(x, x)
		if sq.Cmp(n) > 0 {
			x.Sub(x, one)
			continue
		}
		next := new(big.Int).Add(x, one)
		nextSq := new(big.Int).Mul(next, next)
		if nextSq.Cmp(n) <= 0 {
			x = next
			continue
		}
		return x, nil
	}
}

// GetPrime returns P[index], extending the table as needed.
func (r *Registry) GetPrime(index uint32) (*big.Int, error) {
	if err := r.ExtendTo(index); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return new(big.Int).Set(r.primes[index]), nil
}

// GetIndex returns the index of p, optionally inserting it first if p is
// prime and not yet known. It fails with NotInRegistryError otherwise.
func (r *Registry) GetIndex(p *big.Int, insertIfPrime bool) (uint32, error) {
	key := p.String()
	r.mu.RLock()
	idx, ok := r.index[key]
	r.mu.RUnlock()
	if ok {
		return uint32(idx), nil
	}
	if insertIfPrime && r.IsPrime(p) {
		r.extMu.Lock()
		defer r.extMu.Unlock()
		// Re-check under the writer lock: another goroutine may have
		// extended the table (and thus inserted p) while we waited.
		r.mu.RLock()
		idx, ok = r.index[key]
		r.mu.RUnlock()
		if ok {
			return uint32(idx), nil
		}
		// Sieve upward in order until p itself is appended, so p lands at
		// its own index and the table stays ascending and contiguous.
		r.mu.RLock()
		candidate := new(big.Int).Set(r.primes[len(r.primes)-1])
		r.mu.RUnlock()
		if candidate.Cmp(two) == 0 {
			candidate.Set(one)
		}
		for candidate.Cmp(p) < 0 {
			candidate.Add(candidate, two)
			if r.IsPrime(candidate) {
				r.append(new(big.Int).Set(candidate))
			}
		}
		return uint32(r.snapshotLen() - 1), nil
	}
	return 0, &models.NotInRegistryError{Value: new(big.Int).Set(p)}
}

// ExtendTo guarantees the table has indices 0..i, sieving upward from the
// current largest prime. Idempotent: a no-op if the table is already long
// enough.
func (r *Registry) ExtendTo(i uint32) error {
	if int(i) < r.snapshotLen() {
		return nil
	}

	r.extMu.Lock()
	defer r.extMu.Unlock()

	// Another goroutine may have finished extending while we waited for
	// extMu; re-check before doing any work.
	if int(i) < r.snapshotLen() {
		return nil
	}

	r.mu.RLock()
	candidate := new(big.Int).Set(r.primes[len(r.primes)-1])
	r.mu.RUnlock()
	if candidate.Cmp(two) == 0 {
		// Step from 1 so the first odd candidate tried after P0=2 is 3.
		candidate.Set(one)
	}

	for r.snapshotLen() <= int(i) {
		candidate.Add(candidate, two)
		if r.IsPrime(candidate) {
			r.append(new(big.Int).Set(candidate))
		}
	}
	return nil
}

// Factor trial-divides n by registry primes in order, extending the table
// as needed, until the quotient is 1 or the smallest untried prime exceeds
// isqrt(remaining); any residual remaining > 1 is appended with exponent 1.
func (r *Registry) Factor(n *big.Int) (models.Factorization, error) {
	if n.Sign() <= 0 {
		return nil, models.ErrNonPositive
	}
	if n.Cmp(one) == 0 {
		return models.Factorization{}, nil
	}

	remaining := new(big.Int).Set(n)
	var factors models.Factorization

	var idx uint32
	for remaining.Cmp(one) != 0 {
		p, err := r.GetPrime(idx)
		if err != nil {
			return nil, err
		}

		limit, err := r.IntegerSqrt(remaining)
		if err != nil {
			return nil, err
		}
		if p.Cmp(limit) > 0 {
			// No small prime can divide remaining any further; it is
			// itself prime (or 1, already handled by the loop guard).
			factors = append(factors, models.Factor{Prime: new(big.Int).Set(remaining), Exponent: 1})
			break
		}

		var exp uint32
		q, m := new(big.Int), new(big.Int)
		for {
			q.DivMod(remaining, p, m)
			if m.Sign() != 0 {
				break
			}
			remaining.Set(q)
			exp++
		}
		if exp > 0 {
			factors = append(factors, models.Factor{Prime: new(big.Int).Set(p), Exponent: exp})
		}
		idx++
	}

	return factors, nil
}

// Signature renders a factorization as "p1^e1,p2^e2,..." — the signature
// string the checksum cache keys on.
func Signature(f models.Factorization) string {
	s := ""
	for i, fac := range f {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%s^%d", fac.Prime.String(), fac.Exponent)
	}
	return s
}
