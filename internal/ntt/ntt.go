// Package ntt implements the optional Number-Theoretic Transform component
// (spec.md §4.5): a forward/inverse transform over Z/MZ keyed by an
// NTT_HEADER chunk's (modulus, primitiveRoot) pair, with a round-trip
// verifier. The forward transform's backend seam (forwardImpl) mirrors the
// teacher's build-tag fallback idiom (internal/cuda's CalculateAnonSetHardware):
// ntt_hw.go holds the portable implementation used when the nttgpu tag is
// absent, and ntt_gpu.go is the nttgpu-tagged seam, which currently runs the
// same portable transform.
package ntt

import (
	"math/big"

	"github.com/primeforge/codec-engine/pkg/models"
)

// Transform evaluates forward/inverse NTTs over a fixed modulus and
// primitive root, as named by an NTT_HEADER chunk.
type Transform struct {
	enabled bool
	modulus *big.Int
	root    *big.Int
}

// New returns a Transform over the given modulus and primitive root.
// enabled controls whether Forward/Inverse/VerifyRoundTrip are usable at
// all, letting a caller configure the NTT component off entirely per
// spec.md's ErrNTTDisabled behavior.
func New(modulus, primitiveRoot uint64, enabled bool) *Transform {
	return &Transform{
		enabled: enabled,
		modulus: new(big.Int).SetUint64(modulus),
		root:    new(big.Int).SetUint64(primitiveRoot),
	}
}

func (t *Transform) checkDomain(values []*big.Int) error {
	n := big.NewInt(int64(len(values)))
	mMinus1 := new(big.Int).Sub(t.modulus, big.NewInt(1))
	if len(values) == 0 {
		return &models.NTTDomainError{Reason: "input vector must be non-empty"}
	}
	if new(big.Int).Mod(mMinus1, n).Sign() != 0 {
		return &models.NTTDomainError{Reason: "input length does not divide modulus-1"}
	}
	for _, v := range values {
		if v.Sign() < 0 || v.Cmp(t.modulus) >= 0 {
			return &models.NTTDomainError{Reason: "entry outside [0, modulus)"}
		}
	}
	return nil
}

// principalRoot returns the principal n-th root of unity: root^((M-1)/n) mod M.
func (t *Transform) principalRoot(n int) *big.Int {
	mMinus1 := new(big.Int).Sub(t.modulus, big.NewInt(1))
	exp := new(big.Int).Div(mMinus1, big.NewInt(int64(n)))
	return new(big.Int).Exp(t.root, exp, t.modulus)
}

func (t *Transform) transform(values []*big.Int, root *big.Int) []*big.Int {
	n := len(values)
	out := make([]*big.Int, n)
	for k := 0; k < n; k++ {
		sum := big.NewInt(0)
		wk := new(big.Int).Exp(root, big.NewInt(int64(k)), t.modulus)
		wkj := big.NewInt(1)
		for j := 0; j < n; j++ {
			term := new(big.Int).Mul(values[j], wkj)
			term.Mod(term, t.modulus)
			sum.Add(sum, term)
			sum.Mod(sum, t.modulus)
			wkj.Mul(wkj, wk)
			wkj.Mod(wkj, t.modulus)
		}
		out[k] = sum
	}
	return out
}

// Forward computes the length-n NTT of values using the principal n-th root
// derived from the configured primitive root.
func (t *Transform) Forward(values []*big.Int) ([]*big.Int, error) {
	if !t.enabled {
		return nil, models.ErrNTTDisabled
	}
	if err := t.checkDomain(values); err != nil {
		return nil, err
	}
	return forwardImpl(t, values), nil
}

// Inverse computes the inverse NTT: the forward transform with the
// reciprocal root, scaled by n^-1 mod M.
func (t *Transform) Inverse(values []*big.Int) ([]*big.Int, error) {
	if !t.enabled {
		return nil, models.ErrNTTDisabled
	}
	if err := t.checkDomain(values); err != nil {
		return nil, err
	}
	n := len(values)
	root := t.principalRoot(n)
	invRoot := new(big.Int).ModInverse(root, t.modulus)
	if invRoot == nil {
		return nil, &models.NTTDomainError{Reason: "principal root has no inverse mod modulus"}
	}
	raw := t.transform(values, invRoot)

	nInv := new(big.Int).ModInverse(big.NewInt(int64(n)), t.modulus)
	if nInv == nil {
		return nil, &models.NTTDomainError{Reason: "transform length has no inverse mod modulus"}
	}
	out := make([]*big.Int, n)
	for i, v := range raw {
		out[i] = new(big.Int).Mul(v, nInv)
		out[i].Mod(out[i], t.modulus)
	}
	return out, nil
}

// VerifyRoundTrip confirms Inverse(Forward(values)) reconstructs values
// exactly, per spec.md's P6 testable property.
func (t *Transform) VerifyRoundTrip(values []*big.Int) (bool, error) {
	fwd, err := t.Forward(values)
	if err != nil {
		return false, err
	}
	inv, err := t.Inverse(fwd)
	if err != nil {
		return false, err
	}
	if len(inv) != len(values) {
		return false, nil
	}
	for i := range values {
		if inv[i].Cmp(values[i]) != 0 {
			return false, nil
		}
	}
	return true, nil
}
