package ntt

import (
	"math/big"
	"testing"

	"github.com/primeforge/codec-engine/pkg/models"
)

// 17 is prime, 17-1=16=2^4, and 3 is a primitive root mod 17.
func newTestTransform() *Transform {
	return New(17, 3, true)
}

func bigSlice(vals ...int64) []*big.Int {
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		out[i] = big.NewInt(v)
	}
	return out
}

func TestForwardInverseRoundTrip(t *testing.T) {
	tr := newTestTransform()
	values := bigSlice(1, 2, 3, 4)

	ok, err := tr.VerifyRoundTrip(values)
	if err != nil {
		t.Fatalf("VerifyRoundTrip: %v", err)
	}
	if !ok {
		t.Fatal("round trip did not reconstruct the original vector")
	}
}

func TestDisabledTransformReturnsErrNTTDisabled(t *testing.T) {
	tr := New(17, 3, false)
	if _, err := tr.Forward(bigSlice(1, 2)); err != models.ErrNTTDisabled {
		t.Fatalf("expected ErrNTTDisabled, got %v", err)
	}
}

func TestDomainErrorOnBadLength(t *testing.T) {
	tr := newTestTransform()
	// length 3 does not divide 16
	_, err := tr.Forward(bigSlice(1, 2, 3))
	if _, ok := err.(*models.NTTDomainError); !ok {
		t.Fatalf("expected NTTDomainError, got %v", err)
	}
}

func TestDomainErrorOnOutOfRangeEntry(t *testing.T) {
	tr := newTestTransform()
	_, err := tr.Forward(bigSlice(1, 2, 17, 4))
	if _, ok := err.(*models.NTTDomainError); !ok {
		t.Fatalf("expected NTTDomainError, got %v", err)
	}
}

func TestDomainErrorOnEmptyInput(t *testing.T) {
	tr := newTestTransform()
	if _, err := tr.Forward(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}
