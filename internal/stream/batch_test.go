package stream

import (
	"math/big"
	"testing"

	"github.com/primeforge/codec-engine/internal/checksum"
	"github.com/primeforge/codec-engine/internal/registry"
	"github.com/primeforge/codec-engine/pkg/models"
)

func newTestBatchChecksum(t *testing.T) (*registry.Registry, *checksum.Layer) {
	t.Helper()
	reg := registry.New()
	chk := checksum.New(reg)
	return reg, chk
}

func sealedCore(t *testing.T, reg *registry.Registry, chk *checksum.Layer, n int64) models.Factorization {
	t.Helper()
	core, err := reg.Factor(big.NewInt(n))
	if err != nil {
		t.Fatalf("Factor(%d): %v", n, err)
	}
	full, err := chk.Attach(core)
	if err != nil {
		t.Fatalf("Attach(%d): %v", n, err)
	}
	return full
}

func TestBatchVerifyAllValid(t *testing.T) {
	reg, chk := newTestBatchChecksum(t)
	fulls := []models.Factorization{
		sealedCore(t, reg, chk, 10),
		sealedCore(t, reg, chk, 20),
		sealedCore(t, reg, chk, 30),
	}

	v := NewBatchVerifier(chk, false)
	result, err := v.Verify(fulls)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !result.Valid {
		t.Fatal("expected batch to be valid")
	}
	if result.FirstFailure != -1 {
		t.Fatalf("FirstFailure = %d, want -1", result.FirstFailure)
	}
	for i, ok := range result.Members {
		if !ok {
			t.Fatalf("Members[%d] = false, want true", i)
		}
	}
}

func TestBatchVerifyDetectsTamperedMember(t *testing.T) {
	reg, chk := newTestBatchChecksum(t)
	good := sealedCore(t, reg, chk, 10)
	tampered := sealedCore(t, reg, chk, 20).Clone()
	tampered[0].Exponent++ // corrupt the core after sealing

	v := NewBatchVerifier(chk, false)
	result, err := v.Verify([]models.Factorization{good, tampered})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Valid {
		t.Fatal("expected batch to be invalid")
	}
	if result.FirstFailure != 1 {
		t.Fatalf("FirstFailure = %d, want 1", result.FirstFailure)
	}
	if result.Members[0] != true || result.Members[1] != false {
		t.Fatalf("Members = %v", result.Members)
	}
}

func TestBatchVerifyFailFastStopsEarly(t *testing.T) {
	reg, chk := newTestBatchChecksum(t)
	tampered := sealedCore(t, reg, chk, 10).Clone()
	tampered[0].Exponent++
	good := sealedCore(t, reg, chk, 20)

	v := NewBatchVerifier(chk, true)
	result, err := v.Verify([]models.Factorization{tampered, good})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Members[1] {
		t.Fatal("expected failFast to stop before scoring the second member")
	}
}
