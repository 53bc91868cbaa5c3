// Package models holds the data types shared across the codec engine:
// factorizations, chunk kinds, decoded chunks, and the typed errors every
// layer reports through. No package under internal/ owns these — they are
// the common ground every collaborator factors and classifies against.
package models

import "math/big"

// Factor is one (prime, exponent) term of a factorization.
type Factor struct {
	Prime    *big.Int
	Exponent uint32
}

// Factorization is an ordered list of Factors with strictly increasing
// primes and no duplicates. An empty Factorization denotes the value 1.
type Factorization []Factor

// Clone returns a deep copy so callers can mutate exponents without
// aliasing the original slice's *big.Int pointers.
func (f Factorization) Clone() Factorization {
	out := make(Factorization, len(f))
	for i, fac := range f {
		out[i] = Factor{Prime: new(big.Int).Set(fac.Prime), Exponent: fac.Exponent}
	}
	return out
}

// Reconstruct returns ∏ p^e for the factorization, i.e. the integer it encodes.
func (f Factorization) Reconstruct() *big.Int {
	result := big.NewInt(1)
	term := new(big.Int)
	for _, fac := range f {
		term.Exp(fac.Prime, big.NewInt(int64(fac.Exponent)), nil)
		result.Mul(result, term)
	}
	return result
}

// ChunkKind discriminates the four chunk variants the encoding layer
// understands.
type ChunkKind int

const (
	// KindUnknown is never produced by a successful decode; it marks a
	// value whose factor pattern matched no known chunk signature.
	KindUnknown ChunkKind = iota
	KindData
	KindOperation
	KindBlockHeader
	KindNTTHeader
)

func (k ChunkKind) String() string {
	switch k {
	case KindData:
		return "DATA"
	case KindOperation:
		return "OPERATION"
	case KindBlockHeader:
		return "BLOCK_HEADER"
	case KindNTTHeader:
		return "NTT_HEADER"
	default:
		return "UNKNOWN"
	}
}

// Chunk is the discriminated union of §3's chunk types. Exactly the fields
// relevant to Kind are meaningful; the rest are zero.
type Chunk struct {
	Kind ChunkKind

	// DATA
	Position uint32
	Value    uint16

	// OPERATION
	Opcode  uint8
	Operand uint32
	HasOperand bool

	// BLOCK_HEADER / NTT_HEADER
	BlockType    uint8
	BlockLength  uint32
	Modulus      uint64
	PrimitiveRoot uint64
}

// DecodedChunk is the result of decoding an encoded integer: the classified
// chunk plus the checksum-verification outcome that was required to trust it.
type DecodedChunk struct {
	Chunk     Chunk
	Core      Factorization
	Checksum  *big.Int
	Valid     bool
}
