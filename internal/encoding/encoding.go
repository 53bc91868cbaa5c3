// Package encoding implements the chunk<->integer mapping: every chunk
// variant (DATA, OPERATION, BLOCK_HEADER, NTT_HEADER) is assigned a
// signature of type-tag primes and field-value exponents, combined into a
// single integer, and checksum-sealed before being handed to a caller
// (spec.md §3–§4.3). Grounded on the teacher's encoding of ScanProgress
// and StreamPayload as plain structs translated field-by-field rather than
// through a generic serialization framework.
package encoding

import (
	"math/big"

	"github.com/primeforge/codec-engine/internal/checksum"
	"github.com/primeforge/codec-engine/internal/registry"
	"github.com/primeforge/codec-engine/pkg/models"
)

// Type-tag prime indices. Index 0 (P0=2) is reserved as the marker that a
// chunk is DATA; indices 1-3 mark the other three kinds. Using indices
// rather than raw primes keeps the scheme stable if the registry's
// internals change.
const (
	tagDataIdx        = 0
	tagOperationIdx   = 1
	tagBlockHeaderIdx = 2
	tagNTTHeaderIdx   = 3

	firstFieldIdx = 4
)

// fieldSlots names the contiguous run of field-tag prime indices a payload
// field's digits are spread across: digit j of the field's base-(k-1)
// expansion lives at index start+j, stored as exponent digit+1 so every
// slot's exponent stays in [1, k-1] — strictly below the checksum layer's
// exponent k, per spec.md §4.3(b). Encoding a field as raw magnitude+1 in a
// single exponent (the prior scheme) let large field values overtake k and
// get mistaken for the checksum term; spreading the magnitude across
// fixed-width digit slots keeps every payload exponent bounded regardless
// of field value.
type fieldSlots struct {
	start uint32
	count int
}

// digitsNeeded returns the number of base-N digits required to represent
// every value in [0, maxValue], computed iteratively to avoid floating
// point: the smallest n with base^n > maxValue.
func digitsNeeded(maxValue uint64, base uint32) int {
	b := uint64(base)
	n := 0
	cap := uint64(1)
	for cap <= maxValue {
		cap *= b
		n++
	}
	if n == 0 {
		n = 1
	}
	return n
}

// Codec combines a Registry and a checksum Layer to encode/decode whole
// chunks.
type Codec struct {
	reg *registry.Registry
	chk *checksum.Layer

	base uint32

	position    fieldSlots
	value       fieldSlots
	opcode      fieldSlots
	operand     fieldSlots
	blockType   fieldSlots
	blockLength fieldSlots
	modulus     fieldSlots
	root        fieldSlots
}

// New returns a Codec over the given Registry and checksum Layer. Field
// digit widths are derived from chk.K(): base = k-1, so every digit's
// exponent (digit+1) is at most k-1, never reaching the checksum's k.
func New(reg *registry.Registry, chk *checksum.Layer) *Codec {
	base := chk.K() - 1
	c := &Codec{reg: reg, chk: chk, base: base}

	next := uint32(firstFieldIdx)
	alloc := func(maxValue uint64) fieldSlots {
		s := fieldSlots{start: next, count: digitsNeeded(maxValue, base)}
		next += uint32(s.count)
		return s
	}

	c.position = alloc(uint64(^uint32(0)))
	c.value = alloc(uint64(^uint16(0)))
	c.opcode = alloc(uint64(^uint8(0)))
	c.operand = alloc(uint64(^uint32(0)))
	c.blockType = alloc(uint64(^uint8(0)))
	c.blockLength = alloc(uint64(^uint32(0)))
	c.modulus = alloc(999_999)
	c.root = alloc(999_999)

	return c
}

func (c *Codec) primeAt(idx uint32) (*big.Int, error) {
	return c.reg.GetPrime(idx)
}

// term multiplies acc by prime^exp in place, extending the registry for the
// tag prime at idx first.
func (c *Codec) term(acc *big.Int, idx uint32, exp uint32) (*big.Int, error) {
	p, err := c.primeAt(idx)
	if err != nil {
		return nil, err
	}
	t := new(big.Int).Exp(p, big.NewInt(int64(exp)), nil)
	return acc.Mul(acc, t), nil
}

// encodeField writes value's base-c.base digit expansion across slots,
// most-significant digit first, one term per slot.
func (c *Codec) encodeField(acc *big.Int, slots fieldSlots, value uint64) (*big.Int, error) {
	digits := make([]uint32, slots.count)
	v := value
	for i := slots.count - 1; i >= 0; i-- {
		digits[i] = uint32(v % uint64(c.base))
		v /= uint64(c.base)
	}

	var err error
	for i := 0; i < slots.count; i++ {
		acc, err = c.term(acc, slots.start+uint32(i), digits[i]+1)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// decodeField reads slots back into a value. present is false if the first
// slot carries no exponent at all, meaning the field was never encoded
// (e.g. an absent OPERATION operand).
func (c *Codec) decodeField(core models.Factorization, slots fieldSlots) (uint64, bool, error) {
	var value uint64
	for i := 0; i < slots.count; i++ {
		exp, present, err := c.fieldExponent(core, slots.start+uint32(i))
		if err != nil {
			return 0, false, err
		}
		if !present {
			return 0, false, nil
		}
		value = value*uint64(c.base) + uint64(exp-1)
	}
	return value, true, nil
}

// EncodeChunk builds the core factorization for a chunk (before checksum
// attachment), following the field layout implied by chunk.Kind.
func (c *Codec) EncodeChunk(chunk models.Chunk) (models.Factorization, error) {
	acc := big.NewInt(1)
	var err error

	switch chunk.Kind {
	case models.KindData:
		if acc, err = c.term(acc, tagDataIdx, 1); err != nil {
			return nil, err
		}
		if acc, err = c.encodeField(acc, c.position, uint64(chunk.Position)); err != nil {
			return nil, err
		}
		if acc, err = c.encodeField(acc, c.value, uint64(chunk.Value)); err != nil {
			return nil, err
		}

	case models.KindOperation:
		if acc, err = c.term(acc, tagOperationIdx, 1); err != nil {
			return nil, err
		}
		if acc, err = c.encodeField(acc, c.opcode, uint64(chunk.Opcode)); err != nil {
			return nil, err
		}
		if chunk.HasOperand {
			if acc, err = c.encodeField(acc, c.operand, uint64(chunk.Operand)); err != nil {
				return nil, err
			}
		}

	case models.KindBlockHeader:
		if acc, err = c.term(acc, tagBlockHeaderIdx, 1); err != nil {
			return nil, err
		}
		if acc, err = c.encodeField(acc, c.blockType, uint64(chunk.BlockType)); err != nil {
			return nil, err
		}
		if acc, err = c.encodeField(acc, c.blockLength, uint64(chunk.BlockLength)); err != nil {
			return nil, err
		}

	case models.KindNTTHeader:
		if acc, err = c.term(acc, tagNTTHeaderIdx, 1); err != nil {
			return nil, err
		}
		if acc, err = c.encodeField(acc, c.modulus, chunk.Modulus%1_000_000); err != nil {
			return nil, err
		}
		if acc, err = c.encodeField(acc, c.root, chunk.PrimitiveRoot%1_000_000); err != nil {
			return nil, err
		}

	default:
		return nil, &models.EncodingError{Reason: "cannot encode chunk of unknown kind"}
	}

	return c.reg.Factor(acc)
}

// EncodeText encodes a sequence of DATA chunks (position, value) pairs,
// checksum-sealing each one, returning the resulting integers in order.
func (c *Codec) EncodeText(values []uint16) ([]*big.Int, error) {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		core, err := c.EncodeChunk(models.Chunk{Kind: models.KindData, Position: uint32(i), Value: v})
		if err != nil {
			return nil, &models.ChunkIndexError{ChunkIndex: i, Stage: "encode", Err: err}
		}
		full, err := c.chk.Attach(core)
		if err != nil {
			return nil, &models.ChunkIndexError{ChunkIndex: i, Stage: "checksum", Err: err}
		}
		out[i] = full.Reconstruct()
	}
	return out, nil
}

// EncodeProgram encodes a sequence of OPERATION chunks.
func (c *Codec) EncodeProgram(ops []models.Chunk) ([]*big.Int, error) {
	out := make([]*big.Int, len(ops))
	for i, op := range ops {
		op.Kind = models.KindOperation
		core, err := c.EncodeChunk(op)
		if err != nil {
			return nil, &models.ChunkIndexError{ChunkIndex: i, Stage: "encode", Err: err}
		}
		full, err := c.chk.Attach(core)
		if err != nil {
			return nil, &models.ChunkIndexError{ChunkIndex: i, Stage: "checksum", Err: err}
		}
		out[i] = full.Reconstruct()
	}
	return out, nil
}

// EncodeBlock encodes a single BLOCK_HEADER or NTT_HEADER chunk.
func (c *Codec) EncodeBlock(header models.Chunk) (*big.Int, error) {
	core, err := c.EncodeChunk(header)
	if err != nil {
		return nil, err
	}
	full, err := c.chk.Attach(core)
	if err != nil {
		return nil, err
	}
	return full.Reconstruct(), nil
}

// DetermineChunkKind inspects a core factorization's tag-prime term (the
// factor at the registered type-tag index) to recover which chunk variant
// produced it.
func (c *Codec) DetermineChunkKind(core models.Factorization) (models.ChunkKind, error) {
	tagIdx := map[uint32]models.ChunkKind{
		tagDataIdx:        models.KindData,
		tagOperationIdx:   models.KindOperation,
		tagBlockHeaderIdx: models.KindBlockHeader,
		tagNTTHeaderIdx:   models.KindNTTHeader,
	}
	for _, fac := range core {
		idx, err := c.reg.GetIndex(fac.Prime, false)
		if err != nil {
			continue
		}
		if kind, ok := tagIdx[idx]; ok {
			return kind, nil
		}
	}
	return models.KindUnknown, &models.EncodingError{Reason: "no recognized type-tag prime in factorization"}
}

// fieldExponent returns the exponent attached to the factor at field index
// idx, or 0 (meaning "absent") if idx does not appear in core.
func (c *Codec) fieldExponent(core models.Factorization, idx uint32) (uint32, bool, error) {
	for _, fac := range core {
		i, err := c.reg.GetIndex(fac.Prime, false)
		if err != nil {
			continue
		}
		if i == idx {
			return fac.Exponent, true, nil
		}
	}
	return 0, false, nil
}

// DecodeChunk verifies an encoded integer's checksum, classifies its core
// factorization by kind, and reconstructs the field values into a Chunk.
func (c *Codec) DecodeChunk(n *big.Int) (models.DecodedChunk, error) {
	full, err := c.reg.Factor(n)
	if err != nil {
		return models.DecodedChunk{}, err
	}
	core, valid, err := c.chk.Verify(full)
	if err != nil {
		if _, ok := err.(*models.ChecksumMismatchError); ok {
			return models.DecodedChunk{Core: core, Valid: false}, err
		}
		return models.DecodedChunk{}, err
	}

	kind, err := c.DetermineChunkKind(core)
	if err != nil {
		return models.DecodedChunk{Core: core, Valid: valid}, err
	}

	chunk := models.Chunk{Kind: kind}
	switch kind {
	case models.KindData:
		pos, _, _ := c.decodeField(core, c.position)
		val, _, _ := c.decodeField(core, c.value)
		chunk.Position = uint32(pos)
		chunk.Value = uint16(val)

	case models.KindOperation:
		op, _, _ := c.decodeField(core, c.opcode)
		chunk.Opcode = uint8(op)
		if operand, present, _ := c.decodeField(core, c.operand); present {
			chunk.Operand = uint32(operand)
			chunk.HasOperand = true
		}

	case models.KindBlockHeader:
		bt, _, _ := c.decodeField(core, c.blockType)
		bl, _, _ := c.decodeField(core, c.blockLength)
		chunk.BlockType = uint8(bt)
		chunk.BlockLength = uint32(bl)

	case models.KindNTTHeader:
		mod, _, _ := c.decodeField(core, c.modulus)
		root, _, _ := c.decodeField(core, c.root)
		chunk.Modulus = mod
		chunk.PrimitiveRoot = root
	}

	return models.DecodedChunk{Chunk: chunk, Core: core, Checksum: nil, Valid: valid}, nil
}

// ReconstructFromFactors is a thin wrapper over Factorization.Reconstruct,
// kept here so callers working purely in terms of the encoding layer never
// need to import pkg/models directly for it.
func ReconstructFromFactors(f models.Factorization) *big.Int {
	return f.Reconstruct()
}
