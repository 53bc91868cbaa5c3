// Package codec is the external façade spec.md §6 describes: construct a
// Codec once, then EncodeText/DecodeText/EncodeProgram/EncodeBlock/
// DecodeChunk/ExecuteProgram without callers needing to know about the
// registry, checksum, encoding, or vm packages underneath.
package codec

import (
	"math/big"
	"sort"
	"strings"

	"github.com/primeforge/codec-engine/internal/checksum"
	"github.com/primeforge/codec-engine/internal/encoding"
	"github.com/primeforge/codec-engine/internal/registry"
	"github.com/primeforge/codec-engine/internal/vm"
	"github.com/primeforge/codec-engine/pkg/models"
)

// Codec composes the four codec-layer collaborators behind spec.md's
// public operations.
type Codec struct {
	Registry *registry.Registry
	Checksum *checksum.Layer
	enc      *encoding.Codec
}

// New constructs a Codec with a fresh Prime Registry and the default
// checksum power.
func New() *Codec {
	reg := registry.New()
	chk := checksum.New(reg)
	return &Codec{Registry: reg, Checksum: chk, enc: encoding.New(reg, chk)}
}

// NewWithChecksumPower constructs a Codec with an explicit checksum power k.
func NewWithChecksumPower(k uint32) (*Codec, error) {
	reg := registry.New()
	chk, err := checksum.NewWithOptions(reg, k, 0)
	if err != nil {
		return nil, err
	}
	return &Codec{Registry: reg, Checksum: chk, enc: encoding.New(reg, chk)}, nil
}

// EncodeText encodes a sequence of 16-bit values as DATA chunks.
func (c *Codec) EncodeText(values []uint16) ([]*big.Int, error) {
	return c.enc.EncodeText(values)
}

// DecodeText decodes a sequence of encoded integers, keeping only the DATA
// chunks among them, stable-sorting those by position, and concatenating
// their values into a single string via fromCharCode (spec.md §4.3). A
// chunk that fails to decode or verify faults the whole call with its
// index; non-DATA chunks are silently ignored rather than faulting.
func (c *Codec) DecodeText(values []*big.Int) (string, error) {
	type placed struct {
		position uint32
		char     rune
	}
	var chars []placed
	for i, v := range values {
		d, err := c.enc.DecodeChunk(v)
		if err != nil {
			return "", &models.ChunkIndexError{ChunkIndex: i, Stage: "decode", Err: err}
		}
		if d.Chunk.Kind != models.KindData {
			continue
		}
		chars = append(chars, placed{position: d.Chunk.Position, char: rune(d.Chunk.Value)})
	}

	sort.SliceStable(chars, func(i, j int) bool { return chars[i].position < chars[j].position })

	var sb strings.Builder
	for _, p := range chars {
		sb.WriteRune(p.char)
	}
	return sb.String(), nil
}

// EncodeProgram encodes a sequence of OPERATION chunks.
func (c *Codec) EncodeProgram(ops []models.Chunk) ([]*big.Int, error) {
	return c.enc.EncodeProgram(ops)
}

// EncodeBlock encodes a single BLOCK_HEADER or NTT_HEADER chunk.
func (c *Codec) EncodeBlock(header models.Chunk) (*big.Int, error) {
	return c.enc.EncodeBlock(header)
}

// DecodeChunk verifies and classifies a single encoded integer.
func (c *Codec) DecodeChunk(n *big.Int) (models.DecodedChunk, error) {
	return c.enc.DecodeChunk(n)
}

// ExecuteProgram decodes a sequence of encoded chunks and runs them on a
// fresh stack machine, returning its accumulated output (spec.md §6). Only
// OPERATION chunks dispatch to the instruction table; DATA chunks in the
// sequence render directly via fromCharCode and other kinds are skipped —
// the machine, not this façade, applies that distinction (spec.md §4.4), so
// every chunk here is decoded and handed through regardless of kind.
func (c *Codec) ExecuteProgram(encoded []*big.Int) ([]string, error) {
	program := make([]models.Chunk, len(encoded))
	for i, v := range encoded {
		d, err := c.enc.DecodeChunk(v)
		if err != nil {
			return nil, &models.ChunkIndexError{ChunkIndex: i, Stage: "decode", Err: err}
		}
		program[i] = d.Chunk
	}

	machine := vm.New()
	if err := machine.Execute(program); err != nil {
		return nil, err
	}
	return machine.Output(), nil
}
