package codec

import (
	"math/big"
	"testing"

	"github.com/primeforge/codec-engine/pkg/models"
)

func TestEncodeDecodeTextRoundTrip(t *testing.T) {
	c := New()
	values := []uint16{1, 42, 1000, 65535}

	encoded, err := c.EncodeText(values)
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}

	decoded, err := c.DecodeText(encoded)
	if err != nil {
		t.Fatalf("DecodeText: %v", err)
	}
	want := string([]rune{1, 42, 1000, 65535})
	if decoded != want {
		t.Fatalf("decoded = %q, want %q", decoded, want)
	}
}

func TestDecodeTextIgnoresNonDataChunksAndSortsByPosition(t *testing.T) {
	c := New()
	textEncoded, err := c.EncodeText([]uint16{'B', 'A'})
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}
	header := models.Chunk{Kind: models.KindBlockHeader, BlockType: 1, BlockLength: 2}
	headerEncoded, err := c.EncodeBlock(header)
	if err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}

	// Interleave the header between the two DATA chunks, given in reverse
	// of their positions; position, not array order, must decide the final
	// string, and the header must be skipped entirely.
	mixed := []*big.Int{textEncoded[1], headerEncoded, textEncoded[0]}
	decoded, err := c.DecodeText(mixed)
	if err != nil {
		t.Fatalf("DecodeText: %v", err)
	}
	if decoded != "BA" {
		t.Fatalf("decoded = %q, want %q", decoded, "BA")
	}
}

func TestEncodeExecuteProgramRoundTrip(t *testing.T) {
	c := New()
	program := []models.Chunk{
		{Opcode: 0, Operand: 2, HasOperand: true}, // PUSH 2
		{Opcode: 0, Operand: 3, HasOperand: true}, // PUSH 3
		{Opcode: 1},                               // ADD
		{Opcode: 2},                               // PRINT
		{Opcode: 9},                               // HALT
	}

	encoded, err := c.EncodeProgram(program)
	if err != nil {
		t.Fatalf("EncodeProgram: %v", err)
	}

	output, err := c.ExecuteProgram(encoded)
	if err != nil {
		t.Fatalf("ExecuteProgram: %v", err)
	}
	if len(output) != 1 || output[0] != "5" {
		t.Fatalf("output = %v, want [5]", output)
	}
}

func TestExecuteProgramRendersDataChunksAsCharacters(t *testing.T) {
	c := New()
	dataEncoded, err := c.EncodeText([]uint16{'H', 'i'})
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}

	output, err := c.ExecuteProgram(dataEncoded)
	if err != nil {
		t.Fatalf("ExecuteProgram: %v", err)
	}
	if len(output) != 2 || output[0] != "H" || output[1] != "i" {
		t.Fatalf("output = %v, want [H i]", output)
	}
}

func TestEncodeDecodeBlockHeaderRoundTrip(t *testing.T) {
	c := New()
	header := models.Chunk{Kind: models.KindBlockHeader, BlockType: 3, BlockLength: 128}

	encoded, err := c.EncodeBlock(header)
	if err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}

	decoded, err := c.DecodeChunk(encoded)
	if err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}
	if decoded.Chunk.Kind != models.KindBlockHeader {
		t.Fatalf("Kind = %v, want BLOCK_HEADER", decoded.Chunk.Kind)
	}
	if decoded.Chunk.BlockType != 3 || decoded.Chunk.BlockLength != 128 {
		t.Fatalf("decoded header = %+v, want BlockType=3 BlockLength=128", decoded.Chunk)
	}
}

func TestNewWithChecksumPowerRejectsTooSmallK(t *testing.T) {
	if _, err := NewWithChecksumPower(2); err == nil {
		t.Fatal("expected an error for checksum power k=2")
	}
}

func TestNewWithChecksumPowerRoundTrip(t *testing.T) {
	c, err := NewWithChecksumPower(10)
	if err != nil {
		t.Fatalf("NewWithChecksumPower: %v", err)
	}
	encoded, err := c.EncodeText([]uint16{5})
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}
	decoded, err := c.DecodeText(encoded)
	if err != nil {
		t.Fatalf("DecodeText: %v", err)
	}
	want := string([]rune{5})
	if decoded != want {
		t.Fatalf("decoded = %q, want %q", decoded, want)
	}
}
