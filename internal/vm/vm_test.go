package vm

import (
	"testing"

	"github.com/primeforge/codec-engine/pkg/models"
)

func chunk(opcode uint8, operand uint32, hasOperand bool) models.Chunk {
	return models.Chunk{Opcode: opcode, Operand: operand, HasOperand: hasOperand}
}

func TestPushAddPrint(t *testing.T) {
	m := New()
	program := []models.Chunk{
		chunk(OpPush, 2, true),
		chunk(OpPush, 3, true),
		chunk(OpAdd, 0, false),
		chunk(OpPrint, 0, false),
	}
	if err := m.Execute(program); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := m.Output()
	if len(out) != 1 || out[0] != "5" {
		t.Fatalf("output = %v, want [5]", out)
	}
}

func TestSubMulDupSwapPop(t *testing.T) {
	m := New()
	program := []models.Chunk{
		chunk(OpPush, 10, true),
		chunk(OpPush, 4, true),
		chunk(OpSub, 0, false), // 10-4=6
		chunk(OpDup, 0, false), // 6,6
		chunk(OpMul, 0, false), // 36
		chunk(OpPush, 2, true),
		chunk(OpSwap, 0, false), // 2,36
		chunk(OpPop, 0, false),  // 2
		chunk(OpPrint, 0, false),
	}
	if err := m.Execute(program); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := m.Output()
	if len(out) != 1 || out[0] != "2" {
		t.Fatalf("output = %v, want [2]", out)
	}
}

func TestStackUnderflow(t *testing.T) {
	m := New()
	err := m.Execute([]models.Chunk{chunk(OpAdd, 0, false)})
	if err == nil {
		t.Fatal("expected error")
	}
	vmErr, ok := err.(*models.VMExecutionError)
	if !ok {
		t.Fatalf("expected VMExecutionError, got %T", err)
	}
	if vmErr.Err != models.ErrStackUnderflow {
		t.Fatalf("expected wrapped ErrStackUnderflow, got %v", vmErr.Err)
	}
}

// TestPrintDoesNotPushBack covers spec.md §4.4's stack discipline: PRINT
// pops and never pushes back, so a second PRINT with nothing pushed between
// underflows.
func TestPrintDoesNotPushBack(t *testing.T) {
	m := New()
	program := []models.Chunk{
		chunk(OpPush, 5, true),
		chunk(OpPrint, 0, false),
		chunk(OpPrint, 0, false),
	}
	err := m.Execute(program)
	if err == nil {
		t.Fatal("expected second PRINT to underflow")
	}
	vmErr, ok := err.(*models.VMExecutionError)
	if !ok {
		t.Fatalf("expected VMExecutionError, got %T", err)
	}
	if vmErr.Err != models.ErrStackUnderflow {
		t.Fatalf("expected wrapped ErrStackUnderflow, got %v", vmErr.Err)
	}
	if len(m.Output()) != 1 || m.Output()[0] != "5" {
		t.Fatalf("output before underflow = %v, want [5]", m.Output())
	}
}

func TestHaltStopsExecution(t *testing.T) {
	m := New()
	program := []models.Chunk{
		chunk(OpPush, 1, true),
		chunk(OpHalt, 0, false),
		chunk(OpPrint, 0, false), // never reached
	}
	if err := m.Execute(program); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(m.Output()) != 0 {
		t.Fatalf("expected no output after HALT, got %v", m.Output())
	}
}

func TestJmpzSkipsWhenZero(t *testing.T) {
	m := New()
	program := []models.Chunk{
		chunk(OpPush, 0, true), // op 0
		chunk(OpJmpz, 4, true), // op 1: jump to op 4 if top == 0
		chunk(OpPush, 999, true),
		chunk(OpPrint, 0, false),
		chunk(OpPush, 7, true), // op 4
		chunk(OpPrint, 0, false),
	}
	if err := m.Execute(program); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := m.Output()
	if len(out) != 1 || out[0] != "7" {
		t.Fatalf("output = %v, want [7]", out)
	}
}

func TestJmpzFallsThroughWhenNonzero(t *testing.T) {
	m := New()
	program := []models.Chunk{
		chunk(OpPush, 5, true),
		chunk(OpJmpz, 4, true),
		chunk(OpPush, 1, true),
		chunk(OpPrint, 0, false),
		chunk(OpHalt, 0, false),
	}
	if err := m.Execute(program); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := m.Output()
	if len(out) != 1 || out[0] != "1" {
		t.Fatalf("output = %v, want [1]", out)
	}
}

func TestUnknownOpcode(t *testing.T) {
	m := New()
	err := m.Execute([]models.Chunk{chunk(99, 0, false)})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*models.VMExecutionError); !ok {
		t.Fatalf("expected VMExecutionError, got %T", err)
	}
}

// TestDataChunkRendersAsCharacter covers spec.md §4.4's "DATA chunks append
// fromCharCode(value) to output directly": a DATA-kind chunk interleaved in
// a program never reaches opcode dispatch.
func TestDataChunkRendersAsCharacter(t *testing.T) {
	m := New()
	program := []models.Chunk{
		{Kind: models.KindData, Value: 'H'},
		{Kind: models.KindData, Value: 'i'},
	}
	if err := m.Execute(program); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := m.Output()
	if len(out) != 2 || out[0] != "H" || out[1] != "i" {
		t.Fatalf("output = %v, want [H i]", out)
	}
}

// TestBlockAndNTTHeadersAreSkipped covers spec.md §4.4's "other chunk kinds
// are skipped": BLOCK_HEADER/NTT_HEADER chunks contribute no output and
// never reach opcode dispatch.
func TestBlockAndNTTHeadersAreSkipped(t *testing.T) {
	m := New()
	program := []models.Chunk{
		{Kind: models.KindBlockHeader, BlockType: 1, BlockLength: 10},
		{Kind: models.KindNTTHeader, Modulus: 97, PrimitiveRoot: 5},
		chunk(OpPush, 9, true),
		chunk(OpPrint, 0, false),
	}
	if err := m.Execute(program); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := m.Output()
	if len(out) != 1 || out[0] != "9" {
		t.Fatalf("output = %v, want [9]", out)
	}
}
