// Package vm implements the stack machine that executes decoded OPERATION
// chunks (spec.md §4.4). Opcode dispatch follows the teacher's handler-table
// style (internal/api route registration: a map from a small discriminant
// to a handler function) rather than a switch-per-call-site.
package vm

import (
	"fmt"
	"math/big"

	"github.com/primeforge/codec-engine/pkg/models"
)

// Opcodes. PUSH, ADD, and PRINT are the mandatory set spec.md requires
// every implementation support; the rest are additive.
const (
	OpPush uint8 = iota
	OpAdd
	OpPrint
	OpSub
	OpMul
	OpDup
	OpPop
	OpSwap
	OpJmpz
	OpHalt
)

// Machine is a stack-based virtual machine operating on arbitrary-precision
// integers. Output is collected as strings rather than written directly to
// stdout, so callers can inspect it deterministically: PRINT appends
// v.toString(), and DATA chunks interleaved in the program append
// fromCharCode(value) directly, bypassing the stack entirely (spec.md §4.4).
type Machine struct {
	stack  []*big.Int
	output []string

	handlers map[uint8]func(m *Machine, op models.Chunk, opIndex int) (result stepResult, err error)
}

// stepResult tells Execute what to do after a handler runs: continue to the
// next instruction, jump to a specific index, or halt.
type stepResult struct {
	halt   bool
	jump   bool
	jumpTo int
}

// New returns a freshly initialized Machine with an empty stack.
func New() *Machine {
	m := &Machine{}
	m.handlers = map[uint8]func(*Machine, models.Chunk, int) (stepResult, error){
		OpPush:  opPush,
		OpAdd:   binaryOp(func(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) }),
		OpSub:   binaryOp(func(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) }),
		OpMul:   binaryOp(func(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) }),
		OpPrint: opPrint,
		OpDup:   opDup,
		OpPop:   opPop,
		OpSwap:  opSwap,
		OpJmpz:  opJmpz,
		OpHalt:  opHalt,
	}
	return m
}

// Output returns the strings PRINT and DATA chunks emitted, in execution
// order.
func (m *Machine) Output() []string { return m.output }

// StackDepth reports the current stack depth, used by VMExecutionError to
// report where execution aborted.
func (m *Machine) StackDepth() int { return len(m.stack) }

func (m *Machine) push(v *big.Int) { m.stack = append(m.stack, v) }

func (m *Machine) pop() (*big.Int, error) {
	if len(m.stack) == 0 {
		return nil, models.ErrStackUnderflow
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

// Execute runs a program (a sequence of decoded OPERATION chunks) to
// completion, a HALT, or the first error. Execution is deterministic: same
// program, same input stack, same output.
func (m *Machine) Execute(program []models.Chunk) error {
	pc := 0
	for pc < len(program) {
		op := program[pc]

		switch op.Kind {
		case models.KindData:
			m.output = append(m.output, string(rune(op.Value)))
			pc++
			continue
		case models.KindBlockHeader, models.KindNTTHeader:
			pc++
			continue
		}

		handler, ok := m.handlers[op.Opcode]
		if !ok {
			return &models.VMExecutionError{
				Opcode: op.Opcode, OpIndex: pc, StackDepth: m.StackDepth(),
				Reason: fmt.Sprintf("unknown opcode %d", op.Opcode),
			}
		}
		res, err := handler(m, op, pc)
		if err != nil {
			return &models.VMExecutionError{
				Opcode: op.Opcode, OpIndex: pc, StackDepth: m.StackDepth(),
				Reason: err.Error(), Err: err,
			}
		}
		if res.halt {
			return nil
		}
		if res.jump {
			if res.jumpTo < 0 || res.jumpTo >= len(program) {
				return &models.VMExecutionError{
					Opcode: op.Opcode, OpIndex: pc, StackDepth: m.StackDepth(),
					Reason: fmt.Sprintf("jump target %d out of range", res.jumpTo),
				}
			}
			pc = res.jumpTo
			continue
		}
		pc++
	}
	return nil
}

func opPush(m *Machine, op models.Chunk, _ int) (stepResult, error) {
	if !op.HasOperand {
		return stepResult{}, &models.EncodingError{Reason: "PUSH requires an operand"}
	}
	m.push(new(big.Int).SetUint64(uint64(op.Operand)))
	return stepResult{}, nil
}

func binaryOp(f func(a, b *big.Int) *big.Int) func(*Machine, models.Chunk, int) (stepResult, error) {
	return func(m *Machine, _ models.Chunk, _ int) (stepResult, error) {
		b, err := m.pop()
		if err != nil {
			return stepResult{}, err
		}
		a, err := m.pop()
		if err != nil {
			return stepResult{}, err
		}
		m.push(f(a, b))
		return stepResult{}, nil
	}
}

// opPrint pops v and appends its decimal rendering to output. It does not
// push v back: PRINT consumes its operand per spec.md §4.4.
func opPrint(m *Machine, _ models.Chunk, _ int) (stepResult, error) {
	v, err := m.pop()
	if err != nil {
		return stepResult{}, err
	}
	m.output = append(m.output, v.String())
	return stepResult{}, nil
}

func opDup(m *Machine, _ models.Chunk, _ int) (stepResult, error) {
	v, err := m.pop()
	if err != nil {
		return stepResult{}, err
	}
	m.push(v)
	m.push(new(big.Int).Set(v))
	return stepResult{}, nil
}

func opPop(m *Machine, _ models.Chunk, _ int) (stepResult, error) {
	_, err := m.pop()
	return stepResult{}, err
}

func opSwap(m *Machine, _ models.Chunk, _ int) (stepResult, error) {
	b, err := m.pop()
	if err != nil {
		return stepResult{}, err
	}
	a, err := m.pop()
	if err != nil {
		return stepResult{}, err
	}
	m.push(b)
	m.push(a)
	return stepResult{}, nil
}

// opJmpz pops the top of stack; if it is zero, execution jumps to the
// instruction index named by the operand, otherwise it falls through.
func opJmpz(m *Machine, op models.Chunk, _ int) (stepResult, error) {
	v, err := m.pop()
	if err != nil {
		return stepResult{}, err
	}
	if v.Sign() != 0 {
		return stepResult{}, nil
	}
	if !op.HasOperand {
		return stepResult{}, &models.EncodingError{Reason: "JMPZ requires a target operand"}
	}
	return stepResult{jump: true, jumpTo: int(op.Operand)}, nil
}

func opHalt(_ *Machine, _ models.Chunk, _ int) (stepResult, error) {
	return stepResult{halt: true}, nil
}
