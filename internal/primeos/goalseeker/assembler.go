// Package goalseeker builds the canonical chunk stream executed by the
// VM core: a small self-modifying loop that prints a guess, awaits
// feedback, and adapts its own program memory toward a target chosen
// by the Teacher. The stream is generated once, in Go, rather than
// hand-encoded, the same way the pack's bytecode-emission helpers build
// a fixed instruction sequence programmatically instead of listing
// magic integers.
package goalseeker

import (
	"fmt"
	"math/big"

	"github.com/primeos/primeos-vm/internal/primeos/codec"
)

// asm assembles a chunk program from a sequence of symbolic
// instructions, resolving label references to addresses in a second
// pass so that forward jumps (a Jump target defined later in program
// order) can be written naturally.
type asm struct {
	instrs []pendingInstr
	labels map[string]int
}

type pendingInstr struct {
	op       codec.Opcode
	operand  int64
	labelRef string
}

func newAsm() *asm {
	return &asm{labels: make(map[string]int)}
}

// op emits a zero-operand instruction (Add, Swap, BuildChunk, ...).
func (a *asm) op(o codec.Opcode) *asm {
	a.instrs = append(a.instrs, pendingInstr{op: o})
	return a
}

// push emits Push of a literal constant known at assembly time.
func (a *asm) push(v int64) *asm {
	a.instrs = append(a.instrs, pendingInstr{op: codec.Push, operand: v})
	return a
}

// pushLabel emits Push of a jump target, resolved once every label in
// the program has been placed.
func (a *asm) pushLabel(name string) *asm {
	a.instrs = append(a.instrs, pendingInstr{op: codec.Push, labelRef: name})
	return a
}

// label marks the address of the next emitted instruction.
func (a *asm) label(name string) *asm {
	a.labels[name] = len(a.instrs)
	return a
}

func (a *asm) assemble() ([]*big.Int, error) {
	program := make([]*big.Int, len(a.instrs))
	for i, in := range a.instrs {
		operand := in.operand
		if in.labelRef != "" {
			addr, ok := a.labels[in.labelRef]
			if !ok {
				return nil, fmt.Errorf("goalseeker: undefined label %q", in.labelRef)
			}
			operand = int64(addr)
		}
		var operands []int64
		if codec.OperandArity(in.op) > 0 {
			operands = []int64{operand}
		}
		chunk, err := codec.Build(in.op, operands)
		if err != nil {
			return nil, fmt.Errorf("goalseeker: assembling instruction %d (%s): %w", i, in.op, err)
		}
		program[i] = chunk
	}
	return program, nil
}
