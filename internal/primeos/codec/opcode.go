// Package codec implements the UOR (Universal Object Representation)
// codec: the bijection between integer chunks and decoded instructions.
package codec

import "fmt"

// Opcode enumerates PrimeOS's fixed instruction set.
type Opcode int

const (
	Nop Opcode = iota
	Push
	Add
	Sub
	Mul
	Mod
	Dup
	Drop
	Swap
	CompareEq
	Print
	Jump
	JumpIfZero
	OpRandom
	OpInput
	PeekChunk
	BuildChunk
	PokeChunk
	Factorize
	Halt

	opcodeCount
)

// opcodeNames holds the wire identifiers returned by String() and used
// in disassembly output; they stay SCREAMING_SNAKE_CASE to match the
// wire-level opcode names, independent of the Go identifiers above.
// BUILD_CHUNK and FACTORIZE never carry these names: they deal in prime
// indices and integer opcode values.
var opcodeNames = [opcodeCount]string{
	Nop:        "NOP",
	Push:       "PUSH",
	Add:        "ADD",
	Sub:        "SUB",
	Mul:        "MUL",
	Mod:        "MOD",
	Dup:        "DUP",
	Drop:       "DROP",
	Swap:       "SWAP",
	CompareEq:  "COMPARE_EQ",
	Print:      "PRINT",
	Jump:       "JUMP",
	JumpIfZero: "JUMP_IF_ZERO",
	OpRandom:   "OP_RANDOM",
	OpInput:    "OP_INPUT",
	PeekChunk:  "PEEK_CHUNK",
	BuildChunk: "BUILD_CHUNK",
	PokeChunk:  "POKE_CHUNK",
	Factorize:  "FACTORIZE",
	Halt:       "HALT",
}

// String renders the opcode's canonical name, or "opcode(n)" for an
// out-of-range value (which Decode never produces).
func (o Opcode) String() string {
	if o >= 0 && int(o) < len(opcodeNames) && opcodeNames[o] != "" {
		return opcodeNames[o]
	}
	return fmt.Sprintf("opcode(%d)", int(o))
}

// Valid reports whether o is one of the fixed enumeration's members.
func (o Opcode) Valid() bool {
	return o >= 0 && o < opcodeCount
}

// OperandArity returns how many operands are encoded directly in a
// chunk for this opcode. Only PUSH carries a literal operand; every
// other opcode takes its arguments from the stack at execution time.
func OperandArity(o Opcode) int {
	return len(operandPrimes[o])
}
