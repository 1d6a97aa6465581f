package goalseeker

import (
	"math/big"

	"github.com/primeos/primeos-vm/internal/primeos/codec"
)

// Address0 and Address1 are the two program-memory cells the generated
// loop rewrites in place: the attempt Push and the modification slot.
const (
	Address0 = 0
	Address1 = 1
)

// randomOffsetBound is OpRandom's argument for the failure-path offset
// draw: random(0,3) inclusive means a result in [0,4).
const randomOffsetBound = 4

// attemptModulus is baked into the generated program's Mod instructions.
// A goal-seeker built for a different modulus would need reassembling,
// not reconfiguring; the canonical stream is fixed at build time like
// the rest of its wiring.
const attemptModulus = 10

// stuckThreshold is the consecutive-failure count at which the program
// prints StuckSignal.
const stuckThreshold = 3

// stuckSignal is the value printed once a session gets stuck.
const stuckSignal = 99

// Program assembles the canonical goal-seeker chunk stream.
//
// Stack layout carried across loop iterations (bottom to top):
// [last_slot_choice, last_instr_type_choice, last_pushed_addr0_value,
// session_failure_count]; session_failure_count on top and
// last_pushed_addr0_value just beneath it, since this instruction set
// has no ROT/PICK and can only rearrange its top two elements; the
// first two frame slots ride along untouched and are never read back.
// Deliberately fragile by construction: it works only because the loop
// never needs to reach past depth one.
//
// Program memory address 0 holds a placeholder Push(0) and address 1 a
// Nop. The controller's Init overwrites address 0 before the first
// step; address 1 is left as assembled and is only rewritten, again as
// Nop, by the failure path (see the modification-slot note below).
func Program() ([]*big.Int, error) {
	idxPushOpcode := int64(codec.OpcodePrimeIndex(codec.Push))
	idxPushOperand := int64(codec.OperandPrimeIndex(codec.Push, 0))
	idxNop := int64(codec.OpcodePrimeIndex(codec.Nop))

	a := newAsm()

	// buildPushFromTop consumes a dynamic value v on top of stack and
	// leaves behind the chunk BuildChunk produces for Push(v): the
	// same bit pattern Build(Push, []int64{v}) would.
	buildPushFromTop := func() {
		a.push(idxPushOperand)
		a.op(codec.Swap)
		a.push(1)
		a.op(codec.Add)
		a.push(idxPushOpcode)
		a.push(1)
		a.push(2)
		a.op(codec.BuildChunk)
	}

	// addr 0: placeholder attempt, overwritten by the controller on init.
	a.push(0)
	// addr 1: modification slot, always reset to Nop rather than a
	// randomly chosen instruction.
	a.op(codec.Nop)

	a.op(codec.Print)
	a.op(codec.OpInput) // -> feedback
	a.pushLabel("fail")
	a.op(codec.JumpIfZero) // feedback==0 -> fail; else fall through to success

	// --- success: feedback == 1 ---
	a.op(codec.OpInput) // -> new_target
	a.op(codec.Dup)
	buildPushFromTop() // chunk = Push(new_target)
	a.push(Address0)
	a.op(codec.PokeChunk)
	// Drop the stale (last_pushed_addr0_value, session_failure_count)
	// pair and replace it with (new_target, 0): Swap+Drop twice peels
	// two adjacent items directly below the surviving new_target.
	a.op(codec.Swap)
	a.op(codec.Drop)
	a.op(codec.Swap)
	a.op(codec.Drop)
	a.push(0) // reset session_failure_count
	a.push(0) // jump target: address 0
	a.op(codec.Jump)

	// --- failure: feedback == 0 ---
	a.label("fail")
	a.push(1)
	a.op(codec.Add) // session_failure_count += 1

	a.op(codec.Dup)
	a.push(stuckThreshold)
	a.op(codec.CompareEq)
	a.pushLabel("skip_stuck")
	a.op(codec.JumpIfZero)
	a.push(stuckSignal)
	a.op(codec.Print)
	a.label("skip_stuck")

	// new_attempt = (last_pushed_addr0_value + random(0,3) + 1) mod 10
	a.op(codec.Swap) // bring last_pushed_addr0_value to top
	a.push(randomOffsetBound)
	a.op(codec.OpRandom)
	a.op(codec.Add)
	a.push(1)
	a.op(codec.Add)
	a.push(attemptModulus)
	a.op(codec.Mod)

	// Distinctness check against address 0's current operand, read
	// back reflectively rather than kept in the carried frame (the
	// frame already spent its one reachable slot on
	// session_failure_count).
	a.op(codec.Dup)
	a.push(Address0)
	a.op(codec.PeekChunk)
	a.op(codec.Factorize) // -> opcode_idx, cur0
	a.op(codec.Swap)
	a.op(codec.Drop) // discard opcode_idx
	a.op(codec.CompareEq)
	a.pushLabel("distinct_ok")
	a.op(codec.JumpIfZero)
	a.push(1)
	a.op(codec.Add)
	a.push(attemptModulus)
	a.op(codec.Mod)
	a.label("distinct_ok")

	// Modification slot stays Nop; still built and poked through
	// BuildChunk/PokeChunk so self-modification of address 1 is
	// mechanically exercised on every iteration, not skipped.
	a.push(idxNop)
	a.push(1)
	a.push(1)
	a.op(codec.BuildChunk)
	a.push(Address1)
	a.op(codec.PokeChunk)

	a.op(codec.Dup)
	buildPushFromTop() // chunk = Push(new_attempt)
	a.push(Address0)
	a.op(codec.PokeChunk)

	a.op(codec.Swap) // restore frame: session_failure_count back on top
	a.push(0)
	a.op(codec.Jump)

	return a.assemble()
}
