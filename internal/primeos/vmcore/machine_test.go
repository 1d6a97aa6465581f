package vmcore

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primeos/primeos-vm/internal/primeos/codec"
	"github.com/primeos/primeos-vm/internal/primeos/config"
	"github.com/primeos/primeos-vm/internal/primeos/vmerr"
)

func build(t *testing.T, op codec.Opcode, operands ...int64) *big.Int {
	t.Helper()
	chunk, err := codec.Build(op, operands)
	require.NoError(t, err)
	return chunk
}

func newMachine(t *testing.T, program []*big.Int) *Machine {
	t.Helper()
	m, err := New(program, config.DefaultConfig(), 1)
	require.NoError(t, err)
	return m
}

func runToHaltOrInput(t *testing.T, m *Machine, maxSteps int) {
	t.Helper()
	for i := 0; i < maxSteps; i++ {
		if m.Halted || m.PendingInput {
			return
		}
		require.NoError(t, m.Step())
	}
	t.Fatalf("machine did not halt or suspend within %d steps", maxSteps)
}

func TestAddMulMod(t *testing.T) {
	program := []*big.Int{
		build(t, codec.Push, 7),
		build(t, codec.Push, 3),
		build(t, codec.Add),
		build(t, codec.Push, 2),
		build(t, codec.Mul),
		build(t, codec.Push, 5),
		build(t, codec.Mod),
		build(t, codec.Halt),
	}
	m := newMachine(t, program)
	runToHaltOrInput(t, m, 100)
	require.True(t, m.Halted)
	require.Nil(t, m.Err)
	// (7+3)*2 = 20, 20 mod 5 = 0
	require.Len(t, m.Stack, 1)
	assert.Equal(t, int64(0), m.Stack[0].Int64())
}

func TestSubTruncatedMod(t *testing.T) {
	program := []*big.Int{
		build(t, codec.Push, 2),
		build(t, codec.Push, 7),
		build(t, codec.Sub), // 2 - 7 = -5
		build(t, codec.Push, 3),
		build(t, codec.Mod), // -5 mod 3 (truncated) = -2
		build(t, codec.Halt),
	}
	m := newMachine(t, program)
	runToHaltOrInput(t, m, 100)
	require.True(t, m.Halted)
	require.Nil(t, m.Err)
	require.Len(t, m.Stack, 1)
	assert.Equal(t, int64(-2), m.Stack[0].Int64())
}

func TestDivisionByZeroHalts(t *testing.T) {
	program := []*big.Int{
		build(t, codec.Push, 5),
		build(t, codec.Push, 0),
		build(t, codec.Mod),
	}
	m := newMachine(t, program)
	runToHaltOrInput(t, m, 100)
	require.True(t, m.Halted)
	require.NotNil(t, m.Err)
	assert.Equal(t, vmerr.DivisionByZero, m.Err.Kind)
}

func TestDupDropSwap(t *testing.T) {
	program := []*big.Int{
		build(t, codec.Push, 1),
		build(t, codec.Push, 2),
		build(t, codec.Swap), // 2, 1
		build(t, codec.Dup),  // 2, 1, 1
		build(t, codec.Drop), // 2, 1
		build(t, codec.Halt),
	}
	m := newMachine(t, program)
	runToHaltOrInput(t, m, 100)
	require.True(t, m.Halted)
	require.Nil(t, m.Err)
	require.Len(t, m.Stack, 2)
	assert.Equal(t, int64(2), m.Stack[0].Int64())
	assert.Equal(t, int64(1), m.Stack[1].Int64())
}

func TestCompareEqAndPrint(t *testing.T) {
	program := []*big.Int{
		build(t, codec.Push, 4),
		build(t, codec.Push, 4),
		build(t, codec.CompareEq),
		build(t, codec.Print),
		build(t, codec.Halt),
	}
	m := newMachine(t, program)
	runToHaltOrInput(t, m, 100)
	require.True(t, m.Halted)
	require.Nil(t, m.Err)
	require.Len(t, m.Output, 1)
	assert.Equal(t, int64(1), m.Output[0].Int64())
}

func TestJumpUnconditional(t *testing.T) {
	// Unconditionally jump past a Push that would otherwise execute.
	// Jump consumes its address, so nothing is left on the stack.
	program := []*big.Int{
		build(t, codec.Push, 3), // addr 0
		build(t, codec.Jump),    // addr 1
		build(t, codec.Push, 99), // addr 2 (skipped)
		build(t, codec.Halt),     // addr 3
	}
	m := newMachine(t, program)
	runToHaltOrInput(t, m, 100)
	require.True(t, m.Halted)
	require.Nil(t, m.Err)
	require.Empty(t, m.Stack)
	assert.Equal(t, 3, m.IP)
}

func TestJumpIfZeroTaken(t *testing.T) {
	program := []*big.Int{
		build(t, codec.Push, 0), // cond
		build(t, codec.Push, 4), // addr
		build(t, codec.JumpIfZero),
		build(t, codec.Push, 99), // skipped since cond==0
		build(t, codec.Halt),     // addr 4
	}
	m := newMachine(t, program)
	runToHaltOrInput(t, m, 100)
	require.True(t, m.Halted)
	require.Nil(t, m.Err)
	require.Empty(t, m.Stack)
}

func TestJumpOutOfRangeHalts(t *testing.T) {
	program := []*big.Int{
		build(t, codec.Push, 50),
		build(t, codec.Jump),
	}
	m := newMachine(t, program)
	runToHaltOrInput(t, m, 100)
	require.True(t, m.Halted)
	require.NotNil(t, m.Err)
	assert.Equal(t, vmerr.AddressOutOfRange, m.Err.Kind)
}

func TestOpRandomBoundsResultAndRejectsNonPositive(t *testing.T) {
	program := []*big.Int{
		build(t, codec.Push, 6),
		build(t, codec.OpRandom),
		build(t, codec.Halt),
	}
	m := newMachine(t, program)
	runToHaltOrInput(t, m, 100)
	require.True(t, m.Halted)
	require.Nil(t, m.Err)
	require.Len(t, m.Stack, 1)
	r := m.Stack[0].Int64()
	assert.True(t, r >= 0 && r < 6)

	program2 := []*big.Int{
		build(t, codec.Push, 0),
		build(t, codec.OpRandom),
	}
	m2 := newMachine(t, program2)
	runToHaltOrInput(t, m2, 100)
	require.True(t, m2.Halted)
	require.NotNil(t, m2.Err)
	assert.Equal(t, vmerr.NegativeRandomBound, m2.Err.Kind)
}

func TestOpInputSuspendsAndResumes(t *testing.T) {
	program := []*big.Int{
		build(t, codec.OpInput),
		build(t, codec.Halt),
	}
	m := newMachine(t, program)
	require.NoError(t, m.Step())
	assert.True(t, m.PendingInput)
	assert.False(t, m.Halted)
	assert.Equal(t, 0, m.IP)

	// Step is a no-op while suspended.
	require.NoError(t, m.Step())
	assert.True(t, m.PendingInput)

	require.NoError(t, m.ProvideInput(big.NewInt(7)))
	assert.False(t, m.PendingInput)
	assert.Equal(t, 1, m.IP)
	require.Len(t, m.Stack, 1)
	assert.Equal(t, int64(7), m.Stack[0].Int64())

	require.NoError(t, m.Step())
	assert.True(t, m.Halted)
}

func TestPeekChunkAndPokeChunk(t *testing.T) {
	replacement := build(t, codec.Push, 11)
	program := []*big.Int{build(t, codec.Nop), build(t, codec.Halt)}
	m := newMachine(t, program)

	// chunk,addr -> -- : push replacement chunk, then target address 0.
	require.NoError(t, m.push(replacement))
	require.NoError(t, m.push(big.NewInt(0)))
	require.NoError(t, m.execPokeChunk())
	assert.Equal(t, replacement, m.Program[0])

	require.NoError(t, m.push(big.NewInt(0)))
	require.NoError(t, m.execPeekChunk())
	top, err := m.peek()
	require.NoError(t, err)
	assert.Equal(t, 0, top.Cmp(replacement))
}

func TestPokeChunkRejectsUndecodableChunk(t *testing.T) {
	program := []*big.Int{build(t, codec.Nop), build(t, codec.Halt)}
	m := newMachine(t, program)

	garbage := big.NewInt(999983) // a bare prime, no opcode/checksum structure
	require.NoError(t, m.push(garbage))
	require.NoError(t, m.push(big.NewInt(0)))
	err := m.execPokeChunk()
	require.Error(t, err)
}

func TestFactorizePushesOpcodeIndexThenOperands(t *testing.T) {
	chunk := build(t, codec.Push, 42)
	program := []*big.Int{build(t, codec.Nop), build(t, codec.Halt)}
	m := newMachine(t, program)

	require.NoError(t, m.push(chunk))
	require.NoError(t, m.execFactorize())
	require.Len(t, m.Stack, 2)
	assert.Equal(t, int64(codec.Push), m.Stack[0].Int64())
	assert.Equal(t, int64(42), m.Stack[1].Int64())
}

func TestBuildChunkRoundTripsThroughDecode(t *testing.T) {
	// Build the Nop chunk manually via BuildChunk's wire format: a
	// single (exp=1,prime_idx=Nop's reserved index) pair.
	program := []*big.Int{build(t, codec.Nop), build(t, codec.Halt)}
	m := newMachine(t, program)

	nopPrimeIdx := int64(0) // Nop is opcode 0, reserved first
	require.NoError(t, m.push(big.NewInt(nopPrimeIdx)))
	require.NoError(t, m.push(big.NewInt(1))) // exponent
	require.NoError(t, m.push(big.NewInt(1))) // one pair

	require.NoError(t, m.execBuildChunk())
	require.Len(t, m.Stack, 1)

	dec, err := codec.Decode(m.Stack[0])
	require.NoError(t, err)
	assert.Equal(t, codec.Nop, dec.Opcode)
}

func TestStackUnderflowHalts(t *testing.T) {
	program := []*big.Int{build(t, codec.Add)}
	m := newMachine(t, program)
	runToHaltOrInput(t, m, 10)
	require.True(t, m.Halted)
	require.NotNil(t, m.Err)
	assert.Equal(t, vmerr.StackUnderflow, m.Err.Kind)
}

func TestArithmeticOverflowHalts(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 100)
	program := []*big.Int{build(t, codec.Nop)}
	m := newMachine(t, program)
	require.NoError(t, m.push(huge))
	require.NoError(t, m.push(huge))
	err := m.execBinaryArith(func(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) })
	require.Error(t, err)
	ve, ok := err.(*vmerr.Error)
	require.True(t, ok)
	assert.Equal(t, vmerr.ArithmeticOverflow, ve.Kind)
}

func TestDebugAssertsFrameDepthAtLoopHead(t *testing.T) {
	program := []*big.Int{build(t, codec.Nop), build(t, codec.Halt)}
	m := newMachine(t, program)
	m.Debug = true
	m.ExpectedFrameDepth = 4
	err := m.Step()
	require.Error(t, err)
	assert.True(t, m.Halted)
}

func TestNewRejectsUndecodableProgram(t *testing.T) {
	bad := []*big.Int{big.NewInt(999983)}
	_, err := New(bad, config.DefaultConfig(), 1)
	require.Error(t, err)
}

func TestStackOverflowHalts(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxStackDepth = 1
	program := []*big.Int{
		build(t, codec.Push, 1),
		build(t, codec.Push, 2),
	}
	m, err := New(program, cfg, 1)
	require.NoError(t, err)
	runToHaltOrInput(t, m, 10)
	require.True(t, m.Halted)
	require.NotNil(t, m.Err)
	assert.Equal(t, vmerr.StackOverflow, m.Err.Kind)
}
