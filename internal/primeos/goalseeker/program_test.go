package goalseeker

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/primeos/primeos-vm/internal/primeos/codec"
	"github.com/primeos/primeos-vm/internal/primeos/config"
	"github.com/primeos/primeos-vm/internal/primeos/vmcore"
)

// newSeededMachine builds a Machine running the canonical program with
// address 0 pre-poked to Push(initialTarget) and the four-element state
// frame seeded the way the controller's Init is expected to.
func newSeededMachine(t *testing.T, initialTarget int64, seed int64) *vmcore.Machine {
	t.Helper()
	program, err := Program()
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	m, err := vmcore.New(program, cfg, seed)
	require.NoError(t, err)
	m.Debug = true
	m.ExpectedFrameDepth = 4

	chunk, err := codec.Build(codec.Push, []int64{initialTarget})
	require.NoError(t, err)
	m.Program[Address0] = chunk

	for _, v := range []int64{0, 0, initialTarget, 0} {
		require.NoError(t, m.PushInitial(big.NewInt(v)))
	}
	return m
}

func runUntilNextInput(t *testing.T, m *vmcore.Machine) {
	t.Helper()
	for i := 0; i < 10_000; i++ {
		if m.Halted || m.PendingInput {
			return
		}
		require.NoError(t, m.Step())
	}
	t.Fatal("machine did not reach a suspension point")
}

func TestProgramAssemblesAndDecodes(t *testing.T) {
	program, err := Program()
	require.NoError(t, err)
	require.NotEmpty(t, program)

	for addr, chunk := range program {
		_, err := codec.Decode(chunk)
		require.NoErrorf(t, err, "address %d does not decode", addr)
	}
}

func TestImmediateSuccessPrintsAttemptThenNewTarget(t *testing.T) {
	m := newSeededMachine(t, 4, 1)

	runUntilNextInput(t, m)
	require.True(t, m.PendingInput)
	require.Len(t, m.Output, 1)
	require.Equal(t, int64(4), m.Output[0].Int64())

	require.NoError(t, m.ProvideInput(big.NewInt(1))) // success feedback
	runUntilNextInput(t, m)
	require.NoError(t, m.ProvideInput(big.NewInt(7))) // new target

	runUntilNextInput(t, m)
	require.True(t, m.PendingInput)
	require.Len(t, m.Output, 2)
	require.Equal(t, int64(7), m.Output[1].Int64())
}

func TestStuckSignalPrintedOnceAtThreshold(t *testing.T) {
	m := newSeededMachine(t, 4, 1)

	stuckPrints := 0
	for i := 0; i < 3; i++ {
		runUntilNextInput(t, m)
		require.True(t, m.PendingInput)
		require.NoError(t, m.ProvideInput(big.NewInt(0))) // failure feedback
		runUntilNextInput(t, m)
	}
	for _, v := range m.Output {
		if v.Int64() == stuckSignal {
			stuckPrints++
		}
	}
	require.Equal(t, 1, stuckPrints)
}

func TestSelfModificationVisibleInProgramMemory(t *testing.T) {
	m := newSeededMachine(t, 4, 1)

	decBefore, err := codec.Decode(m.Program[Address0])
	require.NoError(t, err)
	require.Equal(t, codec.Push, decBefore.Opcode)
	require.Equal(t, int64(4), decBefore.Operands[0])

	runUntilNextInput(t, m)
	require.NoError(t, m.ProvideInput(big.NewInt(0))) // failure
	runUntilNextInput(t, m)
	require.True(t, m.PendingInput)

	decAfter, err := codec.Decode(m.Program[Address0])
	require.NoError(t, err)
	require.Equal(t, codec.Push, decAfter.Opcode)
	require.NotEqual(t, decBefore.Operands[0], decAfter.Operands[0])

	decSlot1, err := codec.Decode(m.Program[Address1])
	require.NoError(t, err)
	require.Equal(t, codec.Nop, decSlot1.Opcode)
}
