// Package controller mediates between the VM core and the Teacher: it
// owns a Machine instance, decides when a suspension expects feedback
// versus a new target, and assembles the VM snapshot external callers
// see. It plays the same internal-engine-plus-translation-boundary
// role a public VM wrapper plays over an internal machine state.
package controller

import (
	"fmt"
	"math/big"

	"github.com/primeos/primeos-vm/internal/primeos/codec"
	"github.com/primeos/primeos-vm/internal/primeos/config"
	"github.com/primeos/primeos-vm/internal/primeos/goalseeker"
	"github.com/primeos/primeos-vm/internal/primeos/teacher"
	"github.com/primeos/primeos-vm/internal/primeos/vmcore"
)

// Phase names the kind of value a suspended VM is waiting for.
// Tracking it is derived from the controller's own history of what it
// last sent in, never from inspecting the suspended opcode.
type Phase string

const (
	PhaseIdle                  Phase = "IDLE"
	PhaseAwaitingAttemptResult Phase = "AWAITING_ATTEMPT_RESULT"
	PhaseSendTarget            Phase = "SEND_TARGET"
)

// ProgramMemoryEntry is one cell of the VM snapshot's program_memory
// array.
type ProgramMemoryEntry struct {
	Address int
	Raw     *big.Int
	Decoded string
}

// Snapshot is the full observable VM state returned by every
// controller operation.
type Snapshot struct {
	InstructionPointer int
	Stack              []*big.Int
	OutputLog          []*big.Int
	Halted             bool
	Err                error
	ProgramMemory      []ProgramMemoryEntry
	NeedsInput         bool
	InteractionPhase   Phase
	CurrentTarget      *int
	DifficultyLevel    string
	AttemptsOnTarget   int
}

// Controller owns one VM instance end to end: init, single-stepping,
// and resuming suspended OP_INPUTs, deriving feedback and targets from
// a Teacher when the caller doesn't supply them directly.
type Controller struct {
	machine *vmcore.Machine
	teacher teacher.Teacher
	cfg     config.Config
	seed    int64

	initialized      bool
	phase            Phase
	currentTarget    int
	attemptsOnTarget int
	lastFeedback     int64
}

// New constructs a Controller bound to t and cfg. The Machine itself is
// only created on Init.
func New(t teacher.Teacher, cfg config.Config, seed int64) *Controller {
	return &Controller{teacher: t, cfg: cfg, seed: seed, phase: PhaseIdle}
}

// Init constructs a fresh Machine, loads the canonical goal-seeker
// program, chooses an initial target via the Teacher, and seeds the
// four-element state frame and address-0 Push.
func (c *Controller) Init() (Snapshot, error) {
	c.teacher.Reset()

	program, err := goalseeker.Program()
	if err != nil {
		return Snapshot{}, fmt.Errorf("controller: assembling goal-seeker program: %w", err)
	}

	m, err := vmcore.New(program, c.cfg, c.seed)
	if err != nil {
		return Snapshot{}, fmt.Errorf("controller: constructing machine: %w", err)
	}
	m.Debug = true
	m.ExpectedFrameDepth = 4

	target := c.teacher.ChooseInitialTarget()
	chunk, err := codec.Build(codec.Push, []int64{int64(target)})
	if err != nil {
		return Snapshot{}, fmt.Errorf("controller: encoding initial target: %w", err)
	}
	m.Program[goalseeker.Address0] = chunk

	for _, v := range []int64{0, 0, int64(target), 0} {
		if err := m.PushInitial(big.NewInt(v)); err != nil {
			return Snapshot{}, fmt.Errorf("controller: seeding state frame: %w", err)
		}
	}

	c.machine = m
	c.initialized = true
	c.phase = PhaseAwaitingAttemptResult
	c.currentTarget = target
	c.attemptsOnTarget = 0

	return c.snapshot(), nil
}

// Step executes exactly one instruction, or is a no-op returning the
// current snapshot if the machine is halted or suspended. Called before
// Init, it returns an error.
func (c *Controller) Step() (Snapshot, error) {
	if !c.initialized {
		return Snapshot{}, fmt.Errorf("controller: step called before init")
	}
	if c.machine.Halted || c.machine.PendingInput {
		return c.snapshot(), nil
	}
	if err := c.machine.Step(); err != nil {
		return c.snapshot(), nil // the error is already captured on the machine
	}
	return c.snapshot(), nil
}

// ProvideInput resumes a suspended machine. If value is nil, the
// controller derives one from the Teacher according to the current
// phase; otherwise value is passed through unchanged.
func (c *Controller) ProvideInput(value *int64) (Snapshot, error) {
	if !c.initialized {
		return Snapshot{}, fmt.Errorf("controller: provide_input called before init")
	}
	if !c.machine.PendingInput {
		return c.snapshot(), nil
	}

	var v int64
	switch c.phase {
	case PhaseAwaitingAttemptResult:
		if value != nil {
			v = *value
		} else {
			attempt := c.lastOutput()
			if c.teacher.Evaluate(int(attempt)) {
				v = 1
			} else {
				v = 0
			}
		}
		c.lastFeedback = v
		if v == 1 {
			c.phase = PhaseSendTarget
		} else {
			c.attemptsOnTarget++
			c.phase = PhaseAwaitingAttemptResult
		}

	case PhaseSendTarget:
		if value != nil {
			v = *value
		} else {
			v = int64(c.teacher.NextTarget(true, c.attemptsOnTarget+1))
		}
		c.currentTarget = int(v)
		c.attemptsOnTarget = 0
		c.phase = PhaseAwaitingAttemptResult

	default:
		if value != nil {
			v = *value
		}
	}

	if err := c.machine.ProvideInput(big.NewInt(v)); err != nil {
		return c.snapshot(), nil
	}
	return c.snapshot(), nil
}

func (c *Controller) lastOutput() int64 {
	if len(c.machine.Output) == 0 {
		return 0
	}
	return c.machine.Output[len(c.machine.Output)-1].Int64()
}

func (c *Controller) snapshot() Snapshot {
	m := c.machine
	target := c.currentTarget
	mem := make([]ProgramMemoryEntry, len(m.Program))
	for i, chunk := range m.Program {
		mem[i] = ProgramMemoryEntry{
			Address: i,
			Raw:     chunk,
			Decoded: decodeForDisplay(chunk),
		}
	}

	phase := c.phase
	if m.Halted {
		phase = PhaseIdle
	}

	var errOut error
	if m.Err != nil {
		errOut = m.Err
	}

	return Snapshot{
		InstructionPointer: m.IP,
		Stack:              m.Stack,
		OutputLog:          m.Output,
		Halted:             m.Halted,
		Err:                errOut,
		ProgramMemory:      mem,
		NeedsInput:         m.PendingInput,
		InteractionPhase:   phase,
		CurrentTarget:      &target,
		DifficultyLevel:    c.teacher.DifficultyLabel(),
		AttemptsOnTarget:   c.attemptsOnTarget,
	}
}

// decodeForDisplay renders a program-memory cell as a human-readable
// OPCODE(operand, ...) string for the snapshot's program_memory.decoded
// field. An undecodable chunk (never produced by this VM's own
// PokeChunk path, which validates first) falls back to reporting the
// decode failure rather than panicking.
func decodeForDisplay(chunk *big.Int) string {
	dec, err := codec.Decode(chunk)
	if err != nil {
		return fmt.Sprintf("<undecodable: %v>", err)
	}
	if len(dec.Operands) == 0 {
		return dec.Opcode.String() + "()"
	}
	s := dec.Opcode.String() + "("
	for i, op := range dec.Operands {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%d", op)
	}
	return s + ")"
}
