// Package vmcore implements the PrimeOS stack machine: program memory,
// stack, instruction pointer, output log, and the fetch-decode-dispatch
// step loop, wired to PrimeOS's prime-factorization codec instead of
// field elements.
package vmcore

import (
	"math/big"
	"math/rand"

	"github.com/primeos/primeos-vm/internal/primeos/codec"
	"github.com/primeos/primeos-vm/internal/primeos/config"
	"github.com/primeos/primeos-vm/internal/primeos/vmerr"
)

// Machine is the complete state of one PrimeOS VM instance.
type Machine struct {
	Program []*big.Int
	Stack   []*big.Int
	IP      int
	Output  []*big.Int

	Halted       bool
	Err          *vmerr.Error
	PendingInput bool

	// Debug, when set, asserts the stack depth at the top of the main
	// loop (IP == 0) against ExpectedFrameDepth: a safeguard for the
	// goal-seeker's stack-carried state frame.
	Debug              bool
	ExpectedFrameDepth int

	cfg   config.Config
	cache *codec.Cache
	rng   *rand.Rand
}

// New constructs a Machine with the given program memory already
// loaded. Every chunk must decode successfully; New returns the first
// decode failure it finds.
func New(program []*big.Int, cfg config.Config, seed int64) (*Machine, error) {
	cache := codec.NewCache()
	for addr, chunk := range program {
		if _, err := cache.Decode(chunk); err != nil {
			return nil, vmerr.Wrap(err.(*vmerr.Error).Kind, err,
				"program memory cell %d does not decode", addr)
		}
	}

	m := &Machine{
		Program: program,
		Stack:   make([]*big.Int, 0, 64),
		Output:  make([]*big.Int, 0, 64),
		cfg:     cfg,
		cache:   cache,
		rng:     rand.New(rand.NewSource(seed)),
	}
	return m, nil
}

// Step fetches, decodes, and dispatches exactly one instruction. It is
// a no-op (returning nil without touching state) when the machine is
// halted or suspended inside OpInput; the controller is what decides
// whether to call Step again.
func (m *Machine) Step() error {
	if m.Halted || m.PendingInput {
		return nil
	}

	if m.Debug && m.IP == 0 && len(m.Stack) != m.ExpectedFrameDepth {
		err := vmerr.New(vmerr.Unknown,
			"debug: stack depth %d at loop head, want %d", len(m.Stack), m.ExpectedFrameDepth)
		m.fail(err)
		return err
	}

	chunk, err := m.fetch()
	if err != nil {
		m.fail(err)
		return err
	}

	dec, err := m.cache.Decode(chunk)
	if err != nil {
		vErr := err.(*vmerr.Error)
		m.fail(vErr)
		return vErr
	}

	if err := m.dispatch(dec); err != nil {
		m.fail(err)
		return err
	}
	return nil
}

// PushInitial seeds the stack before the machine ever steps, for the
// controller's Init to lay down the goal-seeker's carried state frame.
// Callers must not use it once Step has run.
func (m *Machine) PushInitial(v *big.Int) error {
	return m.push(v)
}

// ProvideInput resumes a VM suspended inside OpInput: it pushes value
// and advances IP past the OpInput instruction.
func (m *Machine) ProvideInput(value *big.Int) error {
	if !m.PendingInput {
		return vmerr.New(vmerr.Unknown, "provide_input called but machine is not suspended")
	}
	m.PendingInput = false
	if err := m.push(value); err != nil {
		m.fail(err)
		return err
	}
	m.advance()
	return nil
}

func (m *Machine) fetch() (*big.Int, error) {
	if m.IP < 0 || m.IP >= len(m.Program) {
		return nil, vmerr.New(vmerr.AddressOutOfRange, "instruction pointer %d out of range [0,%d)", m.IP, len(m.Program))
	}
	return m.Program[m.IP], nil
}

func (m *Machine) fail(err error) {
	m.Halted = true
	if ve, ok := err.(*vmerr.Error); ok {
		m.Err = ve
	} else {
		m.Err = vmerr.Wrap(vmerr.Unknown, err, "unclassified error")
	}
}

func (m *Machine) advance() {
	m.IP++
}

// --- stack helpers ---

func (m *Machine) push(v *big.Int) error {
	if len(m.Stack) >= m.cfg.MaxStackDepth {
		return vmerr.New(vmerr.StackOverflow, "stack depth would exceed cap of %d", m.cfg.MaxStackDepth)
	}
	m.Stack = append(m.Stack, new(big.Int).Set(v))
	return nil
}

func (m *Machine) pop() (*big.Int, error) {
	if len(m.Stack) == 0 {
		return nil, vmerr.New(vmerr.StackUnderflow, "pop from empty stack")
	}
	top := m.Stack[len(m.Stack)-1]
	m.Stack = m.Stack[:len(m.Stack)-1]
	return top, nil
}

func (m *Machine) peek() (*big.Int, error) {
	if len(m.Stack) == 0 {
		return nil, vmerr.New(vmerr.StackUnderflow, "peek on empty stack")
	}
	return m.Stack[len(m.Stack)-1], nil
}
