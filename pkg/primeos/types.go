package primeos

import (
	"github.com/primeos/primeos-vm/internal/primeos/config"
	"github.com/primeos/primeos-vm/internal/primeos/controller"
)

// Config collects the VM-wide tunable constants (checksum modulus,
// attempt modulus, stuck-signal bookkeeping, stack cap, RNG seed).
type Config = config.Config

// DefaultConfig returns the canonical PrimeOS constants.
func DefaultConfig() Config {
	return config.DefaultConfig()
}

// Phase names the kind of value a suspended VM is waiting for.
type Phase = controller.Phase

const (
	PhaseIdle                  = controller.PhaseIdle
	PhaseAwaitingAttemptResult = controller.PhaseAwaitingAttemptResult
	PhaseSendTarget            = controller.PhaseSendTarget
)

// ProgramMemoryEntry is one cell of a Snapshot's program memory.
type ProgramMemoryEntry = controller.ProgramMemoryEntry

// Snapshot is the full observable VM state returned by every
// Controller operation.
type Snapshot = controller.Snapshot
