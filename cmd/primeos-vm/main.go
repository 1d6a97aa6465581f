// Command primeos-vm drives one PrimeOS session from line-delimited
// JSON on stdin, writing one JSON snapshot per line to stdout. Each
// input line is a single command, and the driver's loop runs for the
// process lifetime, one command in, one snapshot out.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/primeos/primeos-vm/pkg/primeos"
)

// command is one line of driver input: {"op":"init"}, {"op":"step"},
// or {"op":"provide_input","value":1}. value is omitted to let the
// Teacher supply one.
type command struct {
	Op    string `json:"op"`
	Value *int64 `json:"value,omitempty"`
}

// programMemoryEntry mirrors primeos.ProgramMemoryEntry with a
// JSON-safe raw chunk: chunks are products of primes and can exceed
// 64 bits.
type programMemoryEntry struct {
	Address int    `json:"address"`
	Raw     string `json:"raw_chunk"`
	Decoded string `json:"decoded"`
}

// snapshotOutput mirrors controller.Snapshot in snake_case, with
// big.Int-valued fields rendered as decimal strings.
type snapshotOutput struct {
	InstructionPointer int                   `json:"instruction_pointer"`
	Stack              []string              `json:"stack"`
	OutputLog          []string              `json:"output_log"`
	Halted             bool                  `json:"halted"`
	Error              *string               `json:"error"`
	ProgramMemory      []programMemoryEntry  `json:"program_memory"`
	NeedsInput         bool                  `json:"needs_input"`
	InteractionPhase   string                `json:"interaction_phase"`
	CurrentTarget      *int                  `json:"current_target"`
	DifficultyLevel    string                `json:"difficulty_level"`
	AttemptsOnTarget   int                   `json:"attempts_on_target"`
}

func toOutput(snap primeos.Snapshot) snapshotOutput {
	stack := make([]string, len(snap.Stack))
	for i, v := range snap.Stack {
		stack[i] = v.String()
	}
	output := make([]string, len(snap.OutputLog))
	for i, v := range snap.OutputLog {
		output[i] = v.String()
	}
	mem := make([]programMemoryEntry, len(snap.ProgramMemory))
	for i, e := range snap.ProgramMemory {
		mem[i] = programMemoryEntry{Address: e.Address, Raw: e.Raw.String(), Decoded: e.Decoded}
	}
	var errStr *string
	if snap.Err != nil {
		s := snap.Err.Error()
		errStr = &s
	}

	return snapshotOutput{
		InstructionPointer: snap.InstructionPointer,
		Stack:              stack,
		OutputLog:          output,
		Halted:             snap.Halted,
		Error:              errStr,
		ProgramMemory:      mem,
		NeedsInput:         snap.NeedsInput,
		InteractionPhase:   string(snap.InteractionPhase),
		CurrentTarget:      snap.CurrentTarget,
		DifficultyLevel:    snap.DifficultyLevel,
		AttemptsOnTarget:   snap.AttemptsOnTarget,
	}
}

func main() {
	cfg := primeos.DefaultConfig()
	controller, err := primeos.NewController(cfg, 1)
	if err != nil {
		fatal(fmt.Sprintf("failed to construct controller: %v", err))
	}

	out := json.NewEncoder(os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var cmd command
		if err := json.Unmarshal(line, &cmd); err != nil {
			fatal(fmt.Sprintf("failed to parse command: %v", err))
		}

		var snap primeos.Snapshot
		var opErr error
		switch cmd.Op {
		case "init":
			snap, opErr = controller.Init()
		case "step":
			snap, opErr = controller.Step()
		case "provide_input":
			snap, opErr = controller.ProvideInput(cmd.Value)
		default:
			fatal(fmt.Sprintf("unknown op: %q", cmd.Op))
		}
		if opErr != nil {
			fatal(fmt.Sprintf("%s failed: %v", cmd.Op, opErr))
		}

		if err := out.Encode(toOutput(snap)); err != nil {
			fatal(fmt.Sprintf("failed to write snapshot: %v", err))
		}
	}
	if err := scanner.Err(); err != nil {
		fatal(fmt.Sprintf("failed to read stdin: %v", err))
	}
}

func logStderr(msg string) {
	fmt.Fprintln(os.Stderr, "primeos-vm:", msg)
}

func fatal(msg string) {
	logStderr("ERROR: " + msg)
	os.Exit(1)
}
