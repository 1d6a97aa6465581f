package primeos

import (
	"fmt"

	"github.com/primeos/primeos-vm/internal/primeos/controller"
	"github.com/primeos/primeos-vm/internal/primeos/teacher"
)

// Controller is the public interface over one hosted VM instance: the
// three synchronous operations at PrimeOS's system boundary.
type Controller interface {
	// Init constructs a fresh VM, loads the canonical goal-seeker
	// program, and chooses an initial target.
	Init() (Snapshot, error)

	// Step executes exactly one instruction. It is a no-op returning
	// the current snapshot if the VM is halted or suspended.
	Step() (Snapshot, error)

	// ProvideInput resumes a suspended VM. A nil value asks the
	// Teacher for one appropriate to the current phase.
	ProvideInput(value *int64) (Snapshot, error)
}

// controllerImpl adapts the internal controller.Controller to the
// public Controller interface, the same internal-engine-behind-a-
// translation-boundary split the VM core's own teacher-repo ancestor
// uses for its vmImpl/VM pair.
type controllerImpl struct {
	inner *controller.Controller
}

// NewController constructs a Controller with a default deterministic
// Teacher seeded by seed, rejecting an invalid cfg up front.
func NewController(cfg Config, seed int64) (Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("primeos: invalid config: %w", err)
	}
	return &controllerImpl{
		inner: controller.New(teacher.NewDefault(seed), cfg, seed),
	}, nil
}

func (c *controllerImpl) Init() (Snapshot, error) {
	return c.inner.Init()
}

func (c *controllerImpl) Step() (Snapshot, error) {
	return c.inner.Step()
}

func (c *controllerImpl) ProvideInput(value *int64) (Snapshot, error) {
	return c.inner.ProvideInput(value)
}
