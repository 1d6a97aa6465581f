// Package sessions hosts multiple concurrent Controller instances
// behind a uuid-keyed registry, for a server exposing one VM per
// caller. The shared prime table already takes this for granted
// (internal/primeos/prime's RWMutex); this registry gives the
// session-level boundary the same treatment.
package sessions

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/primeos/primeos-vm/internal/primeos/config"
	"github.com/primeos/primeos-vm/internal/primeos/controller"
	"github.com/primeos/primeos-vm/internal/primeos/teacher"
)

// Registry maps session IDs to their Controller. Per-session state is
// never shared across entries: the registry only serializes the map
// itself, not access to any individual Controller.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*controller.Controller
	cfg      config.Config
	seed     int64
}

// New returns an empty Registry. cfg and seed are applied to every
// session it creates; seed is offset per session so sessions drawing
// pseudo-random values don't all replay the same sequence.
func New(cfg config.Config, seed int64) *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*controller.Controller),
		cfg:      cfg,
		seed:     seed,
	}
}

// Create starts a new session: a fresh Controller, already initialized.
// It returns the new session's ID and its post-init snapshot.
func (r *Registry) Create() (uuid.UUID, controller.Snapshot, error) {
	r.mu.Lock()
	n := len(r.sessions)
	r.mu.Unlock()

	id := uuid.New()
	c := controller.New(teacher.NewDefault(r.seed+int64(n)), r.cfg, r.seed+int64(n))
	snap, err := c.Init()
	if err != nil {
		return uuid.Nil, controller.Snapshot{}, fmt.Errorf("sessions: init failed: %w", err)
	}

	r.mu.Lock()
	r.sessions[id] = c
	r.mu.Unlock()

	return id, snap, nil
}

// Get returns the Controller for id, or false if no such session
// exists.
func (r *Registry) Get(id uuid.UUID) (*controller.Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.sessions[id]
	return c, ok
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (r *Registry) Delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len reports how many sessions are currently registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
