// Package platform holds the shared growth state that panel tasks and the
// rotation driver read and mutate.
//
// The state is a small record ([Context]) kept in a [Store]. It is created
// once at startup from configured defaults, mutated in place for the life of
// the session, and never persisted.
//
// Key types:
//   - [Context] - Snapshot of the simulated platform (feature, users, infrastructure)
//   - [Store] - Holder with snapshot reads and whole-record updates
//   - [Mutator] - Pure function producing the next Context from the current one
package platform

import (
	"fmt"
	"sync"
)

// Context is the simulated platform state threaded through every panel task.
type Context struct {
	// Feature is the product feature currently being built and marketed.
	Feature string `json:"feature" yaml:"feature"`

	// UserCount is the simulated number of platform users. Never negative.
	UserCount int `json:"user_count" yaml:"user_count"`

	// Infrastructure is a label for the current deployment target.
	Infrastructure string `json:"infrastructure" yaml:"infrastructure"`
}

// Validate reports whether the context satisfies its invariants.
func (c Context) Validate() error {
	if c.UserCount < 0 {
		return fmt.Errorf("user count must be >= 0, got %d", c.UserCount)
	}
	return nil
}

// Mutator maps the current context to the next one.
//
// Mutators must not retain or modify anything outside the returned value.
type Mutator func(Context) Context

// Store holds the single live [Context] for a session.
//
// Only one task runs at a time, so writers never overlap. The mutex exists
// because front ends read snapshots from their own goroutines; a future
// multi-task extension would additionally need to serialize Update calls
// across tasks rather than rely on the loop's single-flight guarantee.
type Store struct {
	mu  sync.RWMutex
	ctx Context
}

// NewStore creates a [Store] seeded with the given initial context.
func NewStore(initial Context) *Store {
	return &Store{ctx: initial}
}

// Get returns a snapshot of the current context.
func (s *Store) Get() Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// Update replaces the context with the mutator's result.
//
// The replacement is all-or-nothing: if the mutated value fails
// [Context.Validate] the previous context is kept and the error returned.
func (s *Store) Update(m Mutator) error {
	if m == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := m(s.ctx)
	if err := next.Validate(); err != nil {
		return fmt.Errorf("rejected context update: %w", err)
	}
	s.ctx = next
	return nil
}
