package panel

import (
	"errors"
	"fmt"
	"sync"
)

// Sentinel errors for panel registration and lookup.
var (
	// ErrUnknownPanel indicates a panel ID was requested that was never
	// registered. This is a programmer error: the registry and the
	// transition table have drifted apart.
	ErrUnknownPanel = errors.New("unknown panel")

	// ErrDuplicatePanel indicates a second registration for the same ID.
	ErrDuplicatePanel = errors.New("panel already registered")
)

// Registry maps panel IDs to tasks.
type Registry struct {
	mu    sync.RWMutex
	tasks map[ID]Task
	order []ID
}

// NewRegistry creates an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[ID]Task)}
}

// Register binds task to id. Registering an ID twice or a nil task is an error.
func (r *Registry) Register(id ID, task Task) error {
	if id == "" {
		return errors.New("panel id must not be empty")
	}
	if task == nil {
		return fmt.Errorf("panel %q: task must not be nil", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePanel, id)
	}
	r.tasks[id] = task
	r.order = append(r.order, id)
	return nil
}

// Resolve returns the task registered for id, or an error wrapping
// [ErrUnknownPanel].
func (r *Registry) Resolve(id ID) (Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPanel, id)
	}
	return task, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tasks[id]
	return ok
}

// IDs returns the registered IDs in registration order.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ID, len(r.order))
	copy(ids, r.order)
	return ids
}
