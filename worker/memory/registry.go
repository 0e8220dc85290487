// Package memory implements an in-process worker registry. It is intended
// for tests and single-process deployments where workers and the measuring
// side share one process.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/workscale/backlog/id"
	"github.com/workscale/backlog/inspect"
	"github.com/workscale/backlog/worker"
)

// Compile-time interface checks.
var (
	_ worker.Registry = (*Registry)(nil)
	_ inspect.Client  = (*Registry)(nil)
)

type entry struct {
	worker *worker.Worker
	tasks  map[inspect.Status][]inspect.Task
}

// Registry is a mutex-guarded in-memory worker registry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a worker to the registry.
func (r *Registry) Register(_ context.Context, w *worker.Worker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *w
	if cp.State == "" {
		cp.State = worker.StateActive
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	if cp.LastSeen.IsZero() {
		cp.LastSeen = cp.CreatedAt
	}

	r.entries[w.ID.String()] = &entry{
		worker: &cp,
		tasks:  make(map[inspect.Status][]inspect.Task),
	}
	return nil
}

// Deregister removes a worker and its task snapshots.
func (r *Registry) Deregister(_ context.Context, workerID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := workerID.String()
	if _, ok := r.entries[key]; !ok {
		return worker.ErrNotFound
	}
	delete(r.entries, key)
	return nil
}

// Heartbeat updates the worker's last-seen timestamp.
func (r *Registry) Heartbeat(_ context.Context, workerID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[workerID.String()]
	if !ok {
		return worker.ErrNotFound
	}
	e.worker.LastSeen = time.Now().UTC()
	return nil
}

// SetTasks replaces the worker's task snapshot for one status.
func (r *Registry) SetTasks(_ context.Context, workerID id.ID, status inspect.Status, tasks []inspect.Task) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", inspect.ErrInvalidStatus, status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[workerID.String()]
	if !ok {
		return worker.ErrNotFound
	}
	e.tasks[status] = append([]inspect.Task(nil), tasks...)
	return nil
}

// Workers returns all registered workers.
func (r *Registry) Workers(_ context.Context) ([]*worker.Worker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workers := make([]*worker.Worker, 0, len(r.entries))
	for _, e := range r.entries {
		cp := *e.worker
		workers = append(workers, &cp)
	}
	return workers, nil
}

// ActiveQueues returns the consumer bindings of every live worker, keyed by
// worker ID.
func (r *Registry) ActiveQueues(_ context.Context) (map[string][]inspect.Binding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]inspect.Binding)
	for key, e := range r.entries {
		if e.worker.State == worker.StateDead {
			continue
		}
		out[key] = append([]inspect.Binding(nil), e.worker.Bindings...)
	}
	return out, nil
}

// Tasks returns every live worker's task snapshot for the given status,
// keyed by worker ID.
func (r *Registry) Tasks(_ context.Context, status inspect.Status) (map[string][]inspect.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", inspect.ErrInvalidStatus, status)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]inspect.Task)
	for key, e := range r.entries {
		if e.worker.State == worker.StateDead {
			continue
		}
		out[key] = append([]inspect.Task(nil), e.tasks[status]...)
	}
	return out, nil
}
