package worker

import (
	"context"
	"errors"
	"time"

	"github.com/workscale/backlog/id"
	"github.com/workscale/backlog/inspect"
)

// ErrNotFound is returned for operations on a worker that is not registered.
var ErrNotFound = errors.New("worker: not found")

// State represents the lifecycle state of a worker.
type State string

const (
	// StateActive means the worker is healthy and consuming tasks.
	StateActive State = "active"
	// StateDraining means the worker is finishing in-flight tasks but not
	// accepting new ones.
	StateDraining State = "draining"
	// StateDead means the worker stopped heartbeating. Dead workers are
	// excluded from inspection.
	StateDead State = "dead"
)

// Worker is one registered worker process.
type Worker struct {
	ID        id.ID             `json:"id"`
	Hostname  string            `json:"hostname"`
	Bindings  []inspect.Binding `json:"bindings"`
	State     State             `json:"state"`
	LastSeen  time.Time         `json:"last_seen"`
	CreatedAt time.Time         `json:"created_at"`
}

// Registry is the write side of worker state. Implementations also satisfy
// inspect.Client over the same data, making registered workers visible to
// depth measurement.
//
// Registries are safe for concurrent use; many workers heartbeat at once.
type Registry interface {
	// Register adds a worker to the registry.
	Register(ctx context.Context, w *Worker) error

	// Deregister removes a worker and its task snapshots.
	Deregister(ctx context.Context, workerID id.ID) error

	// Heartbeat updates the worker's last-seen timestamp.
	Heartbeat(ctx context.Context, workerID id.ID) error

	// SetTasks replaces the worker's task snapshot for one status.
	SetTasks(ctx context.Context, workerID id.ID, status inspect.Status, tasks []inspect.Task) error

	// Workers returns all registered workers.
	Workers(ctx context.Context) ([]*Worker, error)
}
