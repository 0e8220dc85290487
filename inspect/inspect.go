package inspect

import (
	"context"
	"errors"
)

var (
	// ErrInvalidStatus is returned for a task status outside
	// active/reserved/scheduled.
	ErrInvalidStatus = errors.New("inspect: invalid task status")

	// ErrUnknownRoute is returned when a task's delivery route is not in
	// the routing table, typically because the table is stale relative to
	// worker state.
	ErrUnknownRoute = errors.New("inspect: no queue for delivery route")
)

// Status identifies where a task sits on a worker.
type Status string

const (
	// StatusActive means the task is currently executing.
	StatusActive Status = "active"
	// StatusReserved means the task has been prefetched but not started.
	StatusReserved Status = "reserved"
	// StatusScheduled means the task is held on the worker with an ETA.
	StatusScheduled Status = "scheduled"
)

// Statuses lists every valid task status.
var Statuses = []Status{StatusActive, StatusReserved, StatusScheduled}

// Valid reports whether s is a known task status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusReserved, StatusScheduled:
		return true
	}
	return false
}

// Binding describes one active consumer binding on a worker: the queue it
// consumes and the exchange/routing-key pair that delivers into it.
type Binding struct {
	Queue      string `json:"queue"`
	Exchange   string `json:"exchange"`
	RoutingKey string `json:"routing_key"`
}

// Delivery is the delivery info a worker reports for an in-flight task.
type Delivery struct {
	Exchange   string `json:"exchange"`
	RoutingKey string `json:"routing_key"`
}

// Task is one in-flight task as reported by a worker.
type Task struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name,omitempty"`
	Delivery Delivery `json:"delivery_info"`
}

// Route is a routing-table key: the exchange/routing-key pair a message was
// published with.
type Route struct {
	Exchange   string
	RoutingKey string
}

// Client is the worker control API. Both methods return results keyed by
// worker identifier. Calls are blocking network round-trips; any timeout is
// managed by the underlying implementation.
//
// Implementations used with backlog.Cache must be comparable (in practice,
// pointer types), since the cache keys inspections by client identity.
type Client interface {
	// ActiveQueues returns each worker's active consumer bindings.
	ActiveQueues(ctx context.Context) (map[string][]Binding, error)

	// Tasks returns each worker's tasks in the given status.
	Tasks(ctx context.Context, status Status) (map[string][]Task, error)
}
