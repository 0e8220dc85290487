package backlog

import "errors"

var (
	// Configuration errors.
	ErrNoName    = errors.New("backlog: proc name is required")
	ErrNoChannel = errors.New("backlog: no broker channel configured")
	ErrNoQueues  = errors.New("backlog: at least one queue is required")

	// ErrNoInspector is returned when inspect statuses are configured but
	// no inspection client was supplied.
	ErrNoInspector = errors.New("backlog: inspect statuses set but no inspection client configured")
)
