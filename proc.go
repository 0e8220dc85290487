package backlog

import (
	"context"
	"fmt"

	"github.com/workscale/backlog/broker"
	"github.com/workscale/backlog/inspect"
)

// DefaultQueue is the queue a Proc watches when none are configured.
const DefaultQueue = "default"

// ProcOption configures a Proc.
type ProcOption func(*Proc)

// WithQueues sets the queues whose aggregate depth the proc reports.
func WithQueues(queues ...string) ProcOption {
	return func(p *Proc) { p.queues = queues }
}

// WithChannel sets the broker channel used to read queue depth. Required.
func WithChannel(ch broker.Channel) ProcOption {
	return func(p *Proc) { p.channel = ch }
}

// WithInspector sets the worker control client used to count in-flight
// tasks. Only consulted when inspect statuses are configured and a Cache is
// passed to Quantity.
func WithInspector(client inspect.Client) ProcOption {
	return func(p *Proc) { p.inspector = client }
}

// WithInspectStatuses sets the task statuses to count on workers in addition
// to broker queue depth.
func WithInspectStatuses(statuses ...inspect.Status) ProcOption {
	return func(p *Proc) { p.statuses = statuses }
}

// Proc is a named group of queues whose aggregate depth represents the
// workload for one scalable worker-process type. A Proc is immutable after
// construction.
type Proc struct {
	name      string
	queues    []string
	channel   broker.Channel
	inspector inspect.Client
	statuses  []inspect.Status
}

// NewProc creates a Proc. The broker channel is an explicit dependency; there
// is no ambient connection discovery.
func NewProc(name string, opts ...ProcOption) (*Proc, error) {
	p := &Proc{
		name:   name,
		queues: []string{DefaultQueue},
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.name == "" {
		return nil, ErrNoName
	}
	if p.channel == nil {
		return nil, ErrNoChannel
	}
	if len(p.queues) == 0 {
		return nil, ErrNoQueues
	}
	if len(p.statuses) > 0 && p.inspector == nil {
		return nil, ErrNoInspector
	}
	for _, s := range p.statuses {
		if !s.Valid() {
			return nil, fmt.Errorf("%w: %q", inspect.ErrInvalidStatus, s)
		}
	}
	return p, nil
}

// Name returns the proc's name.
func (p *Proc) Name() string { return p.name }

// Queues returns a copy of the proc's queue list.
func (p *Proc) Queues() []string {
	queues := make([]string, len(p.queues))
	copy(queues, p.queues)
	return queues
}

// Quantity returns the aggregated number of tasks on the proc's queues: the
// broker-side depth of every queue, plus the tasks already held by workers
// in the configured inspect statuses when a cache is supplied.
//
// The computation is synchronous and read-only. Errors from the broker or
// from worker inspection propagate unmodified apart from wrapping; the only
// absorbed condition is a not-yet-created queue on the declare path, handled
// inside the broker package.
func (p *Proc) Quantity(ctx context.Context, cache *Cache) (int64, error) {
	var total int64
	for _, queue := range p.queues {
		n, err := p.channel.QueueDepth(ctx, queue)
		if err != nil {
			return 0, fmt.Errorf("backlog: depth of %q: %w", queue, err)
		}
		total += n
	}

	if cache != nil && p.inspector != nil && len(p.statuses) > 0 {
		n, err := p.inspectCount(ctx, cache)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// inspectCount sums in-flight tasks over the proc's configured statuses and
// queues. A queue with no tasks in a status contributes zero.
func (p *Proc) inspectCount(ctx context.Context, cache *Cache) (int64, error) {
	ins := cache.Inspection(p.inspector)

	var total int64
	for _, status := range p.statuses {
		counts, err := ins.StatusTaskCounts(ctx, status)
		if err != nil {
			return 0, err
		}
		for _, queue := range p.queues {
			total += int64(counts[queue])
		}
	}
	return total, nil
}
