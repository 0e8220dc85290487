package inspect

import (
	"context"
	"fmt"
)

// Inspection lazily queries one worker control client and memoizes the
// results. The routing table is resolved at most once, and each status is
// queried at most once, for the lifetime of the Inspection.
//
// An Inspection is meant to live for one scaling-decision cycle and is not
// safe for concurrent use.
type Inspection struct {
	client Client
	routes map[Route]string
	counts map[Status]map[string]int
}

// New creates an Inspection over the given worker control client.
func New(client Client) *Inspection {
	return &Inspection{
		client: client,
		counts: make(map[Status]map[string]int),
	}
}

// RouteQueues resolves the routing table: a mapping from each active
// (exchange, routing key) pair to the queue it delivers into. The table is
// built from all workers' consumer bindings on first call and memoized;
// duplicate routes are overwritten without conflict detection.
func (i *Inspection) RouteQueues(ctx context.Context) (map[Route]string, error) {
	if i.routes != nil {
		return i.routes, nil
	}

	workers, err := i.client.ActiveQueues(ctx)
	if err != nil {
		return nil, fmt.Errorf("inspect: active queues: %w", err)
	}

	routes := make(map[Route]string)
	for _, bindings := range workers {
		for _, b := range bindings {
			routes[Route{Exchange: b.Exchange, RoutingKey: b.RoutingKey}] = b.Queue
		}
	}

	i.routes = routes
	return routes, nil
}

// StatusTaskCounts returns the number of tasks per queue for the given
// status, across all workers. The underlying worker query runs once per
// status and is memoized; an invalid status or a routing-table miss returns
// an error without touching memoized state.
func (i *Inspection) StatusTaskCounts(ctx context.Context, status Status) (map[string]int, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if counts, ok := i.counts[status]; ok {
		return counts, nil
	}

	routes, err := i.RouteQueues(ctx)
	if err != nil {
		return nil, err
	}

	workers, err := i.client.Tasks(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("inspect: %s tasks: %w", status, err)
	}

	counts := make(map[string]int)
	for _, tasks := range workers {
		for _, t := range tasks {
			queue, ok := routes[Route{Exchange: t.Delivery.Exchange, RoutingKey: t.Delivery.RoutingKey}]
			if !ok {
				return nil, fmt.Errorf("%w: exchange %q, routing key %q",
					ErrUnknownRoute, t.Delivery.Exchange, t.Delivery.RoutingKey)
			}
			counts[queue]++
		}
	}

	i.counts[status] = counts
	return counts, nil
}
