// Package backlog measures task-queue depth so an autoscaler can decide how
// many worker processes to run. It is a small adapter: given a set of named
// queues, it reports the total number of pending-or-in-flight tasks, nothing
// more.
//
// Backlog is designed as a library, not a service. Construct a [Proc] for
// each scalable worker-process type, give it a broker channel, and ask it
// for a quantity.
//
// # Quick Start
//
//	ch, _ := broker.Detect(redisbroker.New(client))
//	proc, _ := backlog.NewProc("worker",
//	    backlog.WithQueues("celery", "emails"),
//	    backlog.WithChannel(ch),
//	)
//	n, err := proc.Quantity(ctx, nil)
//
// # Architecture
//
// Depth comes from two places. The broker itself reports messages still
// sitting on a queue; the broker package picks the right probing strategy
// (direct size query or passive declare) once, at construction. Tasks a
// worker has already pulled off the broker are counted by inspecting live
// workers through the inspect package, with per-cycle memoization so one
// scaling decision issues at most one worker round-trip per status.
//
// A [Cache] scopes that memoization: create one per scaling-decision cycle
// and thread it through every Quantity call in that cycle.
package backlog
