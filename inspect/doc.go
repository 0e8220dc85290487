// Package inspect counts in-flight tasks by querying live workers instead of
// the broker. Workers report tasks with delivery info (exchange and routing
// key), not queue names, so counting requires a routing table resolved from
// the workers' active consumer bindings.
//
// An [Inspection] memoizes both the routing table and the per-status tallies
// for its lifetime. Topology changes are picked up by constructing a new
// Inspection, typically one per scaling-decision cycle via backlog.Cache.
package inspect
