// Package worker defines the worker registry that backs inspection.
//
// Running worker processes register themselves with their consumer bindings,
// heartbeat periodically, and publish snapshots of the tasks they currently
// hold (active, reserved, scheduled). The read side of a registry implements
// inspect.Client, so anything registered here is visible to depth
// measurement.
//
// Backends live in the subpackages worker/redis and worker/memory.
package worker
