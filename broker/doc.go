// Package broker probes message brokers for queue depth.
//
// Brokers differ in how depth can be read. Redis-style brokers answer a
// direct size query; AMQP-style brokers only expose a queue's message count
// through a passive declare, which fails when the queue does not exist yet.
// [Detect] probes a connection's capabilities once, at construction, and
// returns the matching [Channel] variant, so callers never branch per call.
//
// Backends live in the subpackages broker/redis and broker/amqp.
package broker
