// Package observability records OpenTelemetry metrics for depth measurement:
// per-proc depth gauges, sweep durations, and sweep errors. Wire a [Metrics]
// into a backlog.Poller to export what the autoscaler sees.
package observability
