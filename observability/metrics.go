package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/workscale/backlog/observability"

// Metrics holds the instruments recorded during depth sweeps.
type Metrics struct {
	ProcDepth     metric.Int64Gauge
	SweepDuration metric.Float64Histogram
	SweepErrors   metric.Int64Counter
}

// New creates Metrics on the global meter provider.
func New() (*Metrics, error) {
	return NewWithMeter(otel.Meter(scopeName))
}

// NewWithMeter creates Metrics on the provided meter. Use a manual-reader
// meter in tests.
func NewWithMeter(meter metric.Meter) (*Metrics, error) {
	depth, err := meter.Int64Gauge("backlog.proc.depth",
		metric.WithDescription("Aggregated pending-or-in-flight task count per proc."),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("backlog.sweep.duration",
		metric.WithDescription("Duration of one measurement sweep across all procs."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter("backlog.sweep.errors",
		metric.WithDescription("Quantity computations that failed during sweeps."),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ProcDepth:     depth,
		SweepDuration: duration,
		SweepErrors:   errs,
	}, nil
}

// RecordDepth records the measured depth for a proc.
func (m *Metrics) RecordDepth(ctx context.Context, proc string, depth int64) {
	m.ProcDepth.Record(ctx, depth, metric.WithAttributes(attribute.String("proc", proc)))
}

// RecordSweep records the duration of one full sweep.
func (m *Metrics) RecordSweep(ctx context.Context, elapsed time.Duration) {
	m.SweepDuration.Record(ctx, elapsed.Seconds())
}

// RecordError counts one failed quantity computation.
func (m *Metrics) RecordError(ctx context.Context, proc string) {
	m.SweepErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("proc", proc)))
}
