package backlog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/workscale/backlog/observability"
)

// Sample is one measured proc quantity.
type Sample struct {
	Proc     string    `json:"proc"`
	Quantity int64     `json:"quantity"`
	At       time.Time `json:"at"`
}

// SampleFunc receives the samples of one sweep, in proc order.
type SampleFunc func(ctx context.Context, samples []Sample)

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets how often the poller sweeps all procs.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) { p.interval = d }
}

// WithSweepLimit caps the sustained sweep rate with a token bucket,
// independently of the interval. Ticks arriving with no token available are
// skipped.
func WithSweepLimit(perSecond float64, burst int) PollerOption {
	return func(p *Poller) { p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// WithLogger sets the structured logger for the poller.
func WithLogger(l *slog.Logger) PollerOption {
	return func(p *Poller) { p.logger = l }
}

// WithMetrics sets the metrics recorded during sweeps.
func WithMetrics(m *observability.Metrics) PollerOption {
	return func(p *Poller) { p.metrics = m }
}

// Poller periodically measures the quantity of every proc and hands the
// samples to a callback, one fresh Cache per sweep. What the consumer does
// with the samples (typically an autoscaling decision) is out of scope.
type Poller struct {
	procs    []*Proc
	onSample SampleFunc
	interval time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger
	metrics  *observability.Metrics

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewPoller creates a poller over the given procs. onSample may be nil when
// only metrics output is wanted.
func NewPoller(procs []*Proc, onSample SampleFunc, opts ...PollerOption) *Poller {
	p := &Poller{
		procs:    procs,
		onSample: onSample,
		interval: 15 * time.Second,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		logger:   slog.Default(),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the sweep loop. It returns immediately.
func (p *Poller) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	p.running = true

	p.logger.Info("backlog poller starting",
		slog.Int("procs", len(p.procs)),
		slog.Duration("interval", p.interval),
	)

	p.wg.Add(1)
	go p.sweepLoop()
	return nil
}

// Stop signals the sweep loop to stop and waits for it to finish, or until
// the context expires.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("backlog poller stopped")
	case <-ctx.Done():
		p.logger.Warn("backlog poller shutdown timed out")
		return ctx.Err()
	}
	return nil
}

func (p *Poller) sweepLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			if !p.limiter.Allow() {
				p.logger.Debug("sweep skipped by rate limit")
				continue
			}
			samples := p.Sweep(context.Background())
			if p.onSample != nil {
				p.onSample(context.Background(), samples)
			}
		}
	}
}

// Sweep measures every proc once, sharing one Cache across the whole pass.
// Procs that fail to report are logged and skipped; the remaining samples
// are still returned.
func (p *Poller) Sweep(ctx context.Context) []Sample {
	cache := NewCache()
	start := time.Now()
	samples := make([]Sample, 0, len(p.procs))

	for _, proc := range p.procs {
		quantity, err := proc.Quantity(ctx, cache)
		if err != nil {
			p.logger.Error("quantity failed",
				slog.String("proc", proc.Name()),
				slog.String("error", err.Error()),
			)
			if p.metrics != nil {
				p.metrics.RecordError(ctx, proc.Name())
			}
			continue
		}

		if p.metrics != nil {
			p.metrics.RecordDepth(ctx, proc.Name(), quantity)
		}
		samples = append(samples, Sample{
			Proc:     proc.Name(),
			Quantity: quantity,
			At:       time.Now().UTC(),
		})
	}

	elapsed := time.Since(start)
	if p.metrics != nil {
		p.metrics.RecordSweep(ctx, elapsed)
	}
	p.logger.Debug("sweep complete",
		slog.Int("samples", len(samples)),
		slog.Duration("elapsed", elapsed),
	)
	return samples
}
