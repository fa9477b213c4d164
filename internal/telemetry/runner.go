package telemetry

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the wall-clock pause between ticks.
const DefaultInterval = 3 * time.Second

// Logger is the logging surface used by the runner.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Observer is told about every tick after its messages were sent.
//
// Observers run on the runner goroutine; a slow observer delays the next tick.
type Observer interface {
	ObserveTick(ctx context.Context, report TickReport)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, report TickReport)

// ObserveTick implements Observer.
func (f ObserverFunc) ObserveTick(ctx context.Context, report TickReport) {
	f(ctx, report)
}

// Status summarises the session so far.
type Status struct {
	Running     bool
	Ticks       int64
	TotalSent   int64
	TotalFailed int64
	Last        *TickReport
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(logger Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithObserver adds a tick observer.
func WithObserver(o Observer) RunnerOption {
	return func(r *Runner) {
		r.observers = append(r.observers, o)
	}
}

// WithMaxTicks stops the loop after n ticks. 0 runs until cancelled.
func WithMaxTicks(n int64) RunnerOption {
	return func(r *Runner) {
		r.maxTicks = n
	}
}

// Runner drives the publish loop: one tick immediately, then one per interval.
type Runner struct {
	publisher *Publisher
	channel   Channel
	interval  time.Duration
	logger    Logger
	observers []Observer
	maxTicks  int64

	mu     sync.RWMutex
	status Status
}

// NewRunner creates a runner publishing on ch every interval.
func NewRunner(publisher *Publisher, ch Channel, interval time.Duration, opts ...RunnerOption) *Runner {
	r := &Runner{
		publisher: publisher,
		channel:   ch,
		interval:  interval,
	}
	if r.interval <= 0 {
		r.interval = DefaultInterval
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run blocks until ctx is cancelled or the tick limit is reached.
//
// No send failure stops the loop. Run returns nil on a clean stop.
func (r *Runner) Run(ctx context.Context) error {
	r.setRunning(true)
	defer r.setRunning(false)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		report := r.publisher.AdvanceAndPublish(r.channel)
		r.record(report)
		r.logTick(report)

		for _, o := range r.observers {
			o.ObserveTick(ctx, report)
		}

		if r.maxTicks > 0 && r.Status().Ticks >= r.maxTicks {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Status returns a snapshot of the loop counters.
func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.status
	if s.Last != nil {
		last := *s.Last
		s.Last = &last
	}
	return s
}

func (r *Runner) setRunning(running bool) {
	r.mu.Lock()
	r.status.Running = running
	r.mu.Unlock()
}

func (r *Runner) record(report TickReport) {
	r.mu.Lock()
	r.status.Ticks++
	r.status.TotalSent += int64(report.Sent())
	r.status.TotalFailed += int64(report.Failed())
	r.status.Last = &report
	r.mu.Unlock()
}

// logTick writes the per-tick summary line and one warning per failed send.
func (r *Runner) logTick(report TickReport) {
	if r.logger == nil {
		return
	}

	for _, res := range report.Results {
		if !res.OK() {
			r.logger.Warn("publish failed",
				"topic", res.Topic,
				"error", res.Err,
			)
		}
	}

	t := report.Tick
	r.logger.Info("tick published",
		"t", t.State.SimulatedSeconds,
		"line1_velocity", t.Line1.Velocity,
		"line1_temperature", t.Line1.Temperature,
		"line2_velocity", t.Line2.Velocity,
		"line2_temperature", t.Line2.Temperature,
		"alert", string(t.Alert.Status()),
		"units_total", t.Production.TotalUnits,
		"throughput_percent", t.Production.PercentOfTarget,
		"energy_kwh", t.Cost.EnergyKWh,
		"cost_eur", t.Cost.CostEUR,
		"eur_per_unit", t.Cost.CostPerUnit,
		"sent", report.Sent(),
		"failed", report.Failed(),
	)
	r.logger.Debug("tick timing", "duration", report.Duration.String())
}
