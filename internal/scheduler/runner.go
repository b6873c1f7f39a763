package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/availwatch/internal/report"
)

// Default timing values, matching the documented configuration bounds.
const (
	DefaultStartupDelay = 60 * time.Second
	DefaultInterval     = 60 * time.Second
	MinInterval         = 30 * time.Second
	MaxInterval         = 3600 * time.Second
)

// Logger defines the logging interface used by the Runner.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// SnapshotSource provides the point-in-time snapshot evaluated each cycle.
// This is typically the registry's snapshot builder.
type SnapshotSource interface {
	BuildSnapshot(now time.Time) *report.Snapshot
}

// Sink receives each assembled report. Sink failures are logged and
// dropped; they never abort the cycle or stop the loop.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string

	// Emit delivers one assembled report.
	Emit(ctx context.Context, rep report.Report) error
}

// Config holds runner configuration.
type Config struct {
	// StartupDelay is how long to wait before the first evaluation, so
	// entities still coming up are not reported as failures.
	// Default: 60 seconds.
	StartupDelay time.Duration

	// Interval is how often to evaluate. Clamped to [30s, 3600s].
	// Default: 60 seconds.
	Interval time.Duration

	// Options controls each evaluation.
	Options report.Options
}

// Runner drives the evaluation cycle: startup delay, then one evaluation
// per interval, each fanned out to the sinks. It owns the assembler and
// exposes the most recent report for the API layer.
type Runner struct {
	source    SnapshotSource
	assembler *report.Assembler
	sinks     []Sink
	cfg       Config
	logger    Logger
	now       func() time.Time

	lastMu sync.RWMutex
	last   report.Report

	refreshCh chan struct{}

	// Shutdown coordination (stopOnce prevents double-close panics)
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewRunner creates a runner over the snapshot source and sinks.
// Timing values outside their documented bounds are clamped.
func NewRunner(source SnapshotSource, cfg Config, sinks ...Sink) *Runner {
	if cfg.StartupDelay <= 0 {
		cfg.StartupDelay = DefaultStartupDelay
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Interval < MinInterval {
		cfg.Interval = MinInterval
	}
	if cfg.Interval > MaxInterval {
		cfg.Interval = MaxInterval
	}

	return &Runner{
		source:    source,
		assembler: report.NewAssembler(),
		sinks:     sinks,
		cfg:       cfg,
		logger:    noopLogger{},
		now:       func() time.Time { return time.Now().UTC() },
		last:      report.InitialReport(),
		refreshCh: make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// SetLogger sets the logger for the runner.
func (r *Runner) SetLogger(logger Logger) {
	r.logger = logger
}

// LastReport returns the most recently assembled report. Before the first
// cycle completes this is the initializing placeholder.
func (r *Runner) LastReport() report.Report {
	r.lastMu.RLock()
	defer r.lastMu.RUnlock()
	return r.last
}

// Refresh requests an immediate evaluation outside the interval. The
// request is coalesced; calling it repeatedly while a cycle is pending
// queues at most one extra cycle.
func (r *Runner) Refresh() {
	select {
	case r.refreshCh <- struct{}{}:
	default:
	}
}

// Start begins the evaluation loop. Call Stop to shut down.
func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.loop(ctx)
}

// Stop gracefully stops the loop. Safe to call multiple times.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
}

// loop waits out the startup delay, runs the first cycle, then evaluates
// on every tick or refresh request until stopped.
func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()

	// Emit the placeholder so consumers see initializing state rather
	// than nothing during the settling window.
	r.emit(ctx, r.LastReport())

	delay := time.NewTimer(r.cfg.StartupDelay)
	defer delay.Stop()

	r.logger.Info("waiting for platform to settle", "delay", r.cfg.StartupDelay)

	select {
	case <-ctx.Done():
		return
	case <-r.done:
		return
	case <-delay.C:
	}

	r.runCycle(ctx)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-ticker.C:
			r.runCycle(ctx)
		case <-r.refreshCh:
			r.runCycle(ctx)
		}
	}
}

// runCycle evaluates one snapshot and fans the report out to the sinks.
func (r *Runner) runCycle(ctx context.Context) {
	started := r.now()
	snap := r.source.BuildSnapshot(started)
	rep := r.assembler.Evaluate(snap, r.cfg.Options)

	if rep.Err != nil {
		r.logger.Error("evaluation degraded", "error", rep.Err)
	}

	r.lastMu.Lock()
	r.last = rep
	r.lastMu.Unlock()

	r.emit(ctx, rep)

	r.logger.Debug("cycle complete",
		"count", rep.Count,
		"duration", time.Since(started),
	)
}

// emit delivers a report to every sink, logging and dropping failures.
func (r *Runner) emit(ctx context.Context, rep report.Report) {
	for _, sink := range r.sinks {
		if err := sink.Emit(ctx, rep); err != nil {
			r.logger.Warn("sink emit failed", "sink", sink.Name(), "error", err)
		}
	}
}
