package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/availwatch/internal/report"
)

// fakeSource returns a snapshot with a single unavailable standalone entity.
type fakeSource struct {
	mu     sync.Mutex
	builds int
}

func (f *fakeSource) BuildSnapshot(now time.Time) *report.Snapshot {
	f.mu.Lock()
	f.builds++
	f.mu.Unlock()

	states := []report.EntityState{
		{EntityID: "sensor.lonely", Status: report.StatusUnavailable, LastChanged: now.Add(-90 * time.Second)},
	}
	entities := map[string]report.EntityMeta{
		"sensor.lonely": {EntityID: "sensor.lonely"},
	}
	return report.NewSnapshot(now, states, entities, map[string]report.DeviceMeta{})
}

func (f *fakeSource) buildCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.builds
}

// chanSink forwards every emitted report to a channel.
type chanSink struct {
	reports chan report.Report
	err     error
}

func newChanSink() *chanSink {
	return &chanSink{reports: make(chan report.Report, 16)}
}

func (s *chanSink) Name() string { return "chan" }

func (s *chanSink) Emit(_ context.Context, rep report.Report) error {
	s.reports <- rep
	return s.err
}

func waitForReport(t *testing.T, sink *chanSink) report.Report {
	t.Helper()
	select {
	case rep := <-sink.reports:
		return rep
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for report")
		return report.Report{}
	}
}

func TestNewRunner_ClampsTiming(t *testing.T) {
	tests := []struct {
		name         string
		cfg          Config
		wantDelay    time.Duration
		wantInterval time.Duration
	}{
		{
			name:         "zero values take defaults",
			cfg:          Config{},
			wantDelay:    DefaultStartupDelay,
			wantInterval: DefaultInterval,
		},
		{
			name:         "interval below minimum is raised",
			cfg:          Config{StartupDelay: time.Second, Interval: 5 * time.Second},
			wantDelay:    time.Second,
			wantInterval: MinInterval,
		},
		{
			name:         "interval above maximum is lowered",
			cfg:          Config{StartupDelay: time.Second, Interval: 2 * time.Hour},
			wantDelay:    time.Second,
			wantInterval: MaxInterval,
		},
		{
			name:         "in-range values are kept",
			cfg:          Config{StartupDelay: 30 * time.Second, Interval: 120 * time.Second},
			wantDelay:    30 * time.Second,
			wantInterval: 120 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(&fakeSource{}, tt.cfg)
			if r.cfg.StartupDelay != tt.wantDelay {
				t.Errorf("StartupDelay = %v, want %v", r.cfg.StartupDelay, tt.wantDelay)
			}
			if r.cfg.Interval != tt.wantInterval {
				t.Errorf("Interval = %v, want %v", r.cfg.Interval, tt.wantInterval)
			}
		})
	}
}

func TestRunner_LastReportStartsAsPlaceholder(t *testing.T) {
	r := NewRunner(&fakeSource{}, Config{})

	rep := r.LastReport()
	if rep.Count != 0 {
		t.Errorf("Count = %d, want 0", rep.Count)
	}
	if rep.Icon != report.IconOK {
		t.Errorf("Icon = %q, want %q", rep.Icon, report.IconOK)
	}
	if _, ok := rep.Attributes["devices_page_1"]; !ok {
		t.Error("placeholder missing devices_page_1")
	}
}

func TestRunner_FirstCycleAfterStartupDelay(t *testing.T) {
	source := &fakeSource{}
	sink := newChanSink()
	r := NewRunner(source, Config{StartupDelay: 10 * time.Millisecond}, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.Start(ctx)
	defer r.Stop()

	// Placeholder emitted immediately, before any evaluation.
	placeholder := waitForReport(t, sink)
	if placeholder.Count != 0 {
		t.Errorf("placeholder Count = %d, want 0", placeholder.Count)
	}
	if source.buildCount() != 0 {
		t.Errorf("builds before delay = %d, want 0", source.buildCount())
	}

	// First real cycle lands after the settling delay.
	first := waitForReport(t, sink)
	if first.Count != 1 {
		t.Errorf("first cycle Count = %d, want 1", first.Count)
	}
	if first.Icon != report.IconAlert {
		t.Errorf("first cycle Icon = %q, want %q", first.Icon, report.IconAlert)
	}

	if got := r.LastReport(); got.Count != 1 {
		t.Errorf("LastReport().Count = %d, want 1", got.Count)
	}
}

func TestRunner_RefreshForcesCycle(t *testing.T) {
	source := &fakeSource{}
	sink := newChanSink()
	r := NewRunner(source, Config{StartupDelay: 10 * time.Millisecond, Interval: time.Hour}, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.Start(ctx)
	defer r.Stop()

	waitForReport(t, sink) // placeholder
	waitForReport(t, sink) // first cycle

	builds := source.buildCount()
	r.Refresh()

	waitForReport(t, sink)
	if source.buildCount() != builds+1 {
		t.Errorf("builds after Refresh = %d, want %d", source.buildCount(), builds+1)
	}
}

func TestRunner_SinkFailureDoesNotStopLoop(t *testing.T) {
	source := &fakeSource{}
	failing := newChanSink()
	failing.err = errors.New("broker unreachable")
	r := NewRunner(source, Config{StartupDelay: 10 * time.Millisecond, Interval: time.Hour}, failing)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.Start(ctx)
	defer r.Stop()

	waitForReport(t, failing) // placeholder
	waitForReport(t, failing) // first cycle

	// The loop survives the failing sink and still honours refreshes.
	r.Refresh()
	rep := waitForReport(t, failing)
	if rep.Count != 1 {
		t.Errorf("Count = %d, want 1", rep.Count)
	}
}

func TestRunner_StopIsIdempotent(t *testing.T) {
	r := NewRunner(&fakeSource{}, Config{StartupDelay: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.Start(ctx)
	r.Stop()
	r.Stop()
}

func TestRunner_ContextCancelStopsLoop(t *testing.T) {
	source := &fakeSource{}
	sink := newChanSink()
	r := NewRunner(source, Config{StartupDelay: 10 * time.Millisecond, Interval: time.Hour}, sink)

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	waitForReport(t, sink) // placeholder
	waitForReport(t, sink) // first cycle

	cancel()
	// Give the loop a beat to observe cancellation, then a refresh must
	// produce nothing.
	time.Sleep(50 * time.Millisecond)
	r.Refresh()

	select {
	case <-sink.reports:
		t.Error("received report after context cancellation")
	case <-time.After(100 * time.Millisecond):
	}
}
