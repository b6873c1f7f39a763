package scheduler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nerrad567/availwatch/internal/report"
)

// mockPublisher records published messages.
type mockPublisher struct {
	connected bool
	topic     string
	payload   []byte
	qos       byte
	retained  bool
	publishes int
}

func (m *mockPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.topic = topic
	m.payload = payload
	m.qos = qos
	m.retained = retained
	m.publishes++
	return nil
}

func (m *mockPublisher) IsConnected() bool { return m.connected }

func TestMQTTSink_Emit(t *testing.T) {
	pub := &mockPublisher{connected: true}
	sink := NewMQTTSink(pub, "availwatch/report")

	rep := report.Report{
		Count: 3,
		Icon:  report.IconAlert,
		Attributes: map[string]any{
			"count": 3,
		},
	}

	if err := sink.Emit(context.Background(), rep); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	if pub.topic != "availwatch/report" {
		t.Errorf("topic = %q, want %q", pub.topic, "availwatch/report")
	}
	if pub.qos != 1 {
		t.Errorf("qos = %d, want 1", pub.qos)
	}
	if !pub.retained {
		t.Error("retained = false, want true")
	}

	var decoded struct {
		Count int    `json:"count"`
		Icon  string `json:"icon"`
	}
	if err := json.Unmarshal(pub.payload, &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if decoded.Count != 3 {
		t.Errorf("payload count = %d, want 3", decoded.Count)
	}
	if decoded.Icon != report.IconAlert {
		t.Errorf("payload icon = %q, want %q", decoded.Icon, report.IconAlert)
	}
}

func TestMQTTSink_EmitDisconnected(t *testing.T) {
	pub := &mockPublisher{connected: false}
	sink := NewMQTTSink(pub, "availwatch/report")

	err := sink.Emit(context.Background(), report.Report{})
	if err == nil {
		t.Fatal("Emit() error = nil, want error")
	}
	if pub.publishes != 0 {
		t.Errorf("publishes = %d, want 0", pub.publishes)
	}
}

// mockMetricsWriter records written points.
type mockMetricsWriter struct {
	counts    []int
	icons     []string
	durations []time.Duration
}

func (m *mockMetricsWriter) WriteReportCount(count int, icon string) {
	m.counts = append(m.counts, count)
	m.icons = append(m.icons, icon)
}

func (m *mockMetricsWriter) WriteCycleDuration(elapsed time.Duration) {
	m.durations = append(m.durations, elapsed)
}

func TestInfluxSink_Emit(t *testing.T) {
	writer := &mockMetricsWriter{}
	sink := NewInfluxSink(writer)

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	current := base
	sink.now = func() time.Time { return current }

	rep := report.Report{Count: 2, Icon: report.IconAlert}

	// First emit: count only, no duration yet.
	if err := sink.Emit(context.Background(), rep); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if len(writer.counts) != 1 || writer.counts[0] != 2 {
		t.Errorf("counts = %v, want [2]", writer.counts)
	}
	if len(writer.durations) != 0 {
		t.Errorf("durations = %v, want none", writer.durations)
	}

	// Second emit: duration since the first.
	current = base.Add(60 * time.Second)
	if err := sink.Emit(context.Background(), rep); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if len(writer.durations) != 1 || writer.durations[0] != 60*time.Second {
		t.Errorf("durations = %v, want [1m0s]", writer.durations)
	}
	if writer.icons[1] != report.IconAlert {
		t.Errorf("icon = %q, want %q", writer.icons[1], report.IconAlert)
	}
}
