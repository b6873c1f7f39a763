package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/availwatch/internal/report"
)

// Publisher is the MQTT publishing surface a sink needs.
// This is typically implemented by the infrastructure MQTT client.
type Publisher interface {
	// Publish sends a message to a topic with the specified QoS and retention.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// IsConnected returns true if the publisher is connected.
	IsConnected() bool
}

// MQTTSink publishes each assembled report as retained JSON, so late
// subscribers immediately receive the current report.
type MQTTSink struct {
	publisher Publisher
	topic     string
}

// NewMQTTSink creates an MQTT sink publishing to the given topic.
func NewMQTTSink(publisher Publisher, topic string) *MQTTSink {
	return &MQTTSink{publisher: publisher, topic: topic}
}

// Name identifies the sink in logs.
func (s *MQTTSink) Name() string { return "mqtt" }

// Emit publishes the report to the report topic, retained at QoS 1.
func (s *MQTTSink) Emit(_ context.Context, rep report.Report) error {
	if !s.publisher.IsConnected() {
		return fmt.Errorf("mqtt sink: not connected")
	}

	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("mqtt sink: marshalling report: %w", err)
	}

	if err := s.publisher.Publish(s.topic, payload, 1, true); err != nil {
		return fmt.Errorf("mqtt sink: publishing report: %w", err)
	}
	return nil
}

// MetricsWriter is the time-series surface a sink needs.
// This is typically implemented by the infrastructure InfluxDB client,
// whose writes are non-blocking and never return errors inline.
type MetricsWriter interface {
	WriteReportCount(count int, icon string)
	WriteCycleDuration(elapsed time.Duration)
}

// InfluxSink records each cycle's count and icon as time-series points,
// giving the unavailability trend a queryable history.
type InfluxSink struct {
	writer MetricsWriter
	now    func() time.Time
	last   time.Time
}

// NewInfluxSink creates an InfluxDB sink over the metrics writer.
func NewInfluxSink(writer MetricsWriter) *InfluxSink {
	return &InfluxSink{
		writer: writer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Name identifies the sink in logs.
func (s *InfluxSink) Name() string { return "influxdb" }

// Emit writes the report count point and, after the first emit, the time
// elapsed since the previous one.
func (s *InfluxSink) Emit(_ context.Context, rep report.Report) error {
	now := s.now()
	s.writer.WriteReportCount(rep.Count, rep.Icon)
	if !s.last.IsZero() {
		s.writer.WriteCycleDuration(now.Sub(s.last))
	}
	s.last = now
	return nil
}
