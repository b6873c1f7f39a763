package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReportCount records one evaluation cycle's severity count.
//
// This is the primary metric: the number of failed devices plus standalone
// failing entities, tagged with the icon so dashboards can colour by
// severity. The write is non-blocking; data is batched and sent
// asynchronously.
//
// Example:
//
//	client.WriteReportCount(3, "mdi:alert-circle")
func (c *Client) WriteReportCount(count int, icon string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"unavailability_report",
		map[string]string{
			"icon": icon,
		},
		map[string]interface{}{
			"count": count,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteCycleDuration records the elapsed time between evaluation cycles.
//
// Gaps larger than the configured scan interval indicate the loop is
// falling behind or the service restarted.
func (c *Client) WriteCycleDuration(elapsed time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"cycle",
		nil,
		map[string]interface{}{
			"duration_ms": elapsed.Milliseconds(),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteEntityTransition records one entity's status transition, giving
// per-entity flap history alongside the aggregate count.
func (c *Client) WriteEntityTransition(entityID string, status string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"entity_transitions",
		map[string]string{
			"entity_id": entityID,
			"status":    status,
		},
		map[string]interface{}{
			"value": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
