// Package influxdb records the watcher's telemetry as time series:
// per-cycle unavailability counts, the gap between evaluation cycles,
// and individual entity status transitions.
//
// It wraps influxdb-client-go v2 with non-blocking batched writes; batch
// failures surface through the SetOnError callback rather than on the
// write path. The integration is optional and gated by the influxdb
// section of config.yaml.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteReportCount(3, "mdi:alert-circle")
package influxdb
