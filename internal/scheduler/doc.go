// Package scheduler drives the periodic evaluation cycle.
//
// A Runner owns the report assembler. On start it emits the initializing
// placeholder, waits out the startup settling delay so the platform can
// finish coming up, then evaluates a fresh snapshot every interval and
// fans the assembled report out to the configured sinks (MQTT, InfluxDB).
//
// A cycle that fails never stops the loop: evaluation errors degrade the
// report in place and sink errors are logged and dropped. Refresh()
// requests an immediate out-of-band cycle, used after registry removals
// so the report reflects them without waiting for the next tick.
package scheduler
