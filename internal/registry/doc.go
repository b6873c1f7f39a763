// Package registry provides the entity and device registry for
// Availability Watch.
//
// The registry is the read-only metadata collaborator of the report
// engine: it knows which entities exist, which device owns each entity,
// how entities are categorised, and how devices are named. It also tracks
// live entity state fed from the MQTT bus and builds the immutable
// snapshot the report engine evaluates each cycle.
//
// # Architecture
//
//   - Repository (repository.go): SQLite persistence for entities/devices
//   - Registry (registry.go): in-memory cache, display-name resolution,
//     idempotent bulk removal
//   - StateStore (states.go): live entity status with last-changed
//     tracking, fed from the state topic
//   - SnapshotBuilder (registry.go): combines registry metadata with live
//     state into a report.Snapshot
//
// # Usage
//
//	reg := registry.NewRegistry(registry.NewSQLiteEntityRepository(db), registry.NewSQLiteDeviceRepository(db))
//	reg.SetLogger(log)
//	if err := reg.RefreshCache(ctx); err != nil { ... }
//
//	states := registry.NewStateStore()
//	builder := registry.NewSnapshotBuilder(reg, states)
//	snap := builder.BuildSnapshot(time.Now().UTC())
//
// # Thread Safety
//
// Registry and StateStore are safe for concurrent use. Snapshots are
// built from copies and never share mutable state with the caches.
package registry
