// Package report implements the unavailability classification and paginated
// report engine for Availability Watch.
//
// It is a pure data-transformation pipeline: given an immutable Snapshot of
// entity states plus registry metadata and the configured exclusions, it
// produces classified device- and entity-level unavailability records, a
// severity count, and byte-bounded paginated markdown safe to persist as
// state attributes.
//
// # Pipeline
//
//	snapshot → exclusion filtering → candidate set → per-device aggregation
//	         → classification → formatting → pagination → assembled report
//
// Data flows strictly forward; no stage mutates another stage's output.
//
// # Key Types
//
//   - Snapshot: point-in-time view of entity states and registry metadata
//   - ExclusionSet: user-configured device/entity exclusions
//   - Classification: fully-failed devices and standalone entities by severity
//   - Assembler: turns a Classification into the persisted attribute bag,
//     carrying the previous count/icon across cycles for error recovery
//
// # Classification Rules
//
// An entity is a candidate when its status is unavailable, or unknown when
// the ignore-unknown option is off. Diagnostic and config category entities
// never participate. A device is fully failed when every eligible
// (non-disabled, non-diagnostic/config) entity registered to it is
// unavailable or unknown; its severity is unavailable if any entity is
// truly unavailable, otherwise unknown. Candidates not covered by a fully
// failed device are reported standalone. The severity count is the number
// of fully failed devices plus standalone entities; a failed device with
// N failing entities counts once.
//
// # Thread Safety
//
// All functions are pure and safe for concurrent use on independent
// snapshots. The Assembler retains the previous cycle's count and icon and
// must not be shared between concurrent evaluations.
package report
