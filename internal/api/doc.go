// Package api implements the HTTP REST API for Availability Watch.
//
// This package provides:
//   - REST endpoints for retrieving the current unavailability report
//   - JWT-protected registry maintenance (bulk entity/device removal)
//   - Middleware stack (request ID, logging, recovery, CORS)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server is a read-mostly surface over the report runner and the
// entity registry. The report itself is produced by the scheduler on its
// own cadence; the API serves the most recent evaluation and never blocks
// a request on a fresh classification pass. The one mutating endpoint,
// bulk removal, deletes registry rows and tracked states, then asks the
// runner for an immediate re-evaluation so the published report reflects
// the removal without waiting for the next interval.
//
// # Security
//
// Read endpoints are open for monitoring integrations. The removal
// endpoint requires a bearer token signed with the configured HMAC
// secret, since it permanently deletes registry rows.
package api
