// Package api serves a read-only HTTP view of the running scheduler.
//
// Endpoints:
//
//	GET /healthz                 liveness and driver state
//	GET /api/v1/status           driver status snapshot
//	GET /api/v1/schedule         schedule entries (?device=, ?upcoming=true)
//	GET /api/v1/devices          last known state of every driven device
//	GET /api/v1/devices/{id}     last known state of one device
//
// Nothing here changes device state; the schedule file is the only input.
package api
