// Package api implements the HTTP REST API and WebSocket server for the
// sensor simulator.
//
// This package provides:
//   - Control endpoints for start, stop, reset, settings and manual values
//   - Preset CRUD and apply, backed by the preset service
//   - Audit log and JSON metrics endpoints
//   - WebSocket hub streaming readings and status changes
//   - Middleware stack (request ID, logging, recovery, CORS, compression)
//
// # Architecture
//
// Handlers never touch the engine directly. Every mutation goes through
// control.Controller, which records the audit entry and fans out status
// notifications, so the REST and MQTT surfaces behave identically.
//
// # Responses
//
// Successful control calls return {"success": true, "message": ...}.
// Failures return an Error body with success false. Asking for the state
// the engine is already in (start while running, stop while stopped) is
// not a failure: it answers 200 with success false and the current state.
//
// # Graceful Degradation
//
// The server operates without MQTT: the status endpoints and WebSocket
// keep working, and /health reports the broker as degraded.
package api
