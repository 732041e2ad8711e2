// Package audit records simulation control operations in the audit_logs
// table and serves them back for the API.
//
// Every start, stop, reset, settings change, manual override and preset
// operation is written with the surface that requested it (api, mqtt,
// startup). Writes are best effort: a failed insert is logged and never
// fails the control operation itself.
package audit
