// Package handler provides the HTTP request handlers for the pcd device.
//
// Handlers are grouped by resource:
//
//   - session.go: open, list, tell, read, write, seek and close
//   - device.go: device description, counters and build information
//   - health.go: liveness and readiness checks
//
// Every handler parses the request, calls the device and writes the
// standard response envelope. Device errors keep their code; the HTTP
// status is derived from it.
package handler
