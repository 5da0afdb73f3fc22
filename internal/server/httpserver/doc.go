// Package httpserver provides the HTTP API for the pcd device.
//
// This package implements the JSON API using stdlib net/http:
//
//   - Session endpoints: /v1/sessions, /v1/sessions/{id}/{read,write,seek,close}
//   - Device endpoint: /v1/device
//   - Health endpoints: /health, /ready, /metrics
//
// Payloads travel base64 encoded inside the JSON envelope. Every
// request gets an X-Request-ID which is echoed in the envelope and
// attached to log lines.
package httpserver
