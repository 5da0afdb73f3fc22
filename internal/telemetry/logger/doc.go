// Package logger provides structured logging for the pcd device.
//
// This package wraps log/slog:
//
//   - logger.go: logger configuration, level control and the global logger
//   - context.go: context-aware logging with request and session IDs
//   - redact.go: payload and secret redaction
//
// Features:
//
//   - JSON and text output formats
//   - Runtime log level changes (config reload, local admin socket)
//   - Device payloads never reach the log output, only their length
//   - Context propagation for request tracing
package logger
