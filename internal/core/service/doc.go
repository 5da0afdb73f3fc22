// Package service provides the device host for pcd.
//
// DeviceService owns the single Storage buffer and the table of open
// sessions. Transport adapters (RESP, HTTP, the local admin socket) call
// it with a session handle; it resolves the handle, runs the access
// engine from package domain and records logs and metrics.
//
// This package contains:
//
//   - DeviceService: open/close, seek/read/write, stat and teardown
//   - numberRegistry: device number allocation for a name and minor range
package service
