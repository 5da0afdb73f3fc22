// Package config provides server configuration for pcd-server.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (addresses, device number ranges, log settings)
//   - sanitize.go: Log sanitization (hide sensitive values)
//   - device.go: Conversion to the device service registration
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, environment variables, and flags.
package config
