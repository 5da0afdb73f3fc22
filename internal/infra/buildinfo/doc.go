// Package buildinfo provides build information for pcd binaries.
//
// This package exposes build-time information injected via ldflags:
//
//   - Version: Semantic version (e.g., "1.0.0")
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//
// When Commit or BuildTime are not injected they fall back to the VCS
// stamp the Go toolchain embeds; GoVersion always reports the runtime.
//
// Usage:
//
//	go build -ldflags "-X github.com/yndnr/pcd-go/internal/infra/buildinfo.Version=1.0.0"
package buildinfo
