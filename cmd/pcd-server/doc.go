// Package main provides the entry point for pcd-server.
//
// pcd-server registers one pseudo character device, a fixed 512-byte
// storage shared by every session, and exposes it through:
//
//   - a JSON HTTP API (/v1/sessions, /v1/device, /metrics)
//   - a Redis-protocol port where each connection acts as one process
//   - a local Unix socket for management (status, sessions, loglevel)
//
// Usage:
//
//	pcd-server [flags]
//	pcd-server -config /etc/pcd/pcd-server.yaml
//	pcd-server -set server.redis.enabled=true -set log.level=debug
//
// Settings can also come from PCD_ environment variables, for example
// PCD_SERVER_REDIS_ENABLED=true. -set wins over the environment, which
// wins over the file. Unknown keys are rejected.
package main
