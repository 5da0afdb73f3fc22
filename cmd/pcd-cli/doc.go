// Package main provides the entry point for pcd-cli.
//
// pcd-cli drives a running pcd-server:
//
//   - session open, read, write, seek and close over the HTTP API
//   - device info, cat and put
//   - local status and log level over the Unix socket
//
// Usage:
//
//	pcd-cli [global flags] command [flags] [args]
//	pcd-cli session open -o json
//	pcd-cli device put --offset 16 hello
//	pcd-cli --socket /var/run/pcd-server/pcd-server.sock local digest
package main
