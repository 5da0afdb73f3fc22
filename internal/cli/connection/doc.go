// Package connection provides the transports pcd-cli talks to the server
// over: the HTTP API for device access and the local Unix socket for
// management commands.
package connection
