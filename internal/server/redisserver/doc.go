// Package redisserver exposes the pcd device over the Redis protocol.
//
// This package implements the RESP2 subset a device client needs, using
// only the Go standard library for the wire codec. Each connection acts as
// one process: the sessions it opens belong to it, are invisible to other
// connections and are closed when the connection ends.
//
// Supported commands:
//   - PING, QUIT, AUTH
//   - OPEN, CLOSE <id>
//   - READ <id> <n>, WRITE <id> <data>
//   - SEEK <id> <offset> <whence>, TELL <id>
//   - SESSIONS [pattern], INFO
//
// Device failures are reported as "ERR <code> <message>", for example
// "ERR PCD-DEV-4161 nothing to read: position 512".
package redisserver
