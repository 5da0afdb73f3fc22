// Package localserver provides the Unix socket server for local management.
//
// The socket speaks a line protocol: one command per line, answered by
// zero or more text lines and a final "OK" or "ERR <message>" line.
//
//   - status: device number, capacity, open sessions and counters
//   - sessions: one "<id> <position>" line per open session
//   - digest: murmur3 digest of the storage contents
//   - dump: hex dump of the storage contents
//   - loglevel [level]: show or change the log level
//   - help: list the commands
//
// Access is controlled by the socket file permissions (0600).
package localserver
