// Package command provides the command definitions of pcd-cli.
//
// Commands are built on urfave/cli/v2:
//
//   - session: open, list, get, read, write, seek and close sessions
//   - device: device info plus the cat and put shortcuts
//   - local: status, sessions, digest and loglevel over the local socket
//   - config: show and edit ~/.pcd/cli.yaml
//
// Device commands talk to the HTTP API; local commands need access to
// the server's Unix socket.
package command
