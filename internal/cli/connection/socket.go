package connection

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"time"
)

// SocketClient provides Unix socket communication for local management.
type SocketClient struct {
	path    string
	timeout time.Duration
	conn    net.Conn
	r       *bufio.Reader
}

// NewSocketClient creates a new socket client.
func NewSocketClient(socketPath string) *SocketClient {
	return &SocketClient{path: socketPath, timeout: 10 * time.Second}
}

// Connect connects to the local socket.
func (c *SocketClient) Connect() error {
	conn, err := net.DialTimeout("unix", c.path, c.timeout)
	if err != nil {
		return err
	}
	c.conn = conn
	c.r = bufio.NewReader(conn)
	return nil
}

// Close closes the socket connection.
func (c *SocketClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Execute sends a command line and returns the reply lines. An ERR
// reply is returned as an error.
func (c *SocketClient) Execute(cmd string) ([]string, error) {
	if c.conn == nil {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}
	_ = c.conn.SetDeadline(time.Now().Add(c.timeout))

	if _, err := c.conn.Write([]byte(cmd + "\n")); err != nil {
		return nil, err
	}

	var lines []string
	for {
		line, err := c.r.ReadString('\n')
		if err != nil {
			return lines, err
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "OK":
			return lines, nil
		case strings.HasPrefix(line, "ERR "):
			return lines, errors.New(strings.TrimPrefix(line, "ERR "))
		}
		lines = append(lines, line)
	}
}
