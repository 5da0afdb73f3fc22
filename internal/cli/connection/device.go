package connection

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// Session is a session handle and its cursor.
type Session struct {
	ID       string    `json:"id" yaml:"id"`
	Position int64     `json:"position" yaml:"position"`
	OpenedAt time.Time `json:"opened_at,omitempty" yaml:"opened_at,omitempty"`
}

// ReadResult is the outcome of a read.
type ReadResult struct {
	Data      []byte `json:"data" yaml:"-" table:"-"`
	BytesRead int    `json:"bytes_read" yaml:"bytes_read"`
	Position  int64  `json:"position" yaml:"position"`
}

// WriteResult is the outcome of a write.
type WriteResult struct {
	BytesWritten int   `json:"bytes_written" yaml:"bytes_written"`
	Position     int64 `json:"position" yaml:"position"`
}

// DeviceNumber is a major:minor pair.
type DeviceNumber struct {
	Major uint32 `json:"major" yaml:"major"`
	Minor uint32 `json:"minor" yaml:"minor"`
}

func (n DeviceNumber) String() string {
	return strconv.FormatUint(uint64(n.Major), 10) + ":" + strconv.FormatUint(uint64(n.Minor), 10)
}

// DeviceInfo is the device description returned by GET /v1/device.
type DeviceInfo struct {
	Device struct {
		Name       string       `json:"name" yaml:"name"`
		Class      string       `json:"class" yaml:"class"`
		Number     DeviceNumber `json:"number" yaml:"number"`
		MinorCount uint32       `json:"minor_count" yaml:"minor_count"`
		Capacity   int64        `json:"capacity" yaml:"capacity"`
	} `json:"device" yaml:"device"`
	OpenSessions int               `json:"open_sessions" yaml:"open_sessions"`
	Digest       string            `json:"digest" yaml:"digest"`
	Serialized   bool              `json:"serialized" yaml:"serialized"`
	Counters     map[string]uint64 `json:"counters" yaml:"counters"`
	RegisteredAt int64             `json:"registered_at" yaml:"registered_at"`
	Build        map[string]any    `json:"build" yaml:"build"`
}

// DeviceClient wraps the device endpoints of the HTTP API.
type DeviceClient struct {
	http *HTTPClient
}

// NewDeviceClient creates a client for the server at addr.
func NewDeviceClient(addr string) *DeviceClient {
	return &DeviceClient{http: NewHTTPClient(addr)}
}

// BaseURL returns the server URL.
func (c *DeviceClient) BaseURL() string {
	return c.http.BaseURL()
}

func sessionPath(id string) string {
	return "/v1/sessions/" + url.PathEscape(id)
}

// Open opens a session.
func (c *DeviceClient) Open(ctx context.Context) (*Session, error) {
	resp, err := c.http.Post(ctx, "/v1/sessions", nil)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := ParseResponse(resp, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns the open sessions.
func (c *DeviceClient) List(ctx context.Context) ([]Session, error) {
	resp, err := c.http.Get(ctx, "/v1/sessions")
	if err != nil {
		return nil, err
	}
	var out struct {
		Items []Session `json:"items"`
	}
	if err := ParseResponse(resp, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Get returns the cursor of session id.
func (c *DeviceClient) Get(ctx context.Context, id string) (*Session, error) {
	resp, err := c.http.Get(ctx, sessionPath(id))
	if err != nil {
		return nil, err
	}
	var s Session
	if err := ParseResponse(resp, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Read reads up to n bytes at the session cursor.
func (c *DeviceClient) Read(ctx context.Context, id string, n int) (*ReadResult, error) {
	resp, err := c.http.Post(ctx, sessionPath(id)+"/read", map[string]int{"length": n})
	if err != nil {
		return nil, err
	}
	var r ReadResult
	if err := ParseResponse(resp, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Write writes data at the session cursor.
func (c *DeviceClient) Write(ctx context.Context, id string, data []byte) (*WriteResult, error) {
	if data == nil {
		data = []byte{}
	}
	resp, err := c.http.Post(ctx, sessionPath(id)+"/write", map[string][]byte{"data": data})
	if err != nil {
		return nil, err
	}
	var r WriteResult
	if err := ParseResponse(resp, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Seek moves the session cursor. whence is 0, 1, 2 or SET, CUR, END.
func (c *DeviceClient) Seek(ctx context.Context, id string, offset int64, whence string) (int64, error) {
	resp, err := c.http.Post(ctx, sessionPath(id)+"/seek", map[string]any{
		"offset": offset,
		"whence": whence,
	})
	if err != nil {
		return 0, err
	}
	var out struct {
		Position int64 `json:"position"`
	}
	if err := ParseResponse(resp, &out); err != nil {
		return 0, err
	}
	return out.Position, nil
}

// Close closes session id.
func (c *DeviceClient) Close(ctx context.Context, id string) error {
	resp, err := c.http.Post(ctx, sessionPath(id)+"/close", nil)
	if err != nil {
		return err
	}
	return ParseResponse(resp, nil)
}

// Device returns the device description and counters.
func (c *DeviceClient) Device(ctx context.Context) (*DeviceInfo, error) {
	resp, err := c.http.Get(ctx, "/v1/device")
	if err != nil {
		return nil, err
	}
	var d DeviceInfo
	if err := ParseResponse(resp, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
