package handler

import (
	"encoding/json"
	"time"

	"github.com/yndnr/pcd-go/internal/core/service"
	"github.com/yndnr/pcd-go/internal/infra/buildinfo"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Errno     string `json:"errno,omitempty"`
	Details   any    `json:"details,omitempty"` // Additional error details
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// SessionResponse is a session handle and its cursor.
type SessionResponse struct {
	ID       string    `json:"id"`
	Position int64     `json:"position"`
	OpenedAt time.Time `json:"opened_at,omitempty"`
}

// ListSessionsResponse is the response body for GET /v1/sessions.
type ListSessionsResponse struct {
	Items []SessionResponse `json:"items"`
	Total int               `json:"total"`
}

// ReadRequest is the request body for POST /v1/sessions/{id}/read.
type ReadRequest struct {
	Length int `json:"length"`
}

// ReadResponse carries the bytes read, base64 encoded on the wire.
type ReadResponse struct {
	Data      []byte `json:"data"`
	BytesRead int    `json:"bytes_read"`
	Position  int64  `json:"position"`
}

// WriteRequest is the request body for POST /v1/sessions/{id}/write.
// Data is base64 encoded on the wire.
type WriteRequest struct {
	Data []byte `json:"data"`
}

// WriteResponse is the response body for POST /v1/sessions/{id}/write.
type WriteResponse struct {
	BytesWritten int   `json:"bytes_written"`
	Position     int64 `json:"position"`
}

// SeekRequest is the request body for POST /v1/sessions/{id}/seek.
// Whence is a number (0, 1, 2) or a name (SET, CUR, END); it defaults
// to SET.
type SeekRequest struct {
	Offset int64           `json:"offset"`
	Whence json.RawMessage `json:"whence,omitempty"`
}

// SeekResponse is the response body for seek and tell.
type SeekResponse struct {
	Position int64 `json:"position"`
}

// DeviceResponse is the response body for GET /v1/device.
type DeviceResponse struct {
	service.DeviceStat
	Build buildinfo.Info `json:"build"`
}
