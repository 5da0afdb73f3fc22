// Package domain defines the core domain models for the pcd device.
package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionIDPrefix is the prefix for session handle IDs.
const SessionIDPrefix = "pcds-"

// Session is the per-open state of the device: a cursor into Storage.
//
// The cursor always satisfies 0 <= cursor <= Capacity. It is changed only
// by Seek, Read and Write.
type Session struct {
	// ID is the handle of the session.
	// Format: pcds-{ulid_lowercase}, 31 characters total.
	ID string `json:"id"`

	// OpenedAt is the open time (Unix milliseconds).
	OpenedAt int64 `json:"opened_at"`

	cursor int64
}

// NewSession creates an open session positioned at 0.
func NewSession() (*Session, error) {
	id, err := GenerateSessionID()
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:       id,
		OpenedAt: time.Now().UnixMilli(),
	}, nil
}

// GenerateSessionID generates a new session handle ID using ULID.
func GenerateSessionID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return SessionIDPrefix + strings.ToLower(id.String()), nil
}

// Position returns the current cursor.
func (s *Session) Position() int64 {
	return s.cursor
}

// Remaining returns the number of bytes between the cursor and the end of storage.
func (s *Session) Remaining() int64 {
	return Capacity - s.cursor
}
