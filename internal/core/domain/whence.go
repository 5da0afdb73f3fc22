// Package domain defines the core domain models for the pcd device.
package domain

import (
	"io"
	"strconv"
	"strings"
)

// Whence selects the origin of a seek.
type Whence int

// Seek origins. The values match io.SeekStart, io.SeekCurrent and io.SeekEnd.
const (
	SeekStart   Whence = io.SeekStart
	SeekCurrent Whence = io.SeekCurrent
	SeekEnd     Whence = io.SeekEnd
)

// Valid reports whether w is one of the three known origins.
func (w Whence) Valid() bool {
	switch w {
	case SeekStart, SeekCurrent, SeekEnd:
		return true
	}
	return false
}

// String returns the SEEK_* name of w.
func (w Whence) String() string {
	switch w {
	case SeekStart:
		return "SEEK_SET"
	case SeekCurrent:
		return "SEEK_CUR"
	case SeekEnd:
		return "SEEK_END"
	default:
		return "SEEK(" + strconv.Itoa(int(w)) + ")"
	}
}

// ParseWhence parses a whence given as a number (0, 1, 2) or a name
// (SET, CUR, END, with or without the SEEK_ prefix, or start/current/end).
//
// Unknown names are rejected with ErrInvalidArgument. Unknown numbers are
// returned as-is so that Seek can reject them.
func ParseWhence(s string) (Whence, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return Whence(n), nil
	}
	switch strings.TrimPrefix(strings.ToUpper(s), "SEEK_") {
	case "SET", "START":
		return SeekStart, nil
	case "CUR", "CURRENT":
		return SeekCurrent, nil
	case "END":
		return SeekEnd, nil
	}
	return 0, ErrInvalidArgument.WithDetails("unknown whence " + strconv.Quote(s))
}
