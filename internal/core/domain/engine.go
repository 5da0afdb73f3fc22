// Package domain defines the core domain models for the pcd device.
package domain

import "fmt"

// Seek moves the session cursor and returns the new position.
//
// The target is offset from the start, from the current cursor or from
// Capacity depending on whence. Targets outside [0, Capacity] and unknown
// origins fail with ErrInvalidArgument and leave the cursor unchanged.
// Capacity itself is a valid resting position.
func Seek(sess *Session, offset int64, whence Whence) (int64, error) {
	var base int64
	switch whence {
	case SeekStart:
		base = 0
	case SeekCurrent:
		base = sess.cursor
	case SeekEnd:
		base = Capacity
	default:
		return sess.cursor, ErrInvalidArgument.WithDetails("unknown whence " + whence.String())
	}

	// base is within [0, Capacity], so both bounds are computed without overflow.
	if offset < -base || offset > Capacity-base {
		return sess.cursor, ErrInvalidArgument.WithDetails(
			fmt.Sprintf("offset %d from %s (base %d) leaves [0, %d]", offset, whence, base, Capacity))
	}

	sess.cursor = base + offset
	return sess.cursor, nil
}

// Read copies bytes from storage at the session cursor into dst and
// advances the cursor by the number of bytes copied.
//
// A request longer than what remains is clamped (short read). When nothing
// can be transferred, Read fails with ErrEndOfStorage instead of returning 0.
func Read(sess *Session, st *Storage, dst []byte) (int, error) {
	n := clamp(len(dst), sess.cursor)
	if n == 0 {
		return 0, ErrEndOfStorage.WithDetails(fmt.Sprintf("position %d", sess.cursor))
	}

	start := sess.cursor
	copy(dst[:n], st.contents[start:start+n])
	sess.cursor += n
	return int(n), nil
}

// Write copies src into storage at the session cursor and advances the
// cursor by the number of bytes copied.
//
// Input longer than the room left is clamped (short write). When nothing
// can be written, Write fails with ErrStorageFull. Storage never grows.
func Write(sess *Session, st *Storage, src []byte) (int, error) {
	n := clamp(len(src), sess.cursor)
	if n == 0 {
		return 0, ErrStorageFull.WithDetails(fmt.Sprintf("position %d", sess.cursor))
	}

	start := sess.cursor
	copy(st.contents[start:start+n], src[:n])
	sess.cursor += n
	return int(n), nil
}

// clamp limits a requested length to the bytes left after cursor.
func clamp(requested int, cursor int64) int64 {
	available := Capacity - cursor
	if int64(requested) > available {
		return available
	}
	return int64(requested)
}
