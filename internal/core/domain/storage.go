// Package domain defines the core domain models for the pcd device.
package domain

import "github.com/spaolacci/murmur3"

// Capacity is the fixed size of the device storage in bytes.
const Capacity = 512

// Storage is the fixed-capacity byte region backing the device.
//
// The zero value is a valid, zero-filled storage. Its length never changes;
// valid indices are always [0, Capacity).
type Storage struct {
	contents [Capacity]byte
}

// NewStorage returns a zero-filled storage.
func NewStorage() *Storage {
	return &Storage{}
}

// Snapshot returns a copy of the current contents.
func (s *Storage) Snapshot() []byte {
	out := make([]byte, Capacity)
	copy(out, s.contents[:])
	return out
}

// Digest returns a murmur3 hash of the current contents.
func (s *Storage) Digest() uint64 {
	return murmur3.Sum64(s.contents[:])
}
