// Package cmap provides a sharded concurrent map keyed by string.
//
// Keys are spread over a power-of-two number of shards by their murmur3
// hash; each shard has its own RWMutex. The device host uses it as the
// open-session table, where lookups by handle vastly outnumber opens and
// closes.
//
//	m := cmap.New[*domain.Session]()
//	m.SetIfAbsent(sess.ID, sess)
//	sess, ok := m.Get(id)
//
// All operations are safe for concurrent use. Range and Drain visit one
// shard at a time, so they observe a per-shard consistent view only.
package cmap
