package redisserver

import "strings"

// matchGlob matches a string against a simple glob pattern.
// Supports * as wildcard that matches any characters.
// Examples:
//   - "pcds-*" matches "pcds-01j9..."
//   - "*z" matches handles ending in z
func matchGlob(pattern, s string) bool {
	if pattern == "*" {
		return true
	}
	if pattern == "" {
		return s == ""
	}

	// Simple case: no wildcards
	if !strings.Contains(pattern, "*") {
		return pattern == s
	}

	parts := strings.Split(pattern, "*")

	// First part must be a prefix (if not empty)
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]

	// Middle parts must appear in order
	last := len(parts) - 1
	for i := 1; i < last; i++ {
		if parts[i] == "" {
			continue
		}
		idx := strings.Index(s, parts[i])
		if idx < 0 {
			return false
		}
		s = s[idx+len(parts[i]):]
	}

	// Last part must be a suffix
	return strings.HasSuffix(s, parts[last])
}
