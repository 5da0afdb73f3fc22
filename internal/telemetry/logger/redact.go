package logger

import (
	"log/slog"
	"strconv"
	"strings"
)

// Keys whose values are device payloads. Only their size is logged.
var payloadKeys = []string{
	"data",
	"payload",
	"contents",
}

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"authorization",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive replaces payloads by their size and secrets by a placeholder.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	if IsPayloadKey(a.Key) {
		switch v := a.Value.Any().(type) {
		case []byte:
			return slog.String(a.Key, sizeSummary(len(v)))
		case string:
			return slog.String(a.Key, sizeSummary(len(v)))
		}
	}

	if a.Value.Kind() == slog.KindString && a.Value.String() != "" && IsSensitiveKey(a.Key) {
		return slog.String(a.Key, redactedValue)
	}

	return a
}

func sizeSummary(n int) string {
	return "<" + strconv.Itoa(n) + " bytes>"
}

// IsPayloadKey reports whether key names a device payload attribute.
func IsPayloadKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, k := range payloadKeys {
		if keyLower == k {
			return true
		}
	}
	return false
}

// IsSensitiveKey checks if a key name suggests secret content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
