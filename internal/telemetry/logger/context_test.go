package logger

import (
	"context"
	"strings"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	l, _ := newTestLogger(t, "json")
	ctx := WithLogger(context.Background(), l)

	if got := FromContext(ctx); got != l {
		t.Error("FromContext() did not return the stored logger")
	}
}

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Error("FromContext() on empty context returned nil")
	}
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext() = %q, want req-1", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext(empty) = %q", got)
	}
}

func TestSessionID(t *testing.T) {
	ctx := WithSessionID(context.Background(), "pcds-abc")
	if got := SessionIDFromContext(ctx); got != "pcds-abc" {
		t.Errorf("SessionIDFromContext() = %q, want pcds-abc", got)
	}
}

func TestL_EnrichesLogger(t *testing.T) {
	l, buf := newTestLogger(t, "json")
	ctx := WithLogger(context.Background(), l)
	ctx = WithRequestID(ctx, "req-42")
	ctx = WithSessionID(ctx, "pcds-xyz")

	L(ctx).Info("read")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-42"`) {
		t.Errorf("request_id missing: %q", out)
	}
	if !strings.Contains(out, `"session_id":"pcds-xyz"`) {
		t.Errorf("session_id missing: %q", out)
	}
}

func TestContextKeyCollision(t *testing.T) {
	ctx := context.WithValue(context.Background(), "pcd.request_id", "plain-string-key")
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("plain string key leaked into typed key lookup: %q", got)
	}
}
