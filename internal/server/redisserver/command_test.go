package redisserver

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/pcd-go/internal/core/domain"
	"github.com/yndnr/pcd-go/internal/telemetry/metric"
)

func errContains(t *testing.T, got any, want string) {
	t.Helper()
	e, ok := got.(replyError)
	if !ok {
		t.Fatalf("reply = %#v, want error containing %q", got, want)
	}
	if !strings.Contains(string(e), want) {
		t.Fatalf("error = %q, want it to contain %q", e, want)
	}
}

func TestFormatRedisError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"domain", domain.ErrEndOfStorage, "ERR PCD-DEV-4161 nothing to read"},
		{"details", domain.ErrSessionNotFound.WithDetails("abc"), "ERR PCD-SESS-4040 session not found: abc"},
		{"plain", errors.New("boom"), "ERR boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatRedisError(tt.err); got != tt.want {
				t.Errorf("formatRedisError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommand_DeviceRoundTrip(t *testing.T) {
	srv := New(testConfig(), newTestDevice(t), WithLogger(quietLogger()))
	c, _ := pipeClient(t, srv)

	id := string(c.do("OPEN").([]byte))
	if id == "" {
		t.Fatal("OPEN returned empty handle")
	}

	if got := c.do("WRITE", id, "hello"); got != int64(5) {
		t.Fatalf("WRITE = %v, want 5", got)
	}
	if got := c.do("TELL", id); got != int64(5) {
		t.Errorf("TELL = %v, want 5", got)
	}
	if got := c.do("SEEK", id, "0", "SEEK_SET"); got != int64(0) {
		t.Errorf("SEEK = %v, want 0", got)
	}
	if got := c.do("READ", id, "5"); !bytes.Equal(got.([]byte), []byte("hello")) {
		t.Errorf("READ = %q, want hello", got)
	}
	if got := c.do("SEEK", id, "-2", "cur"); got != int64(3) {
		t.Errorf("SEEK cur = %v, want 3", got)
	}
	if got := c.do("SEEK", id, "0", "2"); got != int64(domain.Capacity) {
		t.Errorf("SEEK end = %v, want %d", got, domain.Capacity)
	}
	if got := c.do("CLOSE", id); got != "OK" {
		t.Errorf("CLOSE = %v", got)
	}
	errContains(t, c.do("TELL", id), domain.ErrSessionNotFound.Code)
}

func TestCommand_BoundaryErrors(t *testing.T) {
	srv := New(testConfig(), newTestDevice(t), WithLogger(quietLogger()))
	c, _ := pipeClient(t, srv)
	id := string(c.do("OPEN").([]byte))

	c.do("SEEK", id, "-3", "END")
	payload := "abcdef"
	if got := c.do("WRITE", id, payload); got != int64(3) {
		t.Errorf("WRITE at tail = %v, want 3", got)
	}
	errContains(t, c.do("WRITE", id, "x"), domain.ErrStorageFull.Code)
	errContains(t, c.do("READ", id, "1"), domain.ErrEndOfStorage.Code)

	// A rejected seek keeps the cursor.
	errContains(t, c.do("SEEK", id, "1", "END"), domain.ErrInvalidArgument.Code)
	errContains(t, c.do("SEEK", id, "-1", "SET"), domain.ErrInvalidArgument.Code)
	if got := c.do("TELL", id); got != int64(domain.Capacity) {
		t.Errorf("TELL after rejected seeks = %v", got)
	}

	errContains(t, c.do("SEEK", id, "x", "SET"), domain.ErrInvalidArgument.Code)
	errContains(t, c.do("SEEK", id, "0", "SEEK_HOLE"), domain.ErrInvalidArgument.Code)
	errContains(t, c.do("READ", id, "many"), domain.ErrBadRequest.Code)
	errContains(t, c.do("READ", id, "-1"), domain.ErrInvalidArgument.Code)
}

func TestCommand_WriteNullBulkIsCopyFault(t *testing.T) {
	dev := newTestDevice(t)
	srv := New(testConfig(), dev, WithLogger(quietLogger()))
	c, _ := pipeClient(t, srv)
	id := string(c.do("OPEN").([]byte))

	cmd := "*3\r\n$5\r\nWRITE\r\n$" + strconv.Itoa(len(id)) + "\r\n" + id + "\r\n$-1\r\n"
	errContains(t, c.raw(cmd), domain.ErrCopyFault.Code)

	if got := c.do("TELL", id); got != int64(0) {
		t.Errorf("cursor moved after copy fault: %v", got)
	}
}

func TestCommand_ForeignHandle(t *testing.T) {
	dev := newTestDevice(t)
	srv := New(testConfig(), dev, WithLogger(quietLogger()))
	a, _ := pipeClient(t, srv)
	b, _ := pipeClient(t, srv)

	id := string(a.do("OPEN").([]byte))
	errContains(t, b.do("WRITE", id, "x"), domain.ErrSessionNotFound.Code)
	errContains(t, b.do("CLOSE", id), domain.ErrSessionNotFound.Code)

	if got := a.do("WRITE", id, "x"); got != int64(1) {
		t.Errorf("owner WRITE = %v", got)
	}
}

func TestCommand_SharedStorage(t *testing.T) {
	srv := New(testConfig(), newTestDevice(t), WithLogger(quietLogger()))
	a, _ := pipeClient(t, srv)
	b, _ := pipeClient(t, srv)

	ida := string(a.do("OPEN").([]byte))
	idb := string(b.do("OPEN").([]byte))

	a.do("WRITE", ida, "shared")
	if got := b.do("READ", idb, "6"); string(got.([]byte)) != "shared" {
		t.Errorf("READ from second connection = %q", got)
	}
}

func TestCommand_Sessions(t *testing.T) {
	srv := New(testConfig(), newTestDevice(t), WithLogger(quietLogger()))
	c, _ := pipeClient(t, srv)
	other, _ := pipeClient(t, srv)

	id1 := string(c.do("OPEN").([]byte))
	id2 := string(c.do("OPEN").([]byte))
	other.do("OPEN")

	got := c.do("SESSIONS").([]any)
	if len(got) != 2 {
		t.Fatalf("SESSIONS returned %d handles, want 2", len(got))
	}
	want := []string{id1, id2}
	if want[0] > want[1] {
		want[0], want[1] = want[1], want[0]
	}
	for i, v := range got {
		if string(v.([]byte)) != want[i] {
			t.Errorf("SESSIONS[%d] = %q, want %q", i, v, want[i])
		}
	}

	if got := c.do("SESSIONS", "nomatch*").([]any); len(got) != 0 {
		t.Errorf("SESSIONS nomatch* = %v", got)
	}
	if got := c.do("SESSIONS", id1).([]any); len(got) != 1 {
		t.Errorf("SESSIONS exact = %v", got)
	}
	errContains(t, c.do("SESSIONS", "a", "b"), "wrong number of arguments")
}

func TestCommand_Info(t *testing.T) {
	srv := New(testConfig(), newTestDevice(t), WithLogger(quietLogger()))
	c, _ := pipeClient(t, srv)
	id := string(c.do("OPEN").([]byte))
	c.do("WRITE", id, "abc")

	info := string(c.do("INFO").([]byte))
	for _, want := range []string{
		"# Device", "name:pcd", "class:pcd_class", "capacity:512",
		"serialized:1", "open_sessions:1", "writes:1", "bytes_written:3",
	} {
		if !strings.Contains(info, want) {
			t.Errorf("INFO missing %q:\n%s", want, info)
		}
	}
}

func TestCommand_InfoSection(t *testing.T) {
	srv := New(testConfig(), newTestDevice(t), WithLogger(quietLogger()))
	c, _ := pipeClient(t, srv)
	c.do("OPEN")

	tests := []struct {
		section string
		want    []string
		absent  []string
	}{
		{"device", []string{"# Device", "capacity:512"}, []string{"# Sessions", "# Stats"}},
		{"SESSIONS", []string{"# Sessions", "open_sessions:1"}, []string{"# Device", "# Stats"}},
		{"stats", []string{"# Stats", "opens:1"}, []string{"# Device", "# Sessions"}},
		{"all", []string{"# Device", "# Sessions", "# Stats"}, nil},
		{"default", []string{"# Device", "# Sessions", "# Stats"}, nil},
		{"nosuch", nil, []string{"#"}},
	}
	for _, tt := range tests {
		t.Run(tt.section, func(t *testing.T) {
			info := string(c.do("INFO", tt.section).([]byte))
			for _, want := range tt.want {
				if !strings.Contains(info, want) {
					t.Errorf("INFO %s missing %q:\n%s", tt.section, want, info)
				}
			}
			for _, absent := range tt.absent {
				if strings.Contains(info, absent) {
					t.Errorf("INFO %s contains %q:\n%s", tt.section, absent, info)
				}
			}
		})
	}

	if info := string(c.do("INFO", "device").([]byte)); strings.HasPrefix(info, "\r\n") {
		t.Errorf("single section starts with a blank line: %q", info)
	}
}

func TestCommand_Auth(t *testing.T) {
	cfg := testConfig()
	cfg.Password = "s3cret"
	srv := New(cfg, newTestDevice(t), WithLogger(quietLogger()))
	c, _ := pipeClient(t, srv)

	if got := c.do("PING"); got != "PONG" {
		t.Errorf("PING before AUTH = %v", got)
	}
	errContains(t, c.do("OPEN"), "NOAUTH")
	errContains(t, c.do("AUTH", "wrong"), "WRONGPASS")
	errContains(t, c.do("AUTH"), "wrong number of arguments")
	if got := c.do("AUTH", "s3cret"); got != "OK" {
		t.Fatalf("AUTH = %v", got)
	}
	if _, ok := c.do("OPEN").([]byte); !ok {
		t.Error("OPEN after AUTH failed")
	}
}

func TestCommand_AuthWithoutPassword(t *testing.T) {
	srv := New(testConfig(), newTestDevice(t), WithLogger(quietLogger()))
	c, _ := pipeClient(t, srv)
	errContains(t, c.do("AUTH", "x"), "without any password")
}

func TestCommand_WrongArgs(t *testing.T) {
	srv := New(testConfig(), newTestDevice(t), WithLogger(quietLogger()))
	c, _ := pipeClient(t, srv)

	tests := [][]string{
		{"OPEN", "extra"},
		{"CLOSE"},
		{"READ", "id"},
		{"WRITE", "id"},
		{"SEEK", "id", "0"},
		{"TELL"},
		{"INFO", "a", "b"},
	}
	for _, args := range tests {
		t.Run(args[0], func(t *testing.T) {
			errContains(t, c.do(args...), "wrong number of arguments")
		})
	}
	errContains(t, c.do("FLUSHALL"), "unknown command")
}

func TestCommand_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 1
	cfg.RateBurst = 2
	srv := New(cfg, newTestDevice(t), WithLogger(quietLogger()))
	c, _ := pipeClient(t, srv)

	c.do("OPEN")
	c.do("OPEN")
	errContains(t, c.do("OPEN"), domain.ErrRateLimited.Code)

	// PING is not rate limited.
	if got := c.do("PING"); got != "PONG" {
		t.Errorf("PING = %v", got)
	}
}

func TestCommand_Metrics(t *testing.T) {
	reg := metric.NewRegistry()
	srv := New(testConfig(), newTestDevice(t), WithLogger(quietLogger()), WithMetrics(reg))
	c, _ := pipeClient(t, srv)

	c.do("PING")
	c.do("TELL", "missing")

	if got := testutil.ToFloat64(reg.RequestsTotal.WithLabelValues("resp", "PING", "ok")); got != 1 {
		t.Errorf("PING ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(reg.RequestsTotal.WithLabelValues("resp", "TELL", "error")); got != 1 {
		t.Errorf("TELL error = %v, want 1", got)
	}
}

func TestReleaseSessions_AfterDeviceShutdown(t *testing.T) {
	dev := newTestDevice(t)
	srv := New(testConfig(), dev, WithLogger(quietLogger()))
	c, done := pipeClient(t, srv)
	c.do("OPEN")

	if err := dev.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.conn.Close()
	<-done
}
