package domain

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func newTestSession(t *testing.T, pos int64) *Session {
	t.Helper()
	sess, err := NewSession()
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if pos != 0 {
		if _, err := Seek(sess, pos, SeekStart); err != nil {
			t.Fatalf("Seek(%d) error = %v", pos, err)
		}
	}
	return sess
}

func TestSeek(t *testing.T) {
	tests := []struct {
		name    string
		start   int64
		offset  int64
		whence  Whence
		want    int64
		wantErr bool
	}{
		{name: "start zero", start: 10, offset: 0, whence: SeekStart, want: 0},
		{name: "start middle", offset: 100, whence: SeekStart, want: 100},
		{name: "start at capacity", offset: Capacity, whence: SeekStart, want: Capacity},
		{name: "start past capacity", offset: Capacity + 1, whence: SeekStart, wantErr: true},
		{name: "start negative", offset: -1, whence: SeekStart, wantErr: true},
		{name: "current forward", start: 50, offset: 25, whence: SeekCurrent, want: 75},
		{name: "current backward", start: 50, offset: -50, whence: SeekCurrent, want: 0},
		{name: "current below zero", start: 50, offset: -100, whence: SeekCurrent, wantErr: true},
		{name: "current past capacity", start: 500, offset: 13, whence: SeekCurrent, wantErr: true},
		{name: "current to capacity", start: 500, offset: 12, whence: SeekCurrent, want: Capacity},
		{name: "end zero", offset: 0, whence: SeekEnd, want: Capacity},
		{name: "end backward", offset: -12, whence: SeekEnd, want: 500},
		{name: "end to start", offset: -Capacity, whence: SeekEnd, want: 0},
		{name: "end before start", offset: -Capacity - 1, whence: SeekEnd, wantErr: true},
		{name: "end forward", offset: 1, whence: SeekEnd, wantErr: true},
		{name: "unknown whence", start: 7, offset: 0, whence: Whence(3), wantErr: true},
		{name: "negative whence", start: 7, offset: 0, whence: Whence(-1), wantErr: true},
		{name: "max offset from current", start: 5, offset: math.MaxInt64, whence: SeekCurrent, wantErr: true},
		{name: "min offset from end", offset: math.MinInt64, whence: SeekEnd, wantErr: true},
		{name: "max offset from end", offset: math.MaxInt64, whence: SeekEnd, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newTestSession(t, tt.start)

			got, err := Seek(sess, tt.offset, tt.whence)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("Seek() error = %v, want ErrInvalidArgument", err)
				}
				if sess.Position() != tt.start {
					t.Errorf("cursor = %d after failed seek, want unchanged %d", sess.Position(), tt.start)
				}
				return
			}
			if err != nil {
				t.Fatalf("Seek() error = %v", err)
			}
			if got != tt.want || sess.Position() != tt.want {
				t.Errorf("Seek() = %d (cursor %d), want %d", got, sess.Position(), tt.want)
			}
		})
	}
}

func TestSeek_CursorAlwaysInRange(t *testing.T) {
	sess := newTestSession(t, 0)
	offsets := []int64{-1000, -513, -512, -1, 0, 1, 100, 511, 512, 513, 1000}

	for _, whence := range []Whence{SeekStart, SeekCurrent, SeekEnd} {
		for _, off := range offsets {
			before := sess.Position()
			_, err := Seek(sess, off, whence)
			pos := sess.Position()
			if pos < 0 || pos > Capacity {
				t.Fatalf("cursor %d out of range after Seek(%d, %s)", pos, off, whence)
			}
			if err != nil && pos != before {
				t.Fatalf("failed Seek(%d, %s) moved cursor %d -> %d", off, whence, before, pos)
			}
		}
	}
}

func TestRead_FreshStorageReturnsZeros(t *testing.T) {
	st := NewStorage()
	sess := newTestSession(t, 0)

	buf := bytes.Repeat([]byte{0xff}, 10)
	n, err := Read(sess, st, buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if n != 10 {
		t.Errorf("Read() = %d, want 10", n)
	}
	if !bytes.Equal(buf, make([]byte, 10)) {
		t.Errorf("Read() data = %v, want zeros", buf)
	}
	if sess.Position() != 10 {
		t.Errorf("cursor = %d, want 10", sess.Position())
	}
}

func TestRead_ShortReadAtTail(t *testing.T) {
	st := NewStorage()
	sess := newTestSession(t, 500)

	n, err := Read(sess, st, make([]byte, 100))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if n != 12 {
		t.Errorf("Read() = %d, want 12", n)
	}
	if sess.Position() != Capacity {
		t.Errorf("cursor = %d, want %d", sess.Position(), Capacity)
	}
}

func TestRead_AtEnd(t *testing.T) {
	st := NewStorage()
	sess := newTestSession(t, Capacity)

	n, err := Read(sess, st, make([]byte, 1))
	if !errors.Is(err, ErrEndOfStorage) {
		t.Fatalf("Read() error = %v, want ErrEndOfStorage", err)
	}
	if n != 0 || sess.Position() != Capacity {
		t.Errorf("Read() = %d, cursor %d; want 0, %d", n, sess.Position(), Capacity)
	}
}

func TestRead_ZeroLength(t *testing.T) {
	st := NewStorage()
	sess := newTestSession(t, 3)

	if _, err := Read(sess, st, nil); !errors.Is(err, ErrEndOfStorage) {
		t.Fatalf("Read(nil) error = %v, want ErrEndOfStorage", err)
	}
	if sess.Position() != 3 {
		t.Errorf("cursor = %d, want 3", sess.Position())
	}
}

func TestWrite_ClampedAtCapacity(t *testing.T) {
	st := NewStorage()
	sess := newTestSession(t, 0)

	src := bytes.Repeat([]byte("x"), 600)
	n, err := Write(sess, st, src)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != Capacity {
		t.Errorf("Write() = %d, want %d", n, Capacity)
	}
	if sess.Position() != Capacity {
		t.Errorf("cursor = %d, want %d", sess.Position(), Capacity)
	}
	if !bytes.Equal(st.Snapshot(), src[:Capacity]) {
		t.Error("storage does not hold the first Capacity bytes of input")
	}
}

func TestWrite_Full(t *testing.T) {
	st := NewStorage()
	sess := newTestSession(t, Capacity)
	before := st.Digest()

	n, err := Write(sess, st, []byte("abc"))
	if !errors.Is(err, ErrStorageFull) {
		t.Fatalf("Write() error = %v, want ErrStorageFull", err)
	}
	if n != 0 || sess.Position() != Capacity {
		t.Errorf("Write() = %d, cursor %d; want 0, %d", n, sess.Position(), Capacity)
	}
	if st.Digest() != before {
		t.Error("failed write modified storage")
	}
}

func TestWriteThenRead_RoundTrip(t *testing.T) {
	st := NewStorage()
	writer := newTestSession(t, 0)
	reader := newTestSession(t, 0)
	payload := []byte("hello, device")

	for _, pos := range []int64{0, 7, 256, Capacity - int64(len(payload))} {
		if _, err := Seek(writer, pos, SeekStart); err != nil {
			t.Fatalf("Seek(writer) error = %v", err)
		}
		if n, err := Write(writer, st, payload); err != nil || n != len(payload) {
			t.Fatalf("Write() = %d, %v", n, err)
		}

		if _, err := Seek(reader, pos, SeekStart); err != nil {
			t.Fatalf("Seek(reader) error = %v", err)
		}
		got := make([]byte, len(payload))
		if n, err := Read(reader, st, got); err != nil || n != len(payload) {
			t.Fatalf("Read() = %d, %v", n, err)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("at %d read %q, want %q", pos, got, payload)
		}
	}
}

func TestRead_Repeatable(t *testing.T) {
	st := NewStorage()
	sess := newTestSession(t, 0)
	if _, err := Write(sess, st, []byte("0123456789abcdef")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	first := make([]byte, 8)
	second := make([]byte, 8)
	_, _ = Seek(sess, 4, SeekStart)
	if _, err := Read(sess, st, first); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	_, _ = Seek(sess, -8, SeekCurrent)
	if _, err := Read(sess, st, second); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("reads differ: %q vs %q", first, second)
	}
}

func TestTransfer_ExactAccounting(t *testing.T) {
	st := NewStorage()
	sess := newTestSession(t, 0)

	for _, size := range []int{1, 17, 100, 300, 200, 5} {
		before := sess.Position()
		n, err := Write(sess, st, make([]byte, size))
		if err != nil {
			if !errors.Is(err, ErrStorageFull) || before != Capacity {
				t.Fatalf("Write(%d) at %d error = %v", size, before, err)
			}
			continue
		}
		if n > size {
			t.Fatalf("Write(%d) = %d, more than requested", size, n)
		}
		if sess.Position() != before+int64(n) {
			t.Fatalf("cursor %d, want %d", sess.Position(), before+int64(n))
		}
	}
}

func TestBoundaryScenario(t *testing.T) {
	st := NewStorage()
	sess := newTestSession(t, 0)

	if pos, err := Seek(sess, 512, SeekStart); err != nil || pos != 512 {
		t.Fatalf("Seek(512) = %d, %v", pos, err)
	}
	if _, err := Read(sess, st, make([]byte, 1)); !errors.Is(err, ErrEndOfStorage) {
		t.Errorf("Read at end error = %v, want ErrEndOfStorage", err)
	}
	if _, err := Write(sess, st, []byte{1}); !errors.Is(err, ErrStorageFull) {
		t.Errorf("Write at end error = %v, want ErrStorageFull", err)
	}
	for _, off := range []int64{513, -1} {
		if _, err := Seek(sess, off, SeekStart); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Seek(%d) error = %v, want ErrInvalidArgument", off, err)
		}
		if sess.Position() != 512 {
			t.Errorf("cursor = %d after Seek(%d), want 512", sess.Position(), off)
		}
	}
}
