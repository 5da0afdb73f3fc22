package localserver

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yndnr/pcd-go/internal/core/service"
	"github.com/yndnr/pcd-go/internal/infra/buildinfo"
	"github.com/yndnr/pcd-go/internal/telemetry/logger"
)

// Device is the device state the management commands report on.
type Device interface {
	Stat(ctx context.Context) service.DeviceStat
	Sessions(ctx context.Context) []service.SessionInfo
	Digest() (uint64, bool)
	Snapshot() ([]byte, bool)
}

// Handler handles local management commands.
type Handler struct {
	dev       Device
	startedAt time.Time
}

// NewHandler creates a new Handler.
func NewHandler(dev Device) *Handler {
	return &Handler{dev: dev, startedAt: time.Now()}
}

var commands = []string{"status", "sessions", "digest", "dump", "loglevel [level]", "help"}

// Execute executes a local management command and writes its reply,
// terminated by an OK or ERR line.
func (h *Handler) Execute(ctx context.Context, w io.Writer, cmd string, args []string) error {
	var err error
	switch strings.ToLower(cmd) {
	case "status":
		err = h.handleStatus(ctx, w)
	case "sessions":
		err = h.handleSessions(ctx, w)
	case "digest":
		err = h.handleDigest(w)
	case "dump":
		err = h.handleDump(w)
	case "loglevel":
		err = h.handleLogLevel(w, args)
	case "help":
		for _, c := range commands {
			fmt.Fprintln(w, c)
		}
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		_, werr := fmt.Fprintf(w, "ERR %s\n", err)
		return werr
	}
	_, werr := io.WriteString(w, "OK\n")
	return werr
}

func (h *Handler) handleStatus(ctx context.Context, w io.Writer) error {
	st := h.dev.Stat(ctx)
	c := st.Counters
	fmt.Fprintf(w, "version: %s\n", buildinfo.String())
	fmt.Fprintf(w, "uptime: %s\n", time.Since(h.startedAt).Truncate(time.Second))
	fmt.Fprintf(w, "device: %s (%s) %s\n", st.Device.Name, st.Device.Class, st.Device.Number)
	fmt.Fprintf(w, "capacity: %d\n", st.Device.Capacity)
	fmt.Fprintf(w, "serialized: %t\n", st.Serialized)
	fmt.Fprintf(w, "open_sessions: %d\n", st.OpenSessions)
	fmt.Fprintf(w, "operations: opens=%d closes=%d seeks=%d reads=%d writes=%d failures=%d\n",
		c.Opens, c.Closes, c.Seeks, c.Reads, c.Writes, c.Failures)
	_, err := fmt.Fprintf(w, "bytes: read=%d written=%d\n", c.BytesRead, c.BytesWritten)
	return err
}

func (h *Handler) handleSessions(ctx context.Context, w io.Writer) error {
	for _, s := range h.dev.Sessions(ctx) {
		if _, err := fmt.Fprintf(w, "%s %d\n", s.ID, s.Position); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) handleDigest(w io.Writer) error {
	d, ok := h.dev.Digest()
	if !ok {
		return fmt.Errorf("device not registered")
	}
	_, err := fmt.Fprintf(w, "%016x\n", d)
	return err
}

func (h *Handler) handleDump(w io.Writer) error {
	data, ok := h.dev.Snapshot()
	if !ok {
		return fmt.Errorf("device not registered")
	}
	_, err := io.WriteString(w, hex.Dump(data))
	return err
}

func (h *Handler) handleLogLevel(w io.Writer, args []string) error {
	switch len(args) {
	case 0:
	case 1:
		if err := logger.SetLevel(args[0]); err != nil {
			return fmt.Errorf("invalid log level %q", args[0])
		}
	default:
		return fmt.Errorf("usage: loglevel [debug|info|warn|error]")
	}
	_, err := fmt.Fprintln(w, logger.GetLevel())
	return err
}
