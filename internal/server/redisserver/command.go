// Package redisserver exposes the pcd device over the Redis protocol.
package redisserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/pcd-go/internal/core/domain"
	"github.com/yndnr/pcd-go/internal/core/service"
	"github.com/yndnr/pcd-go/internal/telemetry/logger"
	"github.com/yndnr/pcd-go/internal/telemetry/metric"
)

// Device is the device host the commands operate on.
type Device interface {
	Open(ctx context.Context) (*domain.Session, error)
	Close(ctx context.Context, id string) error
	Seek(ctx context.Context, id string, offset int64, whence domain.Whence) (int64, error)
	Read(ctx context.Context, id string, n int) ([]byte, int64, error)
	Write(ctx context.Context, id string, src []byte) (int, int64, error)
	Tell(ctx context.Context, id string) (int64, error)
	Stat(ctx context.Context) service.DeviceStat
}

// formatRedisError converts an error to a Redis error string.
// For DomainErrors, returns "ERR <code> <message>[: <details>]".
// For other errors, returns "ERR <message>".
func formatRedisError(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		msg := "ERR " + de.Code + " " + de.Message
		if de.Details != "" {
			msg += ": " + de.Details
		}
		return msg
	}
	return "ERR " + err.Error()
}

func wrongArgs(cmd string) string {
	return "ERR wrong number of arguments for '" + strings.ToLower(cmd) + "' command"
}

// CommandHandler handles Redis commands.
type CommandHandler struct {
	dev         Device
	password    string
	logger      *slog.Logger
	metrics     *metric.Registry
	rateLimiter *rateLimiter
}

// NewCommandHandler creates a new CommandHandler. An empty password
// disables AUTH; a nil limiter disables rate limiting.
func NewCommandHandler(dev Device, password string, rl *rateLimiter) *CommandHandler {
	return &CommandHandler{
		dev:         dev,
		password:    password,
		logger:      slog.Default(),
		rateLimiter: rl,
	}
}

// Handle handles a Redis command (RESP array of bulk strings).
func (h *CommandHandler) Handle(ctx context.Context, conn *Conn, args [][]byte) {
	if len(args) == 0 {
		conn.w.Error("ERR no command")
		return
	}

	cmdName := commandName(args[0])
	start := time.Now()
	ok := h.dispatch(ctx, conn, cmdName, args)

	if h.metrics != nil {
		status := "ok"
		if !ok {
			status = "error"
		}
		h.metrics.RecordRequest("resp", cmdName, status)
		h.metrics.ObserveRequestDuration("resp", cmdName, time.Since(start).Seconds())
	}
}

// dispatch runs one command and reports whether it succeeded.
func (h *CommandHandler) dispatch(ctx context.Context, conn *Conn, cmdName string, args [][]byte) bool {
	// Connection-level commands (do not require authentication).
	switch cmdName {
	case "PING":
		return h.handlePing(conn, args)
	case "AUTH":
		return h.handleAuth(conn, args)
	case "QUIT":
		return h.handleQuit(conn, args)
	}

	if h.password != "" && !conn.GetState().Authenticated {
		conn.w.Error("NOAUTH Authentication required.")
		return false
	}

	// Rate limiting check (per-IP).
	if !h.rateLimiter.allow(hostOf(conn.RemoteAddr())) {
		conn.w.Error(formatRedisError(domain.ErrRateLimited))
		return false
	}

	switch cmdName {
	case "OPEN":
		return h.handleOpen(ctx, conn, args)
	case "CLOSE":
		return h.handleClose(ctx, conn, args)
	case "READ":
		return h.handleRead(ctx, conn, args)
	case "WRITE":
		return h.handleWrite(ctx, conn, args)
	case "SEEK":
		return h.handleSeek(ctx, conn, args)
	case "TELL":
		return h.handleTell(ctx, conn, args)
	case "SESSIONS":
		return h.handleSessions(conn, args)
	case "INFO":
		return h.handleInfo(ctx, conn, args)
	default:
		conn.w.Error("ERR unknown command '"+cmdName+"'")
		return false
	}
}

func (h *CommandHandler) fail(conn *Conn, err error) bool {
	conn.w.Error(formatRedisError(err))
	return false
}

// session resolves the handle argument. Handles opened by other
// connections are treated as unknown.
func (h *CommandHandler) session(conn *Conn, arg []byte) (string, error) {
	id := string(arg)
	if !conn.owns(id) {
		return "", domain.ErrSessionNotFound.WithDetails(id)
	}
	return id, nil
}

func (h *CommandHandler) handlePing(conn *Conn, args [][]byte) bool {
	if len(args) > 1 {
		conn.w.Bulk(args[1])
		return true
	}
	conn.w.Status("PONG")
	return true
}

// AUTH <password>
func (h *CommandHandler) handleAuth(conn *Conn, args [][]byte) bool {
	if len(args) != 2 {
		conn.w.Error(wrongArgs("AUTH"))
		return false
	}
	if h.password == "" {
		conn.w.Error("ERR AUTH called without any password configured")
		return false
	}
	if subtle.ConstantTimeCompare(args[1], []byte(h.password)) != 1 {
		h.logger.Warn("redis auth failed", "remote", conn.RemoteAddr())
		conn.w.Error("WRONGPASS invalid password")
		return false
	}

	conn.SetState(ConnState{Authenticated: true})
	conn.w.Status("OK")
	return true
}

func (h *CommandHandler) handleQuit(conn *Conn, _ [][]byte) bool {
	conn.w.Status("OK")
	_ = conn.w.Flush()
	_ = conn.Close()
	return true
}

// OPEN
func (h *CommandHandler) handleOpen(ctx context.Context, conn *Conn, args [][]byte) bool {
	if len(args) != 1 {
		conn.w.Error(wrongArgs("OPEN"))
		return false
	}

	sess, err := h.dev.Open(ctx)
	if err != nil {
		return h.fail(conn, err)
	}
	conn.own(sess.ID)
	conn.w.BulkString(sess.ID)
	return true
}

// CLOSE <id>
func (h *CommandHandler) handleClose(ctx context.Context, conn *Conn, args [][]byte) bool {
	if len(args) != 2 {
		conn.w.Error(wrongArgs("CLOSE"))
		return false
	}
	id, err := h.session(conn, args[1])
	if err != nil {
		return h.fail(conn, err)
	}

	// The handle is gone for this connection whatever Close reports.
	conn.disown(id)
	if err := h.dev.Close(ctx, id); err != nil {
		return h.fail(conn, err)
	}
	conn.w.Status("OK")
	return true
}

// READ <id> <n>
func (h *CommandHandler) handleRead(ctx context.Context, conn *Conn, args [][]byte) bool {
	if len(args) != 3 {
		conn.w.Error(wrongArgs("READ"))
		return false
	}
	id, err := h.session(conn, args[1])
	if err != nil {
		return h.fail(conn, err)
	}
	n, err := strconv.Atoi(string(args[2]))
	if err != nil {
		return h.fail(conn, domain.ErrBadRequest.WithDetails("length is not an integer"))
	}

	data, _, err := h.dev.Read(logger.WithSessionID(ctx, id), id, n)
	if err != nil {
		return h.fail(conn, err)
	}
	if data == nil {
		data = []byte{}
	}
	conn.w.Bulk(data)
	return true
}

// WRITE <id> <data>
func (h *CommandHandler) handleWrite(ctx context.Context, conn *Conn, args [][]byte) bool {
	if len(args) != 3 {
		conn.w.Error(wrongArgs("WRITE"))
		return false
	}
	id, err := h.session(conn, args[1])
	if err != nil {
		return h.fail(conn, err)
	}
	// A null bulk carries no readable source buffer.
	if args[2] == nil {
		return h.fail(conn, domain.ErrCopyFault.WithDetails("null payload"))
	}

	n, _, err := h.dev.Write(logger.WithSessionID(ctx, id), id, args[2])
	if err != nil {
		return h.fail(conn, err)
	}
	conn.w.Int(int64(n))
	return true
}

// SEEK <id> <offset> <whence>
func (h *CommandHandler) handleSeek(ctx context.Context, conn *Conn, args [][]byte) bool {
	if len(args) != 4 {
		conn.w.Error(wrongArgs("SEEK"))
		return false
	}
	id, err := h.session(conn, args[1])
	if err != nil {
		return h.fail(conn, err)
	}
	offset, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return h.fail(conn, domain.ErrInvalidArgument.WithDetails("offset is not a 64-bit integer"))
	}
	whence, err := domain.ParseWhence(string(args[3]))
	if err != nil {
		return h.fail(conn, err)
	}

	pos, err := h.dev.Seek(logger.WithSessionID(ctx, id), id, offset, whence)
	if err != nil {
		return h.fail(conn, err)
	}
	conn.w.Int(pos)
	return true
}

// TELL <id>
func (h *CommandHandler) handleTell(ctx context.Context, conn *Conn, args [][]byte) bool {
	if len(args) != 2 {
		conn.w.Error(wrongArgs("TELL"))
		return false
	}
	id, err := h.session(conn, args[1])
	if err != nil {
		return h.fail(conn, err)
	}
	pos, err := h.dev.Tell(ctx, id)
	if err != nil {
		return h.fail(conn, err)
	}
	conn.w.Int(pos)
	return true
}

// SESSIONS [pattern]
//
// Lists the handles open on this connection.
func (h *CommandHandler) handleSessions(conn *Conn, args [][]byte) bool {
	pattern := "*"
	switch len(args) {
	case 1:
	case 2:
		pattern = string(args[1])
	default:
		conn.w.Error(wrongArgs("SESSIONS"))
		return false
	}

	owned := conn.ownedSessions()
	matched := make([]string, 0, len(owned))
	for _, id := range owned {
		if matchGlob(pattern, id) {
			matched = append(matched, id)
		}
	}
	slices.Sort(matched)
	conn.w.Strings(matched)
	return true
}

// INFO [section]
func (h *CommandHandler) handleInfo(ctx context.Context, conn *Conn, args [][]byte) bool {
	if len(args) > 2 {
		conn.w.Error(wrongArgs("INFO"))
		return false
	}
	var section string
	if len(args) == 2 {
		section = string(args[1])
	}
	conn.w.BulkString(formatInfo(h.dev.Stat(ctx), section))
	return true
}

// releaseSessions closes every session still open on conn.
func (h *CommandHandler) releaseSessions(ctx context.Context, conn *Conn) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range conn.ownedSessions() {
		conn.disown(id)
		if err := h.dev.Close(ctx, id); err != nil && !errors.Is(err, domain.ErrDeviceClosed) {
			h.logger.Warn("failed to release session", "session_id", id, "error", err)
			continue
		}
		h.logger.Debug("released session on disconnect", "session_id", id, "remote", conn.RemoteAddr())
	}
}

// infoSections lists the INFO sections in reply order.
var infoSections = []struct {
	name  string
	write func(b *strings.Builder, st service.DeviceStat)
}{
	{"device", func(b *strings.Builder, st service.DeviceStat) {
		b.WriteString("# Device\r\n")
		fmt.Fprintf(b, "name:%s\r\n", st.Device.Name)
		fmt.Fprintf(b, "class:%s\r\n", st.Device.Class)
		fmt.Fprintf(b, "number:%s\r\n", st.Device.Number)
		fmt.Fprintf(b, "minor_count:%d\r\n", st.Device.MinorCount)
		fmt.Fprintf(b, "capacity:%d\r\n", st.Device.Capacity)
		fmt.Fprintf(b, "serialized:%d\r\n", boolInt(st.Serialized))
		fmt.Fprintf(b, "digest:%s\r\n", st.Digest)
	}},
	{"sessions", func(b *strings.Builder, st service.DeviceStat) {
		b.WriteString("# Sessions\r\n")
		fmt.Fprintf(b, "open_sessions:%d\r\n", st.OpenSessions)
	}},
	{"stats", func(b *strings.Builder, st service.DeviceStat) {
		c := st.Counters
		b.WriteString("# Stats\r\n")
		fmt.Fprintf(b, "opens:%d\r\ncloses:%d\r\nseeks:%d\r\nreads:%d\r\nwrites:%d\r\n",
			c.Opens, c.Closes, c.Seeks, c.Reads, c.Writes)
		fmt.Fprintf(b, "failures:%d\r\nbytes_read:%d\r\nbytes_written:%d\r\n",
			c.Failures, c.BytesRead, c.BytesWritten)
	}},
}

// formatInfo renders the device stat in the INFO reply layout. An empty
// section, "all", "default" or "everything" selects every section; an
// unknown name yields an empty reply.
func formatInfo(st service.DeviceStat, section string) string {
	section = strings.ToLower(section)
	all := section == "" || section == "all" || section == "default" || section == "everything"

	var b strings.Builder
	for _, sec := range infoSections {
		if !all && sec.name != section {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\r\n")
		}
		sec.write(&b, st)
	}
	return b.String()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
