package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/pcd-go/internal/core/domain"
	"github.com/yndnr/pcd-go/internal/telemetry/logger"
	"github.com/yndnr/pcd-go/internal/telemetry/metric"
	"github.com/yndnr/pcd-go/pkg/cmap"
)

// Operation names used in logs and metrics.
const (
	OpOpen  = "open"
	OpClose = "close"
	OpSeek  = "seek"
	OpRead  = "read"
	OpWrite = "write"
)

// Config describes the device node to register.
type Config struct {
	Name       string // Node name, e.g. "pcd"
	Class      string // Class the node is created in
	Major      uint32 // 0 requests a dynamic major
	MinorBase  uint32
	MinorCount uint32
	// Serialize guards every access call with one device-wide mutex.
	// With it off, concurrent calls on sessions sharing the storage race.
	Serialize bool
}

// DefaultConfig returns the registration used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Name:       "pcd",
		Class:      "pcd_class",
		MinorCount: 7,
		Serialize:  true,
	}
}

// Option configures a DeviceService.
type Option func(*DeviceService)

// WithLogger sets the logger used for device events.
func WithLogger(l logger.Logger) Option {
	return func(s *DeviceService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics sets the registry operations are recorded in.
func WithMetrics(r *metric.Registry) Option {
	return func(s *DeviceService) {
		s.metrics = r
	}
}

// SessionInfo is a read-only view of an open session.
type SessionInfo struct {
	ID       string `json:"id"`
	Position int64  `json:"position"`
	OpenedAt int64  `json:"opened_at"`
}

// OpCounters counts completed operations since registration.
type OpCounters struct {
	Opens        uint64 `json:"opens"`
	Closes       uint64 `json:"closes"`
	Seeks        uint64 `json:"seeks"`
	Reads        uint64 `json:"reads"`
	Writes       uint64 `json:"writes"`
	Failures     uint64 `json:"failures"`
	BytesRead    uint64 `json:"bytes_read"`
	BytesWritten uint64 `json:"bytes_written"`
}

// DeviceStat describes the device and its current state.
type DeviceStat struct {
	Device       domain.DeviceInfo `json:"device"`
	OpenSessions int               `json:"open_sessions"`
	Digest       string            `json:"digest"`
	Serialized   bool              `json:"serialized"`
	Counters     OpCounters        `json:"counters"`
	RegisteredAt int64             `json:"registered_at"`
}

// DeviceService hosts the device: one Storage and the sessions opened on it.
type DeviceService struct {
	cfg     Config
	info    domain.DeviceInfo
	log     logger.Logger
	metrics *metric.Registry

	mu       sync.Mutex
	storage  atomic.Pointer[domain.Storage]
	sessions *cmap.Map[*domain.Session]
	closed   atomic.Bool

	registeredAt time.Time

	opens, closes, seeks, reads, writes, failures atomic.Uint64
	bytesRead, bytesWritten                       atomic.Uint64
}

// NewDeviceService registers the device node and allocates its storage.
//
// Registration reserves the device number, then the class, then the node.
// If a step fails, the steps already done are undone in reverse order.
func NewDeviceService(cfg Config, opts ...Option) (*DeviceService, error) {
	s := &DeviceService{
		cfg:      cfg,
		log:      logger.Default(),
		sessions: cmap.New[*domain.Session](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("device", cfg.Name)

	num, err := processNumbers.allocate(cfg.Name, cfg.Major, cfg.MinorBase, cfg.MinorCount)
	if err != nil {
		s.log.Error("failed to allocate device number", "error", err)
		return nil, err
	}

	if cfg.Class == "" {
		processNumbers.release(num)
		s.log.Error("failed to create device class", "error", "empty class name")
		return nil, domain.ErrInvalidArgument.WithDetails("device class is required")
	}

	if cfg.Name == "" {
		processNumbers.release(num)
		s.log.Error("failed to create device node", "class", cfg.Class, "error", "empty node name")
		return nil, domain.ErrInvalidArgument.WithDetails("device name is required")
	}

	s.info = domain.DeviceInfo{
		Name:       cfg.Name,
		Class:      cfg.Class,
		Number:     num,
		MinorCount: cfg.MinorCount,
		Capacity:   domain.Capacity,
	}
	s.storage.Store(domain.NewStorage())
	s.registeredAt = time.Now()

	s.log.Info("device registered",
		"number", num.String(),
		"class", cfg.Class,
		"minor_count", cfg.MinorCount,
		"capacity", domain.Capacity,
		"serialize", cfg.Serialize,
	)
	return s, nil
}

// Info returns the registered device description.
func (s *DeviceService) Info() domain.DeviceInfo {
	return s.info
}

// Capacity returns the storage size.
func (s *DeviceService) Capacity() int64 {
	return domain.Capacity
}

// OpenSessions returns the number of open sessions.
func (s *DeviceService) OpenSessions() int {
	return s.sessions.Count()
}

// Registered reports whether the device is still registered.
func (s *DeviceService) Registered() bool {
	return !s.closed.Load()
}

var _ metric.DeviceSource = (*DeviceService)(nil)

// Open creates a session positioned at 0.
func (s *DeviceService) Open(ctx context.Context) (*domain.Session, error) {
	if s.closed.Load() {
		return nil, domain.ErrDeviceClosed
	}

	sess, err := domain.NewSession()
	if err != nil {
		s.record(OpOpen, err)
		return nil, err
	}
	s.sessions.Set(sess.ID, sess)

	s.opens.Add(1)
	s.record(OpOpen, nil)
	if s.metrics != nil {
		s.metrics.SessionOpened()
	}
	s.log.WithContext(logger.WithSessionID(ctx, sess.ID)).Info("device opened", "device", s.cfg.Name)
	return sess, nil
}

// Close destroys the session named by id.
func (s *DeviceService) Close(ctx context.Context, id string) error {
	if s.closed.Load() {
		return domain.ErrDeviceClosed
	}

	if _, ok := s.sessions.Pop(id); !ok {
		err := domain.ErrSessionNotFound.WithDetails(id)
		s.record(OpClose, err)
		return err
	}

	s.closes.Add(1)
	s.record(OpClose, nil)
	if s.metrics != nil {
		s.metrics.SessionClosed()
	}
	s.log.WithContext(logger.WithSessionID(ctx, id)).Info("device closed", "device", s.cfg.Name)
	return nil
}

// Seek moves the cursor of session id and returns the new position.
func (s *DeviceService) Seek(ctx context.Context, id string, offset int64, whence domain.Whence) (int64, error) {
	sess, err := s.lookup(id)
	if err != nil {
		s.record(OpSeek, err)
		return 0, err
	}

	unlock := s.guard()
	before := sess.Position()
	pos, err := domain.Seek(sess, offset, whence)
	unlock()

	log := s.log.WithContext(logger.WithSessionID(ctx, id))
	if err != nil {
		s.record(OpSeek, err)
		log.Warn("seek rejected", "offset", offset, "whence", whence.String(), "position", before, "error", err)
		return pos, err
	}

	s.seeks.Add(1)
	s.record(OpSeek, nil)
	log.Debug("seek", "offset", offset, "whence", whence.String(), "from", before, "to", pos)
	return pos, nil
}

// Read reads up to n bytes at the cursor of session id. It returns the
// bytes and the cursor as left by this call.
func (s *DeviceService) Read(ctx context.Context, id string, n int) ([]byte, int64, error) {
	if n < 0 {
		err := domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("negative read length %d", n))
		s.record(OpRead, err)
		return nil, 0, err
	}

	sess, err := s.lookup(id)
	if err != nil {
		s.record(OpRead, err)
		return nil, 0, err
	}

	unlock := s.guard()
	st := s.storage.Load()
	if st == nil {
		unlock()
		return nil, 0, domain.ErrDeviceClosed
	}
	size := int64(n)
	if r := sess.Remaining(); size > r {
		size = r
	}
	buf := make([]byte, size)
	got, err := domain.Read(sess, st, buf)
	pos := sess.Position()
	unlock()

	if err := s.finishTransfer(ctx, OpRead, id, n, got, pos, err); err != nil {
		return nil, pos, err
	}
	return buf[:got], pos, nil
}

// ReadInto reads into dst at the cursor of session id.
func (s *DeviceService) ReadInto(ctx context.Context, id string, dst []byte) (int, error) {
	sess, err := s.lookup(id)
	if err != nil {
		s.record(OpRead, err)
		return 0, err
	}

	unlock := s.guard()
	st := s.storage.Load()
	if st == nil {
		unlock()
		return 0, domain.ErrDeviceClosed
	}
	got, err := domain.Read(sess, st, dst)
	pos := sess.Position()
	unlock()

	return got, s.finishTransfer(ctx, OpRead, id, len(dst), got, pos, err)
}

// Write writes src at the cursor of session id. It returns the count
// written and the cursor as left by this call.
func (s *DeviceService) Write(ctx context.Context, id string, src []byte) (int, int64, error) {
	sess, err := s.lookup(id)
	if err != nil {
		s.record(OpWrite, err)
		return 0, 0, err
	}

	unlock := s.guard()
	st := s.storage.Load()
	if st == nil {
		unlock()
		return 0, 0, domain.ErrDeviceClosed
	}
	got, err := domain.Write(sess, st, src)
	pos := sess.Position()
	unlock()

	return got, pos, s.finishTransfer(ctx, OpWrite, id, len(src), got, pos, err)
}

// Tell returns the cursor of session id.
func (s *DeviceService) Tell(ctx context.Context, id string) (int64, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return 0, err
	}

	unlock := s.guard()
	defer unlock()
	return sess.Position(), nil
}

// Sessions lists open sessions, oldest first.
func (s *DeviceService) Sessions(ctx context.Context) []SessionInfo {
	unlock := s.guard()
	out := make([]SessionInfo, 0, s.sessions.Count())
	s.sessions.Range(func(id string, sess *domain.Session) bool {
		out = append(out, SessionInfo{ID: id, Position: sess.Position(), OpenedAt: sess.OpenedAt})
		return true
	})
	unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenedAt != out[j].OpenedAt {
			return out[i].OpenedAt < out[j].OpenedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Stat returns the device description and current state.
func (s *DeviceService) Stat(ctx context.Context) DeviceStat {
	st := DeviceStat{
		Device:       s.info,
		OpenSessions: s.sessions.Count(),
		Serialized:   s.cfg.Serialize,
		RegisteredAt: s.registeredAt.UnixMilli(),
		Counters: OpCounters{
			Opens:        s.opens.Load(),
			Closes:       s.closes.Load(),
			Seeks:        s.seeks.Load(),
			Reads:        s.reads.Load(),
			Writes:       s.writes.Load(),
			Failures:     s.failures.Load(),
			BytesRead:    s.bytesRead.Load(),
			BytesWritten: s.bytesWritten.Load(),
		},
	}
	if d, ok := s.Digest(); ok {
		st.Digest = fmt.Sprintf("%016x", d)
	}
	return st
}

// Digest returns the murmur3 hash of the storage contents. It reports
// false once the device is shut down.
func (s *DeviceService) Digest() (uint64, bool) {
	if s.closed.Load() {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.storage.Load()
	if st == nil {
		return 0, false
	}
	return st.Digest(), true
}

// Snapshot returns a copy of the storage contents, or false once the
// device is torn down.
func (s *DeviceService) Snapshot() ([]byte, bool) {
	if s.closed.Load() {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.storage.Load()
	if st == nil {
		return nil, false
	}
	return st.Snapshot(), true
}

// Shutdown closes every open session and releases the storage and the
// device number. Later calls fail with ErrDeviceClosed.
func (s *DeviceService) Shutdown(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	dropped := s.sessions.Drain()
	s.storage.Store(nil)
	s.mu.Unlock()

	if s.metrics != nil {
		for range dropped {
			s.metrics.SessionClosed()
		}
	}
	processNumbers.release(s.info.Number)

	s.log.Info("device unregistered",
		"number", s.info.Number.String(),
		"sessions_closed", len(dropped),
	)
	return nil
}

func (s *DeviceService) lookup(id string) (*domain.Session, error) {
	if s.closed.Load() {
		return nil, domain.ErrDeviceClosed
	}
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound.WithDetails(id)
	}
	return sess, nil
}

// guard takes the device mutex when serialization is on and returns the
// matching release.
func (s *DeviceService) guard() func() {
	if !s.cfg.Serialize {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *DeviceService) finishTransfer(ctx context.Context, op, id string, requested, got int, pos int64, err error) error {
	log := s.log.WithContext(logger.WithSessionID(ctx, id))
	s.record(op, err)
	if err != nil {
		log.Warn(op+" failed", "requested", requested, "position", pos, "errno", domain.Errno(err), "error", err)
		return err
	}

	switch op {
	case OpRead:
		s.reads.Add(1)
		s.bytesRead.Add(uint64(got))
		if s.metrics != nil {
			s.metrics.AddBytes("read", got)
		}
	case OpWrite:
		s.writes.Add(1)
		s.bytesWritten.Add(uint64(got))
		if s.metrics != nil {
			s.metrics.AddBytes("write", got)
		}
	}
	log.Debug(op, "requested", requested, "transferred", got, "position", pos)
	return nil
}

func (s *DeviceService) record(op string, err error) {
	result := "ok"
	if err != nil {
		s.failures.Add(1)
		result = domain.Errno(err)
	}
	if s.metrics != nil {
		s.metrics.RecordOperation(op, result)
	}
}
