// Package redisserver exposes the pcd device over the Redis protocol.
package redisserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/pcd-go/internal/telemetry/metric"
)

// Config holds the Redis server configuration.
type Config struct {
	// Enabled enables the Redis port (default: false).
	Enabled bool
	// Address is the listen address.
	Address string
	// Password enables AUTH when non-empty.
	Password string
	// ReadTimeout is the timeout for reading a command once its first
	// byte arrived (default: 30s). Helps prevent slowloris attacks.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing a response (default: 30s).
	WriteTimeout time.Duration
	// IdleTimeout is the timeout for idle connections (default: 5m).
	IdleTimeout time.Duration
	// RateLimit is the number of commands per second per IP (default: 1000).
	// Set to 0 to disable rate limiting.
	RateLimit float64
	// RateBurst is the bucket size of the per-IP limiter (default: 100).
	RateBurst int
	// MaxConnections bounds concurrent clients. 0 means unlimited.
	MaxConnections int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      false,
		Address:      "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
		RateLimit:    1000,
		RateBurst:    100,
	}
}

// Server represents the Redis protocol server.
type Server struct {
	cfg     *Config
	handler *CommandHandler
	logger  *slog.Logger
	limiter *rateLimiter
	limits  Limits
	slots   chan struct{}

	mu      sync.Mutex
	ln      net.Listener
	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records per-command metrics in r.
func WithMetrics(r *metric.Registry) Option {
	return func(s *Server) {
		s.handler.metrics = r
	}
}

// ConnState holds the state of a client connection.
type ConnState struct {
	Authenticated bool
}

// Conn represents a single Redis client connection. The device sessions
// it opened are tracked so they can be released when it closes.
type Conn struct {
	netConn net.Conn
	r       *Reader
	w       *Writer

	stateMu  sync.RWMutex
	state    ConnState
	sessions map[string]struct{}

	closed atomic.Bool
}

func newConn(c net.Conn, lim Limits) *Conn {
	return &Conn{
		netConn:  c,
		r:        NewReader(c, lim),
		w:        NewWriter(c),
		sessions: make(map[string]struct{}),
	}
}

func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

func (c *Conn) GetState() ConnState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Conn) SetState(st ConnState) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.state = st
}

// own records that the connection opened session id.
func (c *Conn) own(id string) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.sessions[id] = struct{}{}
}

// owns reports whether the connection opened session id.
func (c *Conn) owns(id string) bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	_, ok := c.sessions[id]
	return ok
}

// disown forgets session id.
func (c *Conn) disown(id string) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	delete(c.sessions, id)
}

// ownedSessions returns the sessions still open on the connection.
func (c *Conn) ownedSessions() []string {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	out := make([]string, 0, len(c.sessions))
	for id := range c.sessions {
		out = append(out, id)
	}
	return out
}

// New creates a new Redis protocol server in front of dev.
func New(cfg *Config, dev Device, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		cfg:     cfg,
		logger:  slog.Default(),
		limiter: newRateLimiter(cfg.RateLimit, cfg.RateBurst),
		limits:  DefaultLimits(),
	}
	s.handler = NewCommandHandler(dev, cfg.Password, s.limiter)
	if cfg.MaxConnections > 0 {
		s.slots = make(chan struct{}, cfg.MaxConnections)
	}

	for _, opt := range opts {
		opt(s)
	}
	s.handler.logger = s.logger

	return s
}

// Start starts the Redis server. It returns once the listener is bound.
func (s *Server) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("redis server disabled")
		return nil
	}

	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln in the background.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.ln = ln
	s.cancel = cancel
	s.mu.Unlock()
	s.running.Store(true)

	s.logger.Info("redis server listening", "address", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
			s.logger.Error("redis server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown gracefully shuts down the server. Open connections are closed,
// which releases their sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error

	// Close listener to break the accept loop, then drop live connections.
	s.mu.Lock()
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	// Wait for goroutines to finish
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		if !s.acquire() {
			s.logger.Warn("connection limit reached", "remote", c.RemoteAddr().String())
			w := NewWriter(c)
			w.Error("ERR max number of clients reached")
			_ = w.Flush()
			_ = c.Close()
			continue
		}

		conn := newConn(c, s.limits)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.release()
			// Close the connection as soon as the server stops.
			stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
			defer stop()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) acquire() bool {
	if s.slots == nil {
		return true
	}
	select {
	case s.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Server) release() {
	if s.slots != nil {
		<-s.slots
	}
}

func (s *Server) serveConn(ctx context.Context, c *Conn) {
	defer c.Close()
	defer s.handler.releaseSessions(ctx, c)
	defer s.limiter.prune()

	// Helper to set deadline with fallback to defaults
	readTimeout := s.cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := s.cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 30 * time.Second
	}
	idleTimeout := s.cfg.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 5 * time.Minute
	}

	s.logger.Debug("client connected", "remote", c.RemoteAddr())

	for {
		// First byte: allow idle timeout (connection can stay idle between commands).
		if err := c.netConn.SetReadDeadline(time.Now().Add(idleTimeout)); err != nil {
			return
		}
		if err := c.r.Wait(); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				s.logger.Debug("connection timed out", "remote", c.RemoteAddr())
				return
			}
			s.logger.Debug("connection read error", "remote", c.RemoteAddr(), "error", err)
			return
		}

		// After first byte: tighten to per-command read timeout (slowloris protection).
		if err := c.netConn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return
		}

		args, err := c.r.ReadCommand()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				s.logger.Debug("connection timed out", "remote", c.RemoteAddr())
				return
			}
			// Check for limit exceeded (potential attack)
			if errors.Is(err, ErrLimitExceeded) {
				s.logger.Warn("protocol limit exceeded", "remote", c.RemoteAddr(), "error", err)
				_ = c.netConn.SetWriteDeadline(time.Now().Add(writeTimeout))
				c.w.Error("ERR protocol limit exceeded")
				_ = c.w.Flush()
				return // Close connection on limit violation
			}
			_ = c.netConn.SetWriteDeadline(time.Now().Add(writeTimeout))
			c.w.Error("ERR protocol error: " + err.Error())
			_ = c.w.Flush()
			return
		}

		if len(args) == 0 {
			continue
		}

		s.handler.Handle(ctx, c, args)

		// Set write deadline before flushing response
		if err := c.netConn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return
		}
		if err := c.w.Flush(); err != nil {
			return
		}
		if c.closed.Load() {
			return
		}
	}
}
