package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/yndnr/pcd-go/internal/core/domain"
	"github.com/yndnr/pcd-go/internal/core/service"
	"github.com/yndnr/pcd-go/internal/telemetry/logger"
)

// Device is the device host served over HTTP.
type Device interface {
	Open(ctx context.Context) (*domain.Session, error)
	Close(ctx context.Context, id string) error
	Seek(ctx context.Context, id string, offset int64, whence domain.Whence) (int64, error)
	Read(ctx context.Context, id string, n int) ([]byte, int64, error)
	Write(ctx context.Context, id string, src []byte) (int, int64, error)
	Tell(ctx context.Context, id string) (int64, error)
	Sessions(ctx context.Context) []service.SessionInfo
	Stat(ctx context.Context) service.DeviceStat
	Registered() bool
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	dev    Device
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a new Handler serving dev.
func New(dev Device, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		dev:    dev,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Routes lists the patterns the handler serves.
func Routes() []string {
	return []string{
		"GET /health",
		"GET /ready",
		"GET /v1/device",
		"GET /v1/sessions",
		"POST /v1/sessions",
		"GET /v1/sessions/{id}",
		"POST /v1/sessions/{id}/read",
		"POST /v1/sessions/{id}/write",
		"POST /v1/sessions/{id}/seek",
		"POST /v1/sessions/{id}/close",
	}
}

func (h *Handler) registerRoutes() {
	// Health endpoints
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("GET /v1/device", h.handleDevice)

	// Session endpoints
	h.mux.HandleFunc("GET /v1/sessions", h.handleListSessions)
	h.mux.HandleFunc("POST /v1/sessions", h.handleOpenSession)
	h.mux.HandleFunc("GET /v1/sessions/{id}", h.handleGetSession)
	h.mux.HandleFunc("POST /v1/sessions/{id}/read", h.handleRead)
	h.mux.HandleFunc("POST /v1/sessions/{id}/write", h.handleWrite)
	h.mux.HandleFunc("POST /v1/sessions/{id}/seek", h.handleSeek)
	h.mux.HandleFunc("POST /v1/sessions/{id}/close", h.handleCloseSession)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := getRequestID(r)
	response := NewErrorResponse(requestID, code, message, details)
	response.Errno = domain.Errno(domain.NewDomainError(code, message))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// getRequestID returns the request ID set by the RequestID middleware.
func getRequestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

// handleServiceError converts device errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsDomainError(err, "") {
		code := domain.GetErrorCode(err)
		h.writeError(w, r, errorCodeToHTTPStatus(code), code, err.Error(), nil)
		return
	}

	logger.L(r.Context()).Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, "internal server error", nil)
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes. The first
// three digits of the numeric suffix carry the status.
func errorCodeToHTTPStatus(code string) int {
	i := strings.LastIndexByte(code, '-')
	if i < 0 || len(code)-i-1 != 4 {
		return http.StatusInternalServerError
	}
	status, err := strconv.Atoi(code[i+1 : i+4])
	if err != nil || http.StatusText(status) == "" {
		return http.StatusInternalServerError
	}
	return status
}
