package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/pcd-go/internal/server/httpserver/handler"
	"github.com/yndnr/pcd-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Device is the device host the API serves.
	Device handler.Device

	// Metrics records request metrics and serves /metrics. Optional.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger *slog.Logger

	// MaxBodyBytes caps request bodies (0 = no cap).
	MaxBodyBytes int64

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = no CORS headers).
	CORSAllowedOrigins []string
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	h := handler.New(cfg.Device, log)

	mux := http.NewServeMux()
	for _, pattern := range handler.Routes() {
		mux.Handle(pattern, h)
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	// Order: RequestID -> Recover -> AccessLog -> CORS -> LimitBody -> Metrics -> mux
	middlewares := []Middleware{
		RequestID(),
		Recover(log),
		AccessLog(log),
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		middlewares = append(middlewares, CORS(cfg.CORSAllowedOrigins))
	}
	middlewares = append(middlewares,
		LimitBody(cfg.MaxBodyBytes),
		Metrics(cfg.Metrics),
	)

	return Chain(mux, middlewares...)
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		MaxBodyBytes: 64 << 10,
	}
}
