// Package metric provides Prometheus metrics for the pcd device.
package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pcd"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Session metrics
	SessionsOpen   prometheus.Gauge
	SessionsOpened prometheus.Counter
	SessionsClosed prometheus.Counter

	// Device access metrics
	Operations       *prometheus.CounterVec
	BytesTransferred *prometheus.CounterVec

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with all metrics registered, plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		SessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_open",
			Help:      "Number of currently open device sessions.",
		}),
		SessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_opened_total",
			Help:      "Total number of device opens.",
		}),
		SessionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_closed_total",
			Help:      "Total number of device closes.",
		}),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Device operations by operation and result.",
		}, []string{"op", "result"}),
		BytesTransferred: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_transferred_total",
			Help:      "Bytes moved between callers and device storage.",
		}, []string{"direction"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests handled by the device adapters.",
		}, []string{"protocol", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency by protocol and method.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"protocol", "method"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.SessionsOpen,
		r.SessionsOpened,
		r.SessionsClosed,
		r.Operations,
		r.BytesTransferred,
		r.RequestsTotal,
		r.RequestDuration,
	)

	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler returns the /metrics handler of the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns an HTTP handler exposing this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// MustRegister registers additional collectors.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}

// SessionOpened records a successful open.
func (r *Registry) SessionOpened() {
	r.SessionsOpened.Inc()
	r.SessionsOpen.Inc()
}

// SessionClosed records a close.
func (r *Registry) SessionClosed() {
	r.SessionsClosed.Inc()
	r.SessionsOpen.Dec()
}

// RecordOperation counts one device operation. result is "ok" or an errno name.
func (r *Registry) RecordOperation(op, result string) {
	r.Operations.WithLabelValues(op, result).Inc()
}

// AddBytes adds n transferred bytes in the given direction ("read" or "write").
func (r *Registry) AddBytes(direction string, n int) {
	if n > 0 {
		r.BytesTransferred.WithLabelValues(direction).Add(float64(n))
	}
}

// RecordRequest counts a request handled by an adapter.
func (r *Registry) RecordRequest(protocol, method, status string) {
	r.RequestsTotal.WithLabelValues(protocol, method, status).Inc()
}

// ObserveRequestDuration records request latency in seconds.
func (r *Registry) ObserveRequestDuration(protocol, method string, seconds float64) {
	r.RequestDuration.WithLabelValues(protocol, method).Observe(seconds)
}
