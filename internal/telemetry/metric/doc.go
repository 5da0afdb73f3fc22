// Package metric provides Prometheus metrics for the pcd device.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: registry, per-operation counters and HTTP handler
//   - collector.go: scrape-time collector reading device state
//
// Metrics include:
//
//   - Operation counters by op (open, close, read, write, seek) and result
//   - Bytes transferred by direction
//   - Open session gauge and storage capacity
//   - Request counters and latency histograms per protocol
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
