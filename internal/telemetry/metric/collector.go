// Package metric provides Prometheus metrics for the pcd device.
package metric

import "github.com/prometheus/client_golang/prometheus"

// DeviceSource exposes device state read at scrape time.
type DeviceSource interface {
	Capacity() int64
	OpenSessions() int
}

// Collector reports device state on every scrape.
type Collector struct {
	src          DeviceSource
	capacityDesc *prometheus.Desc
	sessionsDesc *prometheus.Desc
}

// NewCollector creates a collector reading from src.
func NewCollector(src DeviceSource) *Collector {
	return &Collector{
		src: src,
		capacityDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "capacity_bytes"),
			"Fixed capacity of the device storage.", nil, nil),
		sessionsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session_table", "entries"),
			"Entries in the open-session table.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.capacityDesc
	ch <- c.sessionsDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.capacityDesc, prometheus.GaugeValue, float64(c.src.Capacity()))
	ch <- prometheus.MustNewConstMetric(c.sessionsDesc, prometheus.GaugeValue, float64(c.src.OpenSessions()))
}
