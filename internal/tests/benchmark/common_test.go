package benchmark

import (
	"context"
	"io"
	"runtime"
	"testing"

	"github.com/yndnr/pcd-go/internal/core/service"
	"github.com/yndnr/pcd-go/internal/telemetry/logger"
)

// TransferSizes are the per-call lengths benchmarked.
var TransferSizes = []int{1, 64, 512}

// newDevice creates a device service that logs nothing.
func newDevice(b *testing.B, serialize bool) *service.DeviceService {
	b.Helper()
	l, err := logger.New(logger.Config{Level: "error", Output: io.Discard})
	if err != nil {
		b.Fatal(err)
	}
	cfg := service.DefaultConfig()
	cfg.Serialize = serialize
	dev, err := service.NewDeviceService(cfg, service.WithLogger(l))
	if err != nil {
		b.Fatalf("NewDeviceService() error = %v", err)
	}
	b.Cleanup(func() { _ = dev.Shutdown(context.Background()) })
	return dev
}

// openSession opens a session or fails the benchmark.
func openSession(b *testing.B, dev *service.DeviceService) string {
	b.Helper()
	sess, err := dev.Open(context.Background())
	if err != nil {
		b.Fatalf("Open() error = %v", err)
	}
	return sess.ID
}

// reportMemory reports heap usage after the benchmark.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.HeapAlloc)/1024/1024, prefix+"_heap_MB")
}
