package command

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/pcd-go/internal/cli/config"
	"github.com/yndnr/pcd-go/internal/core/service"
	"github.com/yndnr/pcd-go/internal/server/httpserver"
	"github.com/yndnr/pcd-go/internal/server/localserver"
	"github.com/yndnr/pcd-go/internal/telemetry/logger"
)

// testEnv is a device served over HTTP and the local socket.
type testEnv struct {
	dev        *service.DeviceService
	http       *httptest.Server
	socket     string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	for _, k := range []string{config.EnvServer, config.EnvOutput, config.EnvSocket, config.EnvProfile} {
		t.Setenv(k, "")
	}

	l, err := logger.New(logger.Config{Level: "error", Output: io.Discard})
	if err != nil {
		t.Fatal(err)
	}
	dev, err := service.NewDeviceService(service.DefaultConfig(), service.WithLogger(l))
	if err != nil {
		t.Fatalf("NewDeviceService() error = %v", err)
	}
	t.Cleanup(func() { _ = dev.Shutdown(context.Background()) })

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	rc := httpserver.DefaultRouterConfig()
	rc.Device = dev
	rc.Logger = quiet
	srv := httptest.NewServer(httpserver.NewRouter(rc))
	t.Cleanup(srv.Close)

	// Unix socket paths are length limited; keep them short.
	dir, err := os.MkdirTemp("", "pcdcli")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	sock := filepath.Join(dir, "s.sock")
	local := localserver.New(sock, localserver.NewHandler(dev), localserver.WithLogger(quiet))
	if err := local.Start(); err != nil {
		t.Fatalf("local Start() error = %v", err)
	}
	t.Cleanup(func() { _ = local.Shutdown(context.Background()) })

	return &testEnv{
		dev:        dev,
		http:       srv,
		socket:     sock,
		configPath: filepath.Join(t.TempDir(), "cli.yaml"),
	}
}

// run executes pcd-cli with args against the test env and returns stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	return e.runWithInput(t, nil, args...)
}

func (e *testEnv) runWithInput(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = in
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := []string{"pcd-cli", "--config", e.configPath, "--server", e.http.URL, "--socket", e.socket}
	full = append(full, args...)
	err := app.Run(full)
	return stdout.String(), err
}

// mustRun is run that fails the test on error.
func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("pcd-cli %s: %v", strings.Join(args, " "), err)
	}
	return out
}
