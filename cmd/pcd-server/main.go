package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/yndnr/pcd-go/internal/core/service"
	"github.com/yndnr/pcd-go/internal/infra/buildinfo"
	"github.com/yndnr/pcd-go/internal/infra/confloader"
	"github.com/yndnr/pcd-go/internal/infra/shutdown"
	"github.com/yndnr/pcd-go/internal/server/config"
	"github.com/yndnr/pcd-go/internal/server/httpserver"
	"github.com/yndnr/pcd-go/internal/server/localserver"
	"github.com/yndnr/pcd-go/internal/server/redisserver"
	"github.com/yndnr/pcd-go/internal/telemetry/logger"
	"github.com/yndnr/pcd-go/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		overrides   = map[string]any{}
	)
	flag.Func("set", "Override a configuration key (key=value, repeatable)", func(s string) error {
		k, v, ok := strings.Cut(s, "=")
		if !ok || k == "" {
			return fmt.Errorf("want key=value, got %q", s)
		}
		overrides[k] = v
		return nil
	})
	flag.Parse()

	if *showVersion {
		bi := buildinfo.Get()
		fmt.Printf("pcd-server %s (commit: %s, built: %s, %s)\n",
			buildinfo.String(), bi.Commit, bi.BuildTime, bi.GoVersion)
		return nil
	}

	cfg, sources, err := loadConfig(*configFile, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, slogLogger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting pcd-server",
		"version", buildinfo.String(),
		"sources", sources)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	reg := metric.NewRegistry()

	dev, err := service.NewDeviceService(config.ToDeviceConfig(cfg),
		service.WithLogger(log),
		service.WithMetrics(reg),
	)
	if err != nil {
		return fmt.Errorf("register device: %w", err)
	}
	reg.MustRegister(metric.NewCollector(dev))

	// Hooks run in reverse order of registration: the device goes last.
	sh := shutdown.NewHandler(shutdownTimeout, shutdown.WithLogger(slogLogger))
	sh.OnShutdown("device", dev.Shutdown)

	// A listener failing after startup stops the process.
	ctx, stop := context.WithCancelCause(context.Background())
	defer stop(nil)

	if err := startServers(ctx, stop, cfg, dev, reg, slogLogger, sh); err != nil {
		if serr := sh.Run(); serr != nil {
			log.Error("cleanup after failed start", "error", serr)
		}
		return err
	}

	if *configFile != "" {
		if err := watchConfig(*configFile, overrides, slogLogger, sh); err != nil {
			log.Warn("config hot reload disabled", "error", err)
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := sh.WaitContext(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}

	log.Info("server stopped gracefully")
	return nil
}

// startServers starts every enabled listener and registers its shutdown
// hook. On error the hooks registered so far are left for the caller to run.
func startServers(ctx context.Context, stop context.CancelCauseFunc, cfg *config.ServerConfig,
	dev *service.DeviceService, reg *metric.Registry, log *slog.Logger, sh *shutdown.Handler) error {

	if cfg.Server.HTTP.Enabled {
		router := httpserver.NewRouter(&httpserver.RouterConfig{
			Device:             dev,
			Metrics:            reg,
			Logger:             log,
			MaxBodyBytes:       cfg.Server.HTTP.MaxBodyBytes,
			CORSAllowedOrigins: cfg.Server.HTTP.CORSOrigins,
		})
		srv := httpserver.New(cfg.Server.HTTP.Addr, router)
		errc, err := srv.Start()
		if err != nil {
			return fmt.Errorf("start http server: %w", err)
		}
		sh.OnShutdown("http", srv.Shutdown)
		log.Info("HTTP server listening", "addr", srv.Addr().String())

		go func() {
			if err := <-errc; err != nil {
				log.Error("HTTP server error", "error", err)
				stop(fmt.Errorf("http server: %w", err))
			}
		}()
	}

	if cfg.Server.Redis.Enabled {
		rc := cfg.Server.Redis
		rcfg := redisserver.DefaultConfig()
		rcfg.Enabled = true
		rcfg.Address = rc.Addr
		rcfg.Password = rc.Password
		rcfg.RateLimit = rc.RateLimit
		rcfg.RateBurst = rc.RateBurst
		rcfg.IdleTimeout = rc.IdleTimeout
		rcfg.MaxConnections = rc.MaxConnections

		srv := redisserver.New(rcfg, dev,
			redisserver.WithLogger(log),
			redisserver.WithMetrics(reg),
		)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("start redis server: %w", err)
		}
		sh.OnShutdown("redis", srv.Shutdown)
	}

	if cfg.Server.Local.Enabled {
		srv := localserver.New(cfg.Server.Local.Path, localserver.NewHandler(dev),
			localserver.WithLogger(log))
		if err := srv.Start(); err != nil {
			return fmt.Errorf("start local server: %w", err)
		}
		sh.OnShutdown("local", srv.Shutdown)
	}

	return nil
}

// loadConfig layers the file, the environment and -set overrides over the
// defaults. Unknown keys are rejected.
func loadConfig(configFile string, overrides map[string]any) (*config.ServerConfig, []string, error) {
	cfg := config.Default()

	loader := confloader.NewLoader(
		confloader.WithKnownKeys(confloader.KeysOf(cfg)...),
		confloader.WithConfigFile(configFile),
		confloader.WithOverrides(overrides),
		confloader.WithStrict(),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, loader.Sources(), nil
}

// initLogger builds the process logger and installs it as the default.
// Returns both the logger interface and slog.Logger for components that need it.
func initLogger(cfg *config.ServerConfig) (logger.Logger, *slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, nil, err
	}

	logger.SetDefault(log)
	return log, logger.Slog(log), nil
}

// watchConfig reloads the log level when the config file changes. Other
// settings need a restart.
func watchConfig(path string, overrides map[string]any, log *slog.Logger, sh *shutdown.Handler) error {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Close()
		return err
	}

	w.OnChange(func(changed string) {
		cfg, _, err := loadConfig(changed, overrides)
		if err != nil {
			log.Warn("ignoring invalid config change", "path", changed, "error", err)
			return
		}
		before := logger.GetLevel()
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("ignoring log level", "level", cfg.Log.Level, "error", err)
			return
		}
		if after := logger.GetLevel(); after != before {
			log.Info("log level changed", "from", before, "to", after)
		}
	})
	go func() {
		if err := w.Run(context.Background()); err != nil {
			log.Warn("config watcher stopped", "error", err)
		}
	}()

	sh.OnShutdown("config watcher", func(context.Context) error {
		return w.Close()
	})
	return nil
}
