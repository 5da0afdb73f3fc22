// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/yndnr/pcd-go/internal/core/domain"
	"github.com/yndnr/pcd-go/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyDevice(&cfg.Device); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if !cfg.HTTP.Enabled && !cfg.Redis.Enabled && !cfg.Local.Enabled {
		return errors.New("at least one of server.http, server.redis, server.local must be enabled")
	}

	if cfg.HTTP.Enabled {
		if err := verifyAddr("server.http.addr", cfg.HTTP.Addr); err != nil {
			return err
		}
		if cfg.HTTP.MaxBodyBytes <= 0 {
			return errors.New("server.http.max_body_bytes must be positive")
		}
	}

	if cfg.Redis.Enabled {
		if err := verifyAddr("server.redis.addr", cfg.Redis.Addr); err != nil {
			return err
		}
		if cfg.Redis.RateLimit < 0 {
			return errors.New("server.redis.rate_limit must not be negative")
		}
		if cfg.Redis.RateLimit > 0 && cfg.Redis.RateBurst < 1 {
			return errors.New("server.redis.rate_burst must be at least 1 when rate_limit is set")
		}
		if cfg.Redis.IdleTimeout < 0 {
			return errors.New("server.redis.idle_timeout must not be negative")
		}
		if cfg.Redis.MaxConnections < 0 {
			return errors.New("server.redis.max_connections must not be negative")
		}
	}

	if cfg.HTTP.Enabled && cfg.Redis.Enabled && sameAddr(cfg.HTTP.Addr, cfg.Redis.Addr) {
		return fmt.Errorf("server.http.addr and server.redis.addr conflict: %s", cfg.HTTP.Addr)
	}

	if cfg.Local.Enabled && cfg.Local.Path == "" {
		return errors.New("server.local.path is required when the local socket is enabled")
	}
	return nil
}

func verifyDevice(cfg *DeviceSection) error {
	if cfg.Name == "" {
		return errors.New("device.name is required")
	}
	if strings.ContainsAny(cfg.Name, "/ ") {
		return fmt.Errorf("device.name %q must not contain '/' or spaces", cfg.Name)
	}
	if cfg.Class == "" {
		return errors.New("device.class is required")
	}
	if cfg.Major > domain.MaxMajor {
		return fmt.Errorf("device.major %d exceeds %d", cfg.Major, domain.MaxMajor)
	}
	if cfg.MinorCount < 1 {
		return errors.New("device.minor_count must be at least 1")
	}
	if uint64(cfg.MinorBase)+uint64(cfg.MinorCount)-1 > domain.MaxMinor {
		return fmt.Errorf("device minor range %d+%d exceeds %d", cfg.MinorBase, cfg.MinorCount, domain.MaxMinor)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if cfg.Level != "" {
		if _, err := logger.ParseLevel(cfg.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
	return nil
}

func verifyAddr(key, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", key)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s %q: %w", key, addr, err)
	}
	return nil
}

func sameAddr(a, b string) bool {
	ah, ap, err1 := net.SplitHostPort(a)
	bh, bp, err2 := net.SplitHostPort(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return ap == bp && ap != "0" && (ah == bh || ah == "" || bh == "")
}
