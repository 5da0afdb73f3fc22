// Package config defines the server configuration structure.
package config

import (
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Check server defaults
	if !cfg.Server.HTTP.Enabled || cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP = %+v", cfg.Server.HTTP)
	}
	if cfg.Server.Redis.Enabled {
		t.Error("Redis should be disabled by default")
	}
	if cfg.Server.Redis.Addr != DefaultRedisAddr {
		t.Errorf("Redis.Addr = %q, want %q", cfg.Server.Redis.Addr, DefaultRedisAddr)
	}
	if cfg.Server.Local.Path != DefaultLocalSocket {
		t.Errorf("Local.Path = %q, want %q", cfg.Server.Local.Path, DefaultLocalSocket)
	}

	// Check device defaults
	if cfg.Device.Name != "pcd" || cfg.Device.Class != "pcd_class" {
		t.Errorf("Device = %+v", cfg.Device)
	}
	if cfg.Device.Major != 0 || cfg.Device.MinorBase != 0 || cfg.Device.MinorCount != 7 {
		t.Errorf("Device numbers = %+v", cfg.Device)
	}
	if !cfg.Device.Serialize {
		t.Error("Device.Serialize should be on by default")
	}

	// Check log defaults
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, DefaultLogFormat)
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Server.Redis.Password = "super-secret-pass"

	sanitized := Sanitize(cfg)

	// Original should be unchanged
	if cfg.Server.Redis.Password != "super-secret-pass" {
		t.Error("original config was modified")
	}
	if strings.Contains(sanitized.Server.Redis.Password, "secret") {
		t.Errorf("password not masked: %q", sanitized.Server.Redis.Password)
	}
}

func TestSanitize_EmptyPassword(t *testing.T) {
	sanitized := Sanitize(Default())
	if sanitized.Server.Redis.Password != "" {
		t.Errorf("empty password became %q", sanitized.Server.Redis.Password)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "****"},
		{"abcd", "****"},
		{"abcdef", "ab**ef"},
		{"0123456789", "01******89"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := maskSecret(tt.in); got != tt.want {
				t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestVerify_ValidConfig(t *testing.T) {
	if err := Verify(Default()); err != nil {
		t.Errorf("Verify(Default()) error = %v", err)
	}
}

func TestVerify_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"no endpoints", func(c *ServerConfig) {
			c.Server.HTTP.Enabled = false
			c.Server.Local.Enabled = false
		}, "at least one"},
		{"bad http addr", func(c *ServerConfig) { c.Server.HTTP.Addr = "nope" }, "server.http.addr"},
		{"zero body limit", func(c *ServerConfig) { c.Server.HTTP.MaxBodyBytes = 0 }, "max_body_bytes"},
		{"empty redis addr", func(c *ServerConfig) {
			c.Server.Redis.Enabled = true
			c.Server.Redis.Addr = ""
		}, "server.redis.addr"},
		{"negative rate", func(c *ServerConfig) {
			c.Server.Redis.Enabled = true
			c.Server.Redis.RateLimit = -1
		}, "rate_limit"},
		{"zero burst", func(c *ServerConfig) {
			c.Server.Redis.Enabled = true
			c.Server.Redis.RateBurst = 0
		}, "rate_burst"},
		{"port conflict", func(c *ServerConfig) {
			c.Server.Redis.Enabled = true
			c.Server.Redis.Addr = c.Server.HTTP.Addr
		}, "conflict"},
		{"empty socket path", func(c *ServerConfig) { c.Server.Local.Path = "" }, "server.local.path"},
		{"empty device name", func(c *ServerConfig) { c.Device.Name = "" }, "device.name"},
		{"slash in name", func(c *ServerConfig) { c.Device.Name = "dev/pcd" }, "device.name"},
		{"empty class", func(c *ServerConfig) { c.Device.Class = "" }, "device.class"},
		{"major too large", func(c *ServerConfig) { c.Device.Major = 5000 }, "device.major"},
		{"zero minors", func(c *ServerConfig) { c.Device.MinorCount = 0 }, "minor_count"},
		{"minor overflow", func(c *ServerConfig) { c.Device.MinorBase = 1 << 20 }, "minor range"},
		{"bad log level", func(c *ServerConfig) { c.Log.Level = "verbose" }, "log.level"},
		{"bad log format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if err == nil {
				t.Fatal("Verify() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_RedisOnly(t *testing.T) {
	cfg := Default()
	cfg.Server.HTTP.Enabled = false
	cfg.Server.Local.Enabled = false
	cfg.Server.Redis.Enabled = true

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestToDeviceConfig(t *testing.T) {
	cfg := Default()
	cfg.Device.Major = 240
	cfg.Device.MinorBase = 3
	cfg.Device.Serialize = false

	dc := ToDeviceConfig(cfg)
	if dc.Name != "pcd" || dc.Class != "pcd_class" {
		t.Errorf("names = %q/%q", dc.Name, dc.Class)
	}
	if dc.Major != 240 || dc.MinorBase != 3 || dc.MinorCount != 7 {
		t.Errorf("numbers = %+v", dc)
	}
	if dc.Serialize {
		t.Error("Serialize not carried over")
	}
}

func TestToDeviceConfig_Nil(t *testing.T) {
	dc := ToDeviceConfig(nil)
	if dc.Name != "pcd" || !dc.Serialize {
		t.Errorf("ToDeviceConfig(nil) = %+v", dc)
	}
}
