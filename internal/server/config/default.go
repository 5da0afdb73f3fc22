// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr     = "127.0.0.1:5080"
	DefaultMaxBodyBytes = 64 << 10
	DefaultRedisAddr    = "127.0.0.1:6379"
	DefaultRateLimit    = 1000
	DefaultRateBurst    = 100
	DefaultIdleTimeout  = 5 * time.Minute
	DefaultLocalSocket  = "/var/run/pcd-server/pcd-server.sock"

	DefaultDeviceName  = "pcd"
	DefaultDeviceClass = "pcd_class"
	DefaultMinorCount  = 7

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Enabled:      true,
				Addr:         DefaultHTTPAddr,
				MaxBodyBytes: DefaultMaxBodyBytes,
			},
			Redis: RedisConfig{
				Enabled:     false,
				Addr:        DefaultRedisAddr,
				RateLimit:   DefaultRateLimit,
				RateBurst:   DefaultRateBurst,
				IdleTimeout: DefaultIdleTimeout,
			},
			Local: LocalConfig{
				Enabled: true,
				Path:    DefaultLocalSocket,
			},
		},
		Device: DeviceSection{
			Name:       DefaultDeviceName,
			Class:      DefaultDeviceClass,
			MinorCount: DefaultMinorCount,
			Serialize:  true,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
