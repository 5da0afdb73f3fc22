// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for pcd-server.
type ServerConfig struct {
	Server ServerSection `koanf:"server"`
	Device DeviceSection `koanf:"device"`
	Log    LogSection    `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP  HTTPConfig  `koanf:"http"`
	Redis RedisConfig `koanf:"redis"`
	Local LocalConfig `koanf:"local"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	// MaxBodyBytes bounds request bodies. Write payloads are at most
	// the device capacity once base64 decoded, so the default is small.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
	// CORSOrigins lists the origins allowed cross-origin access.
	// Empty disables CORS headers.
	CORSOrigins []string `koanf:"cors_origins"`
}

// RedisConfig configures the Redis protocol server.
type RedisConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	// Password enables AUTH. Empty disables authentication.
	Password string `koanf:"password"`
	// RateLimit is the per-client request rate (requests/second). 0 disables.
	RateLimit float64 `koanf:"rate_limit"`
	// RateBurst is the per-client burst size.
	RateBurst int `koanf:"rate_burst"`
	// IdleTimeout closes connections idle for this long. 0 disables.
	IdleTimeout time.Duration `koanf:"idle_timeout"`
	// MaxConnections bounds concurrent clients. 0 means unlimited.
	MaxConnections int `koanf:"max_connections"`
}

// LocalConfig configures the local management socket.
type LocalConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// DeviceSection configures the registered device node.
type DeviceSection struct {
	// Name is the node name.
	Name string `koanf:"name"`
	// Class is the device class the node is created in.
	Class string `koanf:"class"`
	// Major is the major number. 0 requests a dynamic major.
	Major uint32 `koanf:"major"`
	// MinorBase is the first minor of the reserved range.
	MinorBase uint32 `koanf:"minor_base"`
	// MinorCount is the size of the reserved minor range.
	MinorCount uint32 `koanf:"minor_count"`
	// Serialize runs every access call under one device-wide lock.
	Serialize bool `koanf:"serialize"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
