package config

import "github.com/yndnr/pcd-go/internal/core/service"

// ToDeviceConfig converts the device section to the registration used by
// the device service.
func ToDeviceConfig(cfg *ServerConfig) service.Config {
	if cfg == nil {
		return service.DefaultConfig()
	}
	d := cfg.Device
	return service.Config{
		Name:       d.Name,
		Class:      d.Class,
		Major:      d.Major,
		MinorBase:  d.MinorBase,
		MinorCount: d.MinorCount,
		Serialize:  d.Serialize,
	}
}
