package config

import "fmt"

// CLIConfig is the configuration for pcd-cli.
type CLIConfig struct {
	DefaultServer string `yaml:"default_server"`
	DefaultOutput string `yaml:"default_output"` // table, json, yaml
	DefaultSocket string `yaml:"default_socket"`

	// Named servers, selected with CurrentProfile.
	Profiles       map[string]Profile `yaml:"profiles"`
	CurrentProfile string             `yaml:"current_profile"`
}

// Profile stores the addresses of one pcd-server.
type Profile struct {
	Server string `yaml:"server"`
	Socket string `yaml:"socket"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultServer: "http://localhost:5080",
		DefaultOutput: "table",
		DefaultSocket: "/var/run/pcd-server/pcd-server.sock",
		Profiles:      make(map[string]Profile),
	}
}

// Server returns the HTTP address to use: the current profile's when set.
func (c *CLIConfig) Server() string {
	if p, ok := c.Profiles[c.CurrentProfile]; ok && p.Server != "" {
		return p.Server
	}
	return c.DefaultServer
}

// Socket returns the local socket path to use.
func (c *CLIConfig) Socket() string {
	if p, ok := c.Profiles[c.CurrentProfile]; ok && p.Socket != "" {
		return p.Socket
	}
	return c.DefaultSocket
}

// Validate checks that the selected profile exists.
func (c *CLIConfig) Validate() error {
	if c.CurrentProfile == "" {
		return nil
	}
	if _, ok := c.Profiles[c.CurrentProfile]; !ok {
		return fmt.Errorf("profile %q not found", c.CurrentProfile)
	}
	return nil
}
