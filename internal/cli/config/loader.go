package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Merge.
const (
	EnvServer  = "PCD_SERVER"
	EnvOutput  = "PCD_OUTPUT"
	EnvSocket  = "PCD_SOCKET"
	EnvProfile = "PCD_PROFILE"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".pcd", "cli.yaml")
}

// Load loads CLI configuration from file. A missing file yields the
// defaults; unknown keys are rejected.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}
	return cfg, nil
}

// Save writes cfg to path with mode 0600.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Merge overrides cfg with PCD_* environment variables, then with flags.
// Flag keys are server, output, socket and profile; empty values are
// ignored.
func Merge(cfg *CLIConfig, env map[string]string, flags map[string]string) *CLIConfig {
	out := *cfg
	out.Profiles = cfg.Profiles

	apply := func(server, output, socket, profile string) {
		if profile != "" {
			out.CurrentProfile = profile
		}
		if server != "" {
			out.DefaultServer = server
			// An explicit server wins over the profile.
			out.CurrentProfile = ""
		}
		if output != "" {
			out.DefaultOutput = output
		}
		if socket != "" {
			out.DefaultSocket = socket
		}
	}

	apply(env[EnvServer], env[EnvOutput], env[EnvSocket], env[EnvProfile])
	apply(flags["server"], flags["output"], flags["socket"], flags["profile"])
	return &out
}

// Environ returns the PCD_* variables from the process environment.
func Environ() map[string]string {
	env := make(map[string]string)
	for _, k := range []string{EnvServer, EnvOutput, EnvSocket, EnvProfile} {
		if v, ok := os.LookupEnv(k); ok {
			env[k] = v
		}
	}
	return env
}
