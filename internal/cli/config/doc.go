// Package config provides the pcd-cli configuration.
//
//   - spec.go: CLIConfig struct (~/.pcd/cli.yaml)
//   - loader.go: loading, saving and merging with env and flags
//
// Precedence, lowest first: defaults, config file, PCD_* environment
// variables, command-line flags.
package config
