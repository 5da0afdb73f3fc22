package confloader

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "PCD_"

// ErrUnknownKey is returned by Load in strict mode when a source sets a key
// the target does not declare.
var ErrUnknownKey = errors.New("unknown configuration key")

// Loader layers configuration sources over the defaults held by a target
// struct. Later layers win.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	overrides map[string]any
	known     map[string]string // underscored form -> dotted key
	strict    bool
	sources   []string
	envHits   int
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the YAML file loaded before the environment.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithOverrides sets dotted key values applied after the environment,
// typically from command-line flags.
func WithOverrides(m map[string]any) Option {
	return func(l *Loader) {
		if l.overrides == nil {
			l.overrides = make(map[string]any, len(m))
		}
		for k, v := range m {
			l.overrides[k] = v
		}
	}
}

// WithKnownKeys registers the dotted keys environment variables are
// resolved against. Use KeysOf to derive them from a struct.
func WithKnownKeys(keys ...string) Option {
	return func(l *Loader) {
		for _, k := range keys {
			l.known[strings.ReplaceAll(k, ".", "_")] = k
		}
	}
}

// WithStrict makes Load reject keys that are not known. It has no effect
// without WithKnownKeys.
func WithStrict() Option {
	return func(l *Loader) {
		l.strict = true
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
		known:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load applies the file, the environment and the overrides, in that order,
// and unmarshals the result into target. Fields no source sets keep the
// value target already holds.
func (l *Loader) Load(target any) error {
	if err := l.LoadFile(l.filePath); err != nil {
		return err
	}
	if err := l.LoadEnv(); err != nil {
		return err
	}
	if len(l.overrides) > 0 {
		if err := l.LoadMap(l.overrides); err != nil {
			return err
		}
	}
	if l.strict && len(l.known) > 0 {
		if unknown := l.Unknown(); len(unknown) > 0 {
			return fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(unknown, ", "))
		}
	}
	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// LoadFile merges a YAML file. An empty path is a no-op.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load config file %s: %w", path, err)
	}
	l.sources = append(l.sources, "file:"+path)
	return nil
}

// LoadEnv merges variables carrying the prefix. PCD_SERVER_HTTP_ADDR sets
// server.http.addr.
func (l *Loader) LoadEnv() error {
	l.envHits = 0
	if err := l.k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	if l.envHits > 0 {
		l.sources = append(l.sources, "env:"+l.envPrefix+"*")
	}
	return nil
}

// LoadMap merges dotted key values.
func (l *Loader) LoadMap(m map[string]any) error {
	if err := l.k.Load(mapProvider(m), nil); err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}
	l.sources = append(l.sources, "overrides")
	return nil
}

// envKey maps PCD_DEVICE_MINOR_COUNT to device.minor_count. With known
// keys registered, variables matching none of them are skipped so that
// client settings such as PCD_SERVER cannot clobber a section.
func (l *Loader) envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
	if k, ok := l.known[s]; ok {
		l.envHits++
		return k
	}
	if len(l.known) > 0 {
		return ""
	}
	l.envHits++
	return strings.ReplaceAll(s, "_", ".")
}

// Unknown returns the loaded keys that were not registered with
// WithKnownKeys, sorted.
func (l *Loader) Unknown() []string {
	known := make(map[string]struct{}, len(l.known))
	for _, k := range l.known {
		known[k] = struct{}{}
	}
	var out []string
	for _, k := range l.k.Keys() {
		if _, ok := known[k]; !ok {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// String returns the loaded value of key as a string.
func (l *Loader) String(key string) string {
	return l.k.String(key)
}

// Keys returns the loaded keys.
func (l *Loader) Keys() []string {
	return l.k.Keys()
}

// Sources lists the layers that were applied, in order.
func (l *Loader) Sources() []string {
	return slices.Clone(l.sources)
}
