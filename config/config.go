// Package config loads extprefs settings from the built-in defaults, an optional
// TOML file and EXTPREFS_* environment variables, in that order.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/CreativeUnicorns/extprefs"
)

// EnvPrefix is the prefix of environment overrides. EXTPREFS_STORAGE_DSN sets storage.dsn.
const EnvPrefix = "EXTPREFS_"

// ErrInvalidConfig is returned by Load and Validate for unusable settings.
var ErrInvalidConfig = errors.New("invalid configuration")

//go:embed embedded/defaults.toml
var defaultConfig []byte

// Storage and cache driver names.
const (
	DriverNone     = "none"
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config is the complete extprefs configuration.
type Config struct {
	Listen   string         `koanf:"listen"`
	Log      LogConfig      `koanf:"log"`
	Defaults DefaultsConfig `koanf:"defaults"`
	Storage  StorageConfig  `koanf:"storage"`
	Cache    CacheConfig    `koanf:"cache"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// LogConfig selects the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `koanf:"level"`
}

// DefaultsConfig points at the declarations to serve.
type DefaultsConfig struct {
	// File is a pref() declaration file replacing the built-in defaults.
	File string `koanf:"file"`
}

// StorageConfig selects where overrides are kept. DSN is a file path for sqlite and a
// connection string for postgres; the none and memory drivers ignore it.
type StorageConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// CacheConfig selects the override cache. Addr, Password, DB and Prefix apply to redis only.
type CacheConfig struct {
	Driver   string        `koanf:"driver"`
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	Prefix   string        `koanf:"prefix"`
	TTL      time.Duration `koanf:"ttl"`
}

// MetricsConfig toggles the Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Load builds the configuration. path may be empty; a named file must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Built-in defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	// 3. Environment
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks driver names and the settings each driver requires.
func (c *Config) Validate() error {
	var problems []string

	if _, ok := extprefs.ParseLogLevel(c.Log.Level); !ok {
		problems = append(problems, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}

	switch c.Storage.Driver {
	case DriverNone, DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Storage.DSN == "" {
			problems = append(problems, fmt.Sprintf("storage.dsn is required for the %s driver", c.Storage.Driver))
		}
	default:
		problems = append(problems, fmt.Sprintf("storage.driver %q is not one of none, memory, sqlite, postgres", c.Storage.Driver))
	}

	switch c.Cache.Driver {
	case DriverNone, DriverMemory:
	case DriverRedis:
		if c.Cache.Addr == "" {
			problems = append(problems, "cache.addr is required for the redis driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("cache.driver %q is not one of none, memory, redis", c.Cache.Driver))
	}
	if c.Cache.TTL < 0 {
		problems = append(problems, "cache.ttl must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// LogLevel returns the parsed log.level.
func (c *Config) LogLevel() extprefs.LogLevel {
	level, _ := extprefs.ParseLogLevel(c.Log.Level)
	return level
}
