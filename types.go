// Package extprefs defines the core types of the override layer.
package extprefs

import (
	"time"
)

// Override is a profile's replacement for a declared default, as persisted by a
// Storage backend. Value always has the declared type of Key.
type Override struct {
	// Profile identifies the owner of the override, e.g. a browser profile or user ID.
	Profile string `json:"profile"`
	// Key is the declared preference key.
	Key string `json:"key"`
	// Value is the overriding value.
	Value Value `json:"value"`
	// UpdatedAt records when the override was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// Preference is the effective value of a declared preference for one profile.
type Preference struct {
	Profile string `json:"profile"`
	Key     string `json:"key"`
	// Value is the override if one exists, otherwise the declared default.
	Value Value `json:"value"`
	// Default is the declared default from the registry.
	Default Value `json:"default"`
	Type    Type  `json:"type"`
	// Overridden reports whether Value comes from an override.
	Overridden bool `json:"overridden"`
	// UpdatedAt is the override's timestamp; zero when the default applies.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Validator checks a candidate override value for a single key.
type Validator func(v Value) error

// Config holds the internal configuration for a Manager instance.
// It is populated by applying functional Options when a new Manager is created with New().
type Config struct {
	// registry holds the declared defaults. Defaults() is used when none is given.
	registry *Registry
	// storage persists overrides. Without it the Manager is read-only.
	storage Storage
	// cache is the optional caching layer for overrides.
	cache Cache
	// cacheTTL bounds the lifetime of cached overrides.
	cacheTTL time.Duration
	// logger is the logging interface used by the Manager.
	logger Logger
	// validators hold per-key checks applied by Set, on top of the type check.
	validators map[string]Validator
}

// Option defines the signature for a functional option that configures a Manager.
type Option func(*Config)

// WithRegistry sets the registry of declared defaults.
func WithRegistry(r *Registry) Option {
	return func(c *Config) {
		c.registry = r
	}
}

// WithStorage sets the Storage implementation used to persist overrides.
// This option is optional; without it Set, Reset and Import fail with
// ErrStorageUnavailable and Get always returns declared defaults.
func WithStorage(s Storage) Option {
	return func(c *Config) {
		c.storage = s
	}
}

// WithCache sets the Cache implementation used in front of the storage.
func WithCache(cache Cache) Option {
	return func(c *Config) {
		c.cache = cache
	}
}

// WithCacheTTL sets how long cached overrides stay valid. The default is 24 hours.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.cacheTTL = ttl
	}
}

// WithLogger sets the Logger implementation for the Manager.
// If not set, a default logger writing JSON to os.Stderr is used.
func WithLogger(l Logger) Option {
	return func(c *Config) {
		c.logger = l
	}
}

// WithValidator adds a validator for key, replacing any built-in one.
func WithValidator(key string, fn Validator) Option {
	return func(c *Config) {
		c.validators[key] = fn
	}
}
