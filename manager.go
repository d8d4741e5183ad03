// manager.go
package extprefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

const defaultCacheTTL = 24 * time.Hour

// Manager resolves effective preference values for profiles by layering stored
// overrides on top of an immutable Registry of declared defaults. The registry is
// never modified; overrides live only in the configured Storage.
type Manager struct {
	config *Config
}

// New creates a Manager. Without WithRegistry the built-in autoproxy2 defaults are used.
func New(opts ...Option) *Manager {
	cfg := &Config{
		logger:     NewDefaultLogger(),
		cacheTTL:   defaultCacheTTL,
		validators: builtinValidators(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.registry == nil {
		cfg.registry = Defaults()
	}

	return &Manager{
		config: cfg,
	}
}

// Registry returns the registry of declared defaults.
func (m *Manager) Registry() *Registry {
	return m.config.registry
}

// Get returns the effective value of key for profile: the profile's override if one is
// stored, otherwise the declared default. Undeclared keys fail with ErrNotFound.
func (m *Manager) Get(ctx context.Context, profile, key string) (*Preference, error) {
	if profile == "" || key == "" {
		return nil, ErrInvalidInput
	}

	e, ok := m.config.registry.Lookup(key)
	if !ok {
		return nil, notFound(key)
	}

	o, err := m.override(ctx, profile, e)
	if err != nil {
		return nil, err
	}
	return resolve(profile, e, o), nil
}

// Set stores an override of key for profile. The value must convert to the key's
// declared type; integral floats and json.Number are accepted for integer keys.
func (m *Manager) Set(ctx context.Context, profile, key string, value interface{}) error {
	if profile == "" || key == "" {
		return ErrInvalidInput
	}

	e, ok := m.config.registry.Lookup(key)
	if !ok {
		return notFound(key)
	}
	if m.config.storage == nil {
		return ErrStorageUnavailable
	}

	v, err := coerceValue(value, e)
	if err != nil {
		return err
	}
	if err := validateValue(v, e, m.config.validators); err != nil {
		return err
	}

	o := &Override{
		Profile:   profile,
		Key:       key,
		Value:     v,
		UpdatedAt: time.Now().UTC(),
	}
	if err := m.config.storage.Set(ctx, o); err != nil {
		return err
	}

	if m.config.cache != nil {
		m.setToCache(ctx, o)
	}

	m.config.logger.Debug("Preference overridden", "profile", profile, "key", key)
	return nil
}

// Reset removes the profile's override of key so the declared default applies again.
// Resetting a key that has no override is not an error.
func (m *Manager) Reset(ctx context.Context, profile, key string) error {
	if profile == "" || key == "" {
		return ErrInvalidInput
	}

	if !m.config.registry.Has(key) {
		return notFound(key)
	}
	if m.config.storage == nil {
		return ErrStorageUnavailable
	}

	if err := m.config.storage.Delete(ctx, profile, key); err != nil && !errors.Is(err, ErrNoOverride) {
		return err
	}

	if m.config.cache != nil {
		m.deleteFromCache(ctx, profile, key)
	}

	return nil
}

// GetAll returns the effective value of every declared preference for profile.
func (m *Manager) GetAll(ctx context.Context, profile string) (map[string]*Preference, error) {
	if profile == "" {
		return nil, ErrInvalidInput
	}

	overrides, err := m.Overrides(ctx, profile)
	if err != nil {
		return nil, err
	}
	return m.merge(profile, m.config.registry.Entries(), overrides), nil
}

// GetByPrefix returns the effective values of the declared preferences whose key
// starts with prefix, e.g. Namespace+"subscriptions_".
func (m *Manager) GetByPrefix(ctx context.Context, profile, prefix string) (map[string]*Preference, error) {
	if profile == "" || prefix == "" {
		return nil, ErrInvalidInput
	}

	overrides := make(map[string]*Override)
	if m.config.storage != nil {
		var err error
		overrides, err = m.config.storage.GetByPrefix(ctx, profile, prefix)
		if err != nil {
			return nil, err
		}
	}
	return m.merge(profile, m.config.registry.WithPrefix(prefix), overrides), nil
}

// Overrides returns the overrides stored for profile, keyed by preference key.
func (m *Manager) Overrides(ctx context.Context, profile string) (map[string]*Override, error) {
	if profile == "" {
		return nil, ErrInvalidInput
	}
	if m.config.storage == nil {
		return make(map[string]*Override), nil
	}
	return m.config.storage.GetAll(ctx, profile)
}

// Import reads pref() or user_pref() statements from r and stores them as overrides
// for profile. Statements for undeclared keys are skipped with a warning. Every value is
// checked before anything is written, and when storage fails part-way the overrides
// already written are restored to their previous state. The number of stored overrides
// is returned.
func (m *Manager) Import(ctx context.Context, profile string, r io.Reader) (int, error) {
	if profile == "" || r == nil {
		return 0, ErrInvalidInput
	}
	if m.config.storage == nil {
		return 0, ErrStorageUnavailable
	}

	decls, err := ParseDeclarations(r)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	pending := make([]*Override, 0, len(decls))
	for _, d := range decls {
		e, ok := m.config.registry.Lookup(d.Key)
		if !ok {
			m.config.logger.Warn("Skipping undeclared preference", "profile", profile, "key", d.Key, "line", d.Line)
			continue
		}
		if err := validateValue(d.Value, e, m.config.validators); err != nil {
			return 0, fmt.Errorf("line %d: %w", d.Line, err)
		}
		pending = append(pending, &Override{Profile: profile, Key: d.Key, Value: d.Value, UpdatedAt: now})
	}

	previous, err := m.config.storage.GetAll(ctx, profile)
	if err != nil {
		return 0, err
	}

	for i, o := range pending {
		if err := m.config.storage.Set(ctx, o); err != nil {
			m.rollback(ctx, profile, pending[:i], previous)
			return 0, err
		}
		if m.config.cache != nil {
			m.setToCache(ctx, o)
		}
	}

	m.config.logger.Info("Imported preference overrides", "profile", profile, "count", len(pending))
	return len(pending), nil
}

// Export writes the profile's overrides as user_pref() statements in declaration order.
func (m *Manager) Export(ctx context.Context, profile string, w io.Writer) error {
	overrides, err := m.Overrides(ctx, profile)
	if err != nil {
		return err
	}

	var decls []Declaration
	for _, e := range m.config.registry.Entries() {
		o, ok := overrides[e.Key]
		if !ok || o.Value.Type() != e.Type() {
			continue
		}
		decls = append(decls, Declaration{Func: FuncUserPref, Key: e.Key, Value: o.Value})
	}

	_, err = WriteDeclarations(w, decls)
	return err
}

// rollback undoes the writes of a failed import, putting back each key's previous
// override or deleting it when there was none.
func (m *Manager) rollback(ctx context.Context, profile string, written []*Override, previous map[string]*Override) {
	done := make(map[string]bool, len(written))
	for _, o := range written {
		if done[o.Key] {
			continue
		}
		done[o.Key] = true

		var err error
		if prev, ok := previous[o.Key]; ok {
			err = m.config.storage.Set(ctx, prev)
		} else if err = m.config.storage.Delete(ctx, profile, o.Key); errors.Is(err, ErrNoOverride) {
			err = nil
		}
		if err != nil {
			m.config.logger.Error("Failed to roll back imported override", "profile", profile, "key", o.Key, "error", err)
		}
		if m.config.cache != nil {
			m.deleteFromCache(ctx, profile, o.Key)
		}
	}
}

// override returns the profile's stored override for e, or nil when the default applies.
func (m *Manager) override(ctx context.Context, profile string, e Entry) (*Override, error) {
	if m.config.storage == nil {
		return nil, nil
	}

	if m.config.cache != nil {
		if o, err := m.getFromCache(ctx, profile, e); err == nil {
			return o, nil
		}
	}

	o, err := m.config.storage.Get(ctx, profile, e.Key)
	if errors.Is(err, ErrNoOverride) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if o.Value.Type() != e.Type() {
		m.config.logger.Warn("Ignoring override with mismatched type", "profile", profile, "key", e.Key, "type", o.Value.Type())
		return nil, nil
	}

	if m.config.cache != nil {
		m.setToCache(ctx, o)
	}
	return o, nil
}

func (m *Manager) merge(profile string, entries []Entry, overrides map[string]*Override) map[string]*Preference {
	out := make(map[string]*Preference, len(entries))
	for _, e := range entries {
		o := overrides[e.Key]
		if o != nil && o.Value.Type() != e.Type() {
			m.config.logger.Warn("Ignoring override with mismatched type", "profile", profile, "key", e.Key, "type", o.Value.Type())
			o = nil
		}
		out[e.Key] = resolve(profile, e, o)
	}
	return out
}

func resolve(profile string, e Entry, o *Override) *Preference {
	p := &Preference{
		Profile: profile,
		Key:     e.Key,
		Value:   e.Default,
		Default: e.Default,
		Type:    e.Type(),
	}
	if o != nil {
		p.Value = o.Value
		p.Overridden = true
		p.UpdatedAt = o.UpdatedAt
	}
	return p
}

func cacheKey(profile, key string) string {
	return fmt.Sprintf("pref:%s:%s", profile, key)
}

func (m *Manager) getFromCache(ctx context.Context, profile string, e Entry) (*Override, error) {
	data, err := m.config.cache.Get(ctx, cacheKey(profile, e.Key))
	if err != nil {
		return nil, err
	}

	var o Override
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, err
	}
	if o.Value.Type() != e.Type() {
		return nil, ErrCacheMiss
	}

	return &o, nil
}

func (m *Manager) setToCache(ctx context.Context, o *Override) {
	data, err := json.Marshal(o)
	if err != nil {
		m.config.logger.Error("Failed to marshal override for cache", "error", err)
		return
	}

	if err := m.config.cache.Set(ctx, cacheKey(o.Profile, o.Key), data, m.config.cacheTTL); err != nil {
		m.config.logger.Error("Failed to cache override", "error", err)
	}
}

func (m *Manager) deleteFromCache(ctx context.Context, profile, key string) {
	if err := m.config.cache.Delete(ctx, cacheKey(profile, key)); err != nil && !errors.Is(err, ErrCacheMiss) {
		m.config.logger.Error("Failed to delete override from cache", "error", err)
	}
}
