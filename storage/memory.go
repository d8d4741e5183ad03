package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/CreativeUnicorns/extprefs"
)

// MemoryStorage implements the Storage interface using an in-memory map.
// This is useful for testing or single-process deployments where persistence is not required.
type MemoryStorage struct {
	mu        sync.RWMutex
	overrides map[string]map[string]*extprefs.Override // profile -> key -> Override
	closed    bool
}

// NewMemoryStorage creates a new instance of MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		overrides: make(map[string]map[string]*extprefs.Override),
	}
}

// Get retrieves the override of key for profile.
// It returns extprefs.ErrNoOverride if none is stored.
func (s *MemoryStorage) Get(_ context.Context, profile, key string) (*extprefs.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, extprefs.ErrStorageUnavailable
	}

	o, ok := s.overrides[profile][key]
	if !ok {
		return nil, extprefs.ErrNoOverride
	}

	// Return a copy so callers cannot modify the stored override.
	copied := *o
	return &copied, nil
}

// Set stores an override, replacing any previous one for the same profile and key.
// A zero UpdatedAt is set to the current time.
func (s *MemoryStorage) Set(_ context.Context, o *extprefs.Override) error {
	if _, _, err := encodeValue(o); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return extprefs.ErrStorageUnavailable
	}

	if _, ok := s.overrides[o.Profile]; !ok {
		s.overrides[o.Profile] = make(map[string]*extprefs.Override)
	}

	stored := *o
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	s.overrides[o.Profile][o.Key] = &stored
	return nil
}

// Delete removes the override of key for profile.
// It returns extprefs.ErrNoOverride if none is stored.
func (s *MemoryStorage) Delete(_ context.Context, profile, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return extprefs.ErrStorageUnavailable
	}

	profileOverrides, ok := s.overrides[profile]
	if !ok {
		return extprefs.ErrNoOverride
	}
	if _, ok := profileOverrides[key]; !ok {
		return extprefs.ErrNoOverride
	}

	delete(profileOverrides, key)
	// If the profile has no more overrides, remove the profile's map entry
	if len(profileOverrides) == 0 {
		delete(s.overrides, profile)
	}
	return nil
}

// GetAll retrieves all overrides for profile.
func (s *MemoryStorage) GetAll(ctx context.Context, profile string) (map[string]*extprefs.Override, error) {
	return s.GetByPrefix(ctx, profile, "")
}

// GetByPrefix retrieves the overrides for profile whose key starts with prefix.
func (s *MemoryStorage) GetByPrefix(_ context.Context, profile, prefix string) (map[string]*extprefs.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, extprefs.ErrStorageUnavailable
	}

	result := make(map[string]*extprefs.Override)
	for key, o := range s.overrides[profile] {
		if strings.HasPrefix(key, prefix) {
			copied := *o
			result[key] = &copied
		}
	}
	return result, nil
}

// Close releases the stored overrides. Further calls fail with extprefs.ErrStorageUnavailable.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.overrides = nil
	return nil
}
