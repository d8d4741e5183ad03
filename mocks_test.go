package extprefs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MockStorage implements the Storage interface for testing
type MockStorage struct {
	mu     sync.RWMutex
	data   map[string]map[string]*Override
	closed bool
	setErr error // For forcing errors in Set for testing
	errKey string
	sets   int
}

func NewMockStorage() *MockStorage {
	return &MockStorage{
		data: make(map[string]map[string]*Override),
	}
}

func (m *MockStorage) Get(ctx context.Context, profile, key string) (*Override, error) {
	_, _ = ctx.Deadline()
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStorageUnavailable
	}

	if overrides, exists := m.data[profile]; exists {
		if o, exists := overrides[key]; exists {
			copied := *o
			return &copied, nil
		}
	}
	return nil, ErrNoOverride
}

func (m *MockStorage) Set(ctx context.Context, o *Override) error {
	_, _ = ctx.Deadline()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStorageUnavailable
	}
	if m.setErr != nil && (m.errKey == "" || m.errKey == o.Key) {
		return m.setErr
	}

	if _, exists := m.data[o.Profile]; !exists {
		m.data[o.Profile] = make(map[string]*Override)
	}
	copied := *o
	m.data[o.Profile][o.Key] = &copied
	m.sets++
	return nil
}

func (m *MockStorage) Delete(ctx context.Context, profile, key string) error {
	_, _ = ctx.Deadline()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStorageUnavailable
	}

	if overrides, exists := m.data[profile]; exists {
		if _, exists := overrides[key]; exists {
			delete(overrides, key)
			return nil
		}
	}
	return ErrNoOverride
}

func (m *MockStorage) GetAll(ctx context.Context, profile string) (map[string]*Override, error) {
	return m.GetByPrefix(ctx, profile, "")
}

func (m *MockStorage) GetByPrefix(ctx context.Context, profile, prefix string) (map[string]*Override, error) {
	_, _ = ctx.Deadline()
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStorageUnavailable
	}

	result := make(map[string]*Override)
	for key, o := range m.data[profile] {
		if strings.HasPrefix(key, prefix) {
			copied := *o
			result[key] = &copied
		}
	}
	return result, nil
}

// SetSetError sets up an error to be returned by Set
func (m *MockStorage) SetSetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErr = err
}

// SetSetErrorFor makes Set fail with err only for key.
func (m *MockStorage) SetSetErrorFor(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErr = err
	m.errKey = key
}

// put stores an override directly, bypassing the Manager's type checks.
func (m *MockStorage) put(o *Override) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[o.Profile]; !exists {
		m.data[o.Profile] = make(map[string]*Override)
	}
	m.data[o.Profile][o.Key] = o
}

func (m *MockStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// mockCacheEntry holds a value and an error for a cache key.
// This allows tests to pre-configure specific return values and errors for MockCache.Get.
type mockCacheEntry struct {
	value []byte
	err   error
}

// MockCache implements the Cache interface for testing
type MockCache struct {
	mu     sync.RWMutex
	data   map[string]mockCacheEntry
	closed bool
	hits   int
}

// NewMockCache creates a new MockCache for testing.
func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string]mockCacheEntry),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	_, _ = ctx.Deadline()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrCacheUnavailable
	}

	entry, exists := m.data[key]
	if !exists {
		return nil, ErrCacheMiss
	}
	if entry.err != nil {
		return entry.value, entry.err
	}
	m.hits++
	return entry.value, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, _ = ctx.Deadline()
	_ = ttl // TTL is ignored in this mock implementation

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrCacheUnavailable
	}

	m.data[key] = mockCacheEntry{value: value}
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	_, _ = ctx.Deadline()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrCacheUnavailable
	}

	if _, exists := m.data[key]; exists {
		delete(m.data, key)
		return nil
	}
	return ErrCacheMiss
}

func (m *MockCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockCache) has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}

// MockLogger implements the Logger interface for testing
type MockLogger struct {
	mu       sync.Mutex
	Messages []string
}

func (m *MockLogger) Debug(msg string, args ...any) {
	m.record("DEBUG", msg, args...)
}

func (m *MockLogger) Info(msg string, args ...any) {
	m.record("INFO", msg, args...)
}

func (m *MockLogger) Warn(msg string, args ...any) {
	m.record("WARN", msg, args...)
}

func (m *MockLogger) Error(msg string, args ...any) {
	m.record("ERROR", msg, args...)
}

// SetLevel records the attempt to set the log level for test verification.
func (m *MockLogger) SetLevel(level LogLevel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, fmt.Sprintf("SET_LEVEL: %v", level))
}

func (m *MockLogger) record(level, msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, formatMessage(level, msg, args...))
}

func (m *MockLogger) contains(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.Messages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func formatMessage(level, msg string, args ...any) string {
	if len(args) > 0 {
		return fmt.Sprintf("%s: %s %v", level, msg, args)
	}
	return fmt.Sprintf("%s: %s", level, msg)
}

var (
	_ Storage = (*MockStorage)(nil)
	_ Cache   = (*MockCache)(nil)
	_ Logger  = (*MockLogger)(nil)
)
