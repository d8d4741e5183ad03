// Package extprefs defines interfaces for storage and caching used by the override layer.
package extprefs

import (
	"context"
	"time"
)

// Storage defines the methods required for an override storage backend.
// Get returns ErrNoOverride when the profile has no override for key.
type Storage interface {
	Get(ctx context.Context, profile, key string) (*Override, error)
	Set(ctx context.Context, o *Override) error
	Delete(ctx context.Context, profile, key string) error
	GetAll(ctx context.Context, profile string) (map[string]*Override, error)
	GetByPrefix(ctx context.Context, profile, prefix string) (map[string]*Override, error)
	Close() error
}

// Cache defines the methods required for a caching backend.
// Get returns ErrCacheMiss for absent or expired keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
