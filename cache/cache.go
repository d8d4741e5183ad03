// Package cache provides Cache backends for resolved preference overrides: an
// in-memory map with expiry and Redis.
package cache

import (
	"github.com/CreativeUnicorns/extprefs"
)

var (
	_ extprefs.Cache = (*MemoryCache)(nil)
	_ extprefs.Cache = (*RedisCache)(nil)
)
