// errors.go
package extprefs

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input parameters")
	ErrInvalidKey         = errors.New("invalid preference key")
	ErrInvalidType        = errors.New("invalid preference type")
	ErrInvalidValue       = errors.New("invalid preference value")
	ErrNotFound           = errors.New("preference not found")
	ErrDuplicateKey       = errors.New("duplicate preference key")
	ErrTypeMismatch       = errors.New("preference type mismatch")
	ErrSyntax             = errors.New("preference declaration syntax error")
	ErrNoOverride         = errors.New("preference override not found")
	ErrSerialization      = errors.New("preference serialization failed")
	ErrStorageUnavailable = errors.New("storage backend unavailable")
	ErrCacheMiss          = errors.New("cache miss")
	ErrCacheUnavailable   = errors.New("cache backend unavailable")
)
