package extprefs

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sync"
)

//go:embed defaults/preferences/autoproxy2.js
var defaultDeclarations []byte

var (
	defaultsOnce     sync.Once
	defaultsRegistry *Registry
)

// DefaultDeclarations returns the embedded autoproxy2 defaults file.
func DefaultDeclarations() []byte {
	out := make([]byte, len(defaultDeclarations))
	copy(out, defaultDeclarations)
	return out
}

// LoadDefaults parses the embedded autoproxy2 defaults into a new Registry.
func LoadDefaults() (*Registry, error) {
	r, err := Load(bytes.NewReader(defaultDeclarations))
	if err != nil {
		return nil, fmt.Errorf("failed to load built-in defaults: %w", err)
	}
	return r, nil
}

// Defaults returns the built-in autoproxy2 registry. The registry is immutable, so a
// single instance is shared. It panics if the embedded file is malformed, which the
// package tests rule out.
func Defaults() *Registry {
	defaultsOnce.Do(func() {
		r, err := LoadDefaults()
		if err != nil {
			panic(err)
		}
		defaultsRegistry = r
	})
	return defaultsRegistry
}

// LoadFile parses a defaults declaration file from disk.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open defaults file: %w", err)
	}
	defer f.Close()

	r, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}
