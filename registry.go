package extprefs

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Registry is an immutable table of declared preferences. It is fully built by
// NewRegistry or Load before it is handed out, so it can be shared by any number of
// readers without coordination. There is no way to change a default after construction.
type Registry struct {
	entries []Entry
	index   map[string]int
}

// NewRegistry builds a registry from entries, preserving their order.
// It fails with ErrInvalidKey for an empty or non-UTF-8 key, ErrInvalidType for an
// untyped default, ErrInvalidValue for a string default that is not valid UTF-8 and
// ErrDuplicateKey when a key is declared twice.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if strings.TrimSpace(e.Key) == "" || !utf8.ValidString(e.Key) {
			return nil, ErrInvalidKey
		}
		if !e.Type().Valid() {
			return nil, fmt.Errorf("%w: %s has no typed default", ErrInvalidType, e.Key)
		}
		if s, ok := e.Default.AsString(); ok && !utf8.ValidString(s) {
			return nil, fmt.Errorf("%w: %s default is not valid UTF-8", ErrInvalidValue, e.Key)
		}
		if _, dup := r.index[e.Key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, e.Key)
		}
		r.index[e.Key] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// Get returns the declared default for key.
// No default is synthesized for undeclared keys: they fail with ErrNotFound.
func (r *Registry) Get(key string) (Value, error) {
	e, ok := r.Lookup(key)
	if !ok {
		return Value{}, notFound(key)
	}
	return e.Default, nil
}

// TypeOf returns the declared type of key, or ErrNotFound.
func (r *Registry) TypeOf(key string) (Type, error) {
	e, ok := r.Lookup(key)
	if !ok {
		return "", notFound(key)
	}
	return e.Type(), nil
}

// GetBool returns the default of a boolean preference.
func (r *Registry) GetBool(key string) (bool, error) {
	v, err := r.typed(key, BoolType)
	if err != nil {
		return false, err
	}
	b, _ := v.AsBool()
	return b, nil
}

// GetInt returns the default of an integer preference.
func (r *Registry) GetInt(key string) (int64, error) {
	v, err := r.typed(key, IntType)
	if err != nil {
		return 0, err
	}
	i, _ := v.AsInt()
	return i, nil
}

// GetString returns the default of a string preference.
func (r *Registry) GetString(key string) (string, error) {
	v, err := r.typed(key, StringType)
	if err != nil {
		return "", err
	}
	s, _ := v.AsString()
	return s, nil
}

// Lookup returns the entry declared for key.
func (r *Registry) Lookup(key string) (Entry, bool) {
	i, ok := r.index[key]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Has reports whether key is declared.
func (r *Registry) Has(key string) bool {
	_, ok := r.index[key]
	return ok
}

// Len returns the number of declared preferences.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Keys returns all declared keys in declaration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.entries))
	for i, e := range r.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of all entries in declaration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// WithPrefix returns the entries whose key starts with prefix, in declaration order.
func (r *Registry) WithPrefix(prefix string) []Entry {
	var out []Entry
	for _, e := range r.entries {
		if strings.HasPrefix(e.Key, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// WriteTo writes the registry in the declaration format, one pref() line per entry.
// Loading the output with Load yields an identical registry.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	decls := make([]Declaration, len(r.entries))
	for i, e := range r.entries {
		decls[i] = Declaration{Func: FuncPref, Key: e.Key, Value: e.Default}
	}
	return WriteDeclarations(w, decls)
}

func (r *Registry) typed(key string, want Type) (Value, error) {
	v, err := r.Get(key)
	if err != nil {
		return Value{}, err
	}
	if v.Type() != want {
		return Value{}, fmt.Errorf("%w: %s is %s, not %s", ErrTypeMismatch, key, v.Type(), want)
	}
	return v, nil
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, key)
}
