package extprefs

import "fmt"

// Type is the declared data type of a preference. A key's type is fixed by its
// default value and never changes.
type Type string

// Constants for the preference types the declaration format can express.
const (
	// BoolType represents a preference value that is true or false.
	BoolType Type = "boolean"
	// IntType represents a preference value that is a signed integer.
	IntType Type = "integer"
	// StringType represents a preference value that is a string, including URL
	// templates and serialized structures such as recentReports.
	StringType Type = "string"
)

// Valid reports whether t is one of the declared preference types.
func (t Type) Valid() bool {
	switch t {
	case BoolType, IntType, StringType:
		return true
	}
	return false
}

// ParseType converts a type name into a Type.
// It accepts the canonical names as well as the short forms "bool" and "int".
func ParseType(s string) (Type, error) {
	switch s {
	case "boolean", "bool":
		return BoolType, nil
	case "integer", "int":
		return IntType, nil
	case "string":
		return StringType, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

// Entry is a single declared preference: a unique dotted key and its default value.
type Entry struct {
	// Key is the namespaced identifier, e.g. "extensions.autoproxy2.enabled".
	Key string `json:"key"`
	// Default is the declared default. Its type is the entry's type.
	Default Value `json:"default"`
}

// Type returns the declared type of the entry.
func (e Entry) Type() Type {
	return e.Default.Type()
}
