// validation.go
package extprefs

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// coerceValue converts raw into a Value of the entry's declared type.
// A preference never changes type, so any other kind is ErrTypeMismatch.
func coerceValue(raw any, e Entry) (Value, error) {
	v, err := ValueOf(raw)
	if err != nil {
		return Value{}, err
	}
	if v.Type() != e.Type() {
		return Value{}, fmt.Errorf("%w: %s expects %s, got %s", ErrTypeMismatch, e.Key, e.Type(), v.Type())
	}
	return v, nil
}

func validateValue(v Value, e Entry, validators map[string]Validator) error {
	if v.Type() != e.Type() {
		return fmt.Errorf("%w: %s expects %s, got %s", ErrTypeMismatch, e.Key, e.Type(), v.Type())
	}
	if s, ok := v.AsString(); ok && !utf8.ValidString(s) {
		return fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidValue, e.Key)
	}
	if fn, ok := validators[e.Key]; ok && fn != nil {
		if err := fn(v); err != nil {
			return fmt.Errorf("%s: %w", e.Key, err)
		}
	}
	return nil
}

// builtinValidators returns the checks for the autoproxy2 keys whose values carry more
// structure than their type.
func builtinValidators() map[string]Validator {
	return map[string]Validator{
		KeyDefaultToolbarAction:        nonNegative,
		KeyDefaultStatusBarAction:      nonNegative,
		KeyPatternsBackups:             nonNegative,
		KeyPatternsBackupInterval:      nonNegative,
		KeySubscriptionsFallbackErrors: nonNegative,
		KeyComposerDefault:             nonNegative,
		KeyDataDirectory:               nonBlank,
		KeyRecentReports: func(v Value) error {
			s, _ := v.AsString()
			_, err := DecodeRecentReports(s)
			return err
		},
	}
}

func nonNegative(v Value) error {
	if i, ok := v.AsInt(); ok && i < 0 {
		return fmt.Errorf("%w: must not be negative, got %d", ErrInvalidValue, i)
	}
	return nil
}

func nonBlank(v Value) error {
	if s, ok := v.AsString(); ok && strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: must not be blank", ErrInvalidValue)
	}
	return nil
}
