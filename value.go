package extprefs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Value is a tagged preference value holding exactly one of a boolean, an integer or a
// string. The zero Value is untyped and is never stored in a registry.
type Value struct {
	typ Type
	b   bool
	i   int64
	s   string
}

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{typ: BoolType, b: b} }

// IntValue returns an integer Value.
func IntValue(i int64) Value { return Value{typ: IntType, i: i} }

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{typ: StringType, s: s} }

// Type returns the value's type, or "" for the zero Value.
func (v Value) Type() Type { return v.typ }

// IsZero reports whether v carries no value.
func (v Value) IsZero() bool { return v.typ == "" }

// AsBool returns the boolean held by v and whether v is a boolean.
func (v Value) AsBool() (bool, bool) { return v.b, v.typ == BoolType }

// AsInt returns the integer held by v and whether v is an integer.
func (v Value) AsInt() (int64, bool) { return v.i, v.typ == IntType }

// AsString returns the string held by v and whether v is a string.
func (v Value) AsString() (string, bool) { return v.s, v.typ == StringType }

// Interface returns the value as a bool, int64 or string, or nil for the zero Value.
func (v Value) Interface() any {
	switch v.typ {
	case BoolType:
		return v.b
	case IntType:
		return v.i
	case StringType:
		return v.s
	}
	return nil
}

// Literal returns the value as it is written in a declaration file.
func (v Value) Literal() string {
	switch v.typ {
	case BoolType:
		return strconv.FormatBool(v.b)
	case IntType:
		return strconv.FormatInt(v.i, 10)
	case StringType:
		return quoteJS(v.s)
	}
	return "undefined"
}

// String implements fmt.Stringer. Strings are returned unquoted.
func (v Value) String() string {
	if v.typ == StringType {
		return v.s
	}
	return v.Literal()
}

// MarshalJSON encodes the value as a JSON scalar; the zero Value encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes a JSON scalar. The type is inferred from the JSON kind:
// booleans, integral numbers and strings are accepted, null yields the zero Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if raw == nil {
		*v = Value{}
		return nil
	}
	parsed, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ValueOf converts a Go value into a Value. It accepts bool, string, every signed and
// unsigned integer kind, integral floats, json.Number and Value itself.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case Value:
		if t.IsZero() {
			return Value{}, fmt.Errorf("%w: untyped value", ErrInvalidValue)
		}
		return t, nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int8:
		return IntValue(int64(t)), nil
	case int16:
		return IntValue(int64(t)), nil
	case int32:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case uint:
		return uintValue(uint64(t))
	case uint8:
		return IntValue(int64(t)), nil
	case uint16:
		return IntValue(int64(t)), nil
	case uint32:
		return IntValue(int64(t)), nil
	case uint64:
		return uintValue(t)
	case float32:
		return floatValue(float64(t))
	case float64:
		return floatValue(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return IntValue(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %s is not an integer", ErrInvalidValue, t)
		}
		return floatValue(f)
	case nil:
		return Value{}, fmt.Errorf("%w: nil", ErrInvalidValue)
	}
	return Value{}, fmt.Errorf("%w: unsupported Go type %T", ErrInvalidValue, x)
}

func uintValue(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: %d overflows int64", ErrInvalidValue, u)
	}
	return IntValue(int64(u)), nil
}

func floatValue(f float64) (Value, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return Value{}, fmt.Errorf("%w: %v is not an integer", ErrInvalidValue, f)
	}
	return IntValue(int64(f)), nil
}
