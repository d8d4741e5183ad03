// Package storage provides Storage backends that persist per-profile preference
// overrides: an in-memory map, SQLite and PostgreSQL.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/CreativeUnicorns/extprefs"
)

var (
	_ extprefs.Storage = (*MemoryStorage)(nil)
	_ extprefs.Storage = (*SQLiteStorage)(nil)
	_ extprefs.Storage = (*PostgresStorage)(nil)
)

// encodeValue returns the JSON form of an override value and its type name.
func encodeValue(o *extprefs.Override) (string, string, error) {
	if o.Value.IsZero() {
		return "", "", fmt.Errorf("%w: override %s has no value", extprefs.ErrSerialization, o.Key)
	}
	data, err := json.Marshal(o.Value)
	if err != nil {
		return "", "", fmt.Errorf("%w: override %s: %v", extprefs.ErrSerialization, o.Key, err)
	}
	return string(data), string(o.Value.Type()), nil
}

// decodeValue restores a stored value and checks it against the recorded type.
func decodeValue(key string, data []byte, typ string) (extprefs.Value, error) {
	var v extprefs.Value
	if err := json.Unmarshal(data, &v); err != nil {
		return extprefs.Value{}, fmt.Errorf("%w: override %s: %v", extprefs.ErrSerialization, key, err)
	}
	if v.Type() != extprefs.Type(typ) {
		return extprefs.Value{}, fmt.Errorf("%w: override %s stored as %s, decoded as %q", extprefs.ErrSerialization, key, typ, v.Type())
	}
	return v, nil
}

// scanOverrides reads (profile, key, value, type, updated_at) rows and closes them.
func scanOverrides(rows *sql.Rows) (map[string]*extprefs.Override, error) {
	defer rows.Close()

	overrides := make(map[string]*extprefs.Override)
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan override row: %w", err)
		}
		overrides[o.Key] = o
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating override rows: %w", err)
	}
	return overrides, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOverride(row rowScanner) (*extprefs.Override, error) {
	var (
		o         extprefs.Override
		valueJSON []byte
		typ       string
	)
	if err := row.Scan(&o.Profile, &o.Key, &valueJSON, &typ, &o.UpdatedAt); err != nil {
		return nil, err
	}

	v, err := decodeValue(o.Key, valueJSON, typ)
	if err != nil {
		return nil, err
	}
	o.Value = v
	return &o, nil
}
