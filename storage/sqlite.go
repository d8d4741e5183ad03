package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/CreativeUnicorns/extprefs"
)

const (
	sqliteCreateTableSQL = `
		CREATE TABLE IF NOT EXISTS pref_overrides (
			profile TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			type TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (profile, key)
		);
	`

	sqliteUpsertSQL = `
		INSERT INTO pref_overrides (profile, key, value, type, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(profile, key)
		DO UPDATE SET value = excluded.value, type = excluded.type, updated_at = excluded.updated_at
	`

	sqliteSelectSQL = `
		SELECT profile, key, value, type, updated_at
		FROM pref_overrides
		WHERE profile = ? AND key = ?
	`

	sqliteSelectAllSQL = `
		SELECT profile, key, value, type, updated_at
		FROM pref_overrides
		WHERE profile = ?
	`

	sqliteSelectByPrefixSQL = `
		SELECT profile, key, value, type, updated_at
		FROM pref_overrides
		WHERE profile = ? AND substr(key, 1, length(?)) = ?
	`

	sqliteDeleteSQL = `
		DELETE FROM pref_overrides
		WHERE profile = ? AND key = ?
	`
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage initializes a new SQLiteStorage instance.
// It opens the SQLite database at the specified path and runs migrations.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to ping database: %w", err)
	}

	storage := &SQLiteStorage{db: db}
	if err := storage.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to run migrations: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) migrate() error {
	_, err := s.db.Exec(sqliteCreateTableSQL)
	return err
}

// Get retrieves the override of key for profile.
// It returns extprefs.ErrNoOverride if none is stored.
func (s *SQLiteStorage) Get(ctx context.Context, profile, key string) (*extprefs.Override, error) {
	o, err := scanOverride(s.db.QueryRowContext(ctx, sqliteSelectSQL, profile, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, extprefs.ErrNoOverride
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get override %s for profile %s: %w", key, profile, err)
	}
	return o, nil
}

// Set stores or replaces an override. The value is stored as JSON next to its type name.
func (s *SQLiteStorage) Set(ctx context.Context, o *extprefs.Override) error {
	valueJSON, typ, err := encodeValue(o)
	if err != nil {
		return err
	}

	updatedAt := o.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	if _, err := s.db.ExecContext(ctx, sqliteUpsertSQL, o.Profile, o.Key, valueJSON, typ, updatedAt); err != nil {
		return fmt.Errorf("sqlite: failed to set override %s for profile %s: %w", o.Key, o.Profile, err)
	}
	return nil
}

// GetAll retrieves all overrides for profile.
func (s *SQLiteStorage) GetAll(ctx context.Context, profile string) (map[string]*extprefs.Override, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectAllSQL, profile)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query overrides: %w", err)
	}
	return scanOverrides(rows)
}

// GetByPrefix retrieves the overrides for profile whose key starts with prefix.
// The prefix is matched literally; LIKE wildcards in keys have no special meaning.
func (s *SQLiteStorage) GetByPrefix(ctx context.Context, profile, prefix string) (map[string]*extprefs.Override, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectByPrefixSQL, profile, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query overrides: %w", err)
	}
	return scanOverrides(rows)
}

// Delete removes the override of key for profile.
// It returns extprefs.ErrNoOverride if none is stored.
func (s *SQLiteStorage) Delete(ctx context.Context, profile, key string) error {
	result, err := s.db.ExecContext(ctx, sqliteDeleteSQL, profile, key)
	if err != nil {
		return fmt.Errorf("sqlite: failed to delete override: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return extprefs.ErrNoOverride
	}
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
