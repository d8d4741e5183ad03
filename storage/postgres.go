package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/CreativeUnicorns/extprefs"
)

// sqlOpenFunc is a package-level variable that can be overridden for testing.
var sqlOpenFunc = sql.Open

const (
	createTableSQL = `
		CREATE TABLE IF NOT EXISTS pref_overrides (
			profile TEXT NOT NULL,
			key TEXT NOT NULL,
			value JSONB NOT NULL,
			type TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (profile, key)
		);
	`

	upsertSQL = `
		INSERT INTO pref_overrides (profile, key, value, type, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (profile, key)
		DO UPDATE SET value = $3, type = $4, updated_at = $5
	`

	selectSQL = `
		SELECT profile, key, value, type, updated_at
		FROM pref_overrides
		WHERE profile = $1 AND key = $2
	`

	selectAllSQL = `
		SELECT profile, key, value, type, updated_at
		FROM pref_overrides
		WHERE profile = $1
	`

	selectByPrefixSQL = `
		SELECT profile, key, value, type, updated_at
		FROM pref_overrides
		WHERE profile = $1 AND substr(key, 1, length($2)) = $2
	`

	deleteSQL = `
		DELETE FROM pref_overrides
		WHERE profile = $1 AND key = $2
	`
)

// PostgresStorage implements the Storage interface using PostgreSQL.
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage initializes a new PostgresStorage instance.
// It connects to the PostgreSQL database using the provided connection string and runs migrations.
func NewPostgresStorage(connString string) (*PostgresStorage, error) {
	db, err := sqlOpenFunc("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close() // Attempt to close if ping fails
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}

	storage := &PostgresStorage{db: db}
	if err := storage.migrate(); err != nil {
		db.Close() // Attempt to close if migration fails
		return nil, fmt.Errorf("postgres: failed to run migrations: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) migrate() error {
	if _, err := s.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("postgres: failed to execute create table statement: %w", err)
	}
	return nil
}

// Get retrieves the override of key for profile.
// It returns extprefs.ErrNoOverride if none is stored.
func (s *PostgresStorage) Get(ctx context.Context, profile, key string) (*extprefs.Override, error) {
	o, err := scanOverride(s.db.QueryRowContext(ctx, selectSQL, profile, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, extprefs.ErrNoOverride
	}
	if errors.Is(err, extprefs.ErrSerialization) {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to scan override for profile '%s', key '%s': %w", profile, key, err)
	}
	return o, nil
}

// Set stores or replaces an override.
func (s *PostgresStorage) Set(ctx context.Context, o *extprefs.Override) error {
	valueJSON, typ, err := encodeValue(o)
	if err != nil {
		return err
	}

	updatedAt := o.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	if _, err := s.db.ExecContext(ctx, upsertSQL, o.Profile, o.Key, valueJSON, typ, updatedAt); err != nil {
		return fmt.Errorf("postgres: failed to execute upsert for profile '%s', key '%s': %w", o.Profile, o.Key, err)
	}
	return nil
}

// GetAll retrieves all overrides for profile.
func (s *PostgresStorage) GetAll(ctx context.Context, profile string) (map[string]*extprefs.Override, error) {
	rows, err := s.db.QueryContext(ctx, selectAllSQL, profile)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query overrides for profile '%s': %w", profile, err)
	}
	return scanOverrides(rows)
}

// GetByPrefix retrieves the overrides for profile whose key starts with prefix.
func (s *PostgresStorage) GetByPrefix(ctx context.Context, profile, prefix string) (map[string]*extprefs.Override, error) {
	rows, err := s.db.QueryContext(ctx, selectByPrefixSQL, profile, prefix)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query overrides for profile '%s', prefix '%s': %w", profile, prefix, err)
	}
	return scanOverrides(rows)
}

// Delete removes the override of key for profile.
// It returns extprefs.ErrNoOverride if none is stored.
func (s *PostgresStorage) Delete(ctx context.Context, profile, key string) error {
	result, err := s.db.ExecContext(ctx, deleteSQL, profile, key)
	if err != nil {
		return fmt.Errorf("postgres: failed to execute delete for profile '%s', key '%s': %w", profile, key, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return extprefs.ErrNoOverride
	}
	return nil
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
