package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// SettingsRepository defines persistence operations for the key-value
// settings table.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type settingsRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSettingsRepository creates a new SQL-backed settings repository.
func NewSettingsRepository(db *sql.DB, log *slog.Logger) SettingsRepository {
	return &settingsRepository{
		db:  db,
		log: log,
	}
}

// Get returns the raw value for key and whether the key is present.
func (r *settingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM settings WHERE key = $1`

	var value string
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}

		if r.log != nil {
			r.log.Error("failed to read setting", slog.String("key", key), slog.Any("error", err))
		}
		return "", false, fmt.Errorf("select setting: %w", err)
	}

	return value, true, nil
}

// Set upserts the value for key. Administrative path only.
func (r *settingsRepository) Set(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		if r.log != nil {
			r.log.Error("failed to write setting", slog.String("key", key), slog.Any("error", err))
		}
		return fmt.Errorf("upsert setting: %w", err)
	}

	return nil
}
