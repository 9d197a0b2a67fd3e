package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/coinwatch-bot/coinwatch/internal/domain"
)

// ReferenceRepository reads the static lookup tables. The tables are seeded
// by migration and only change through administrative SQL, so every method
// is a plain read.
type ReferenceRepository interface {
	Languages(ctx context.Context) ([]domain.Language, error)
	TimeZones(ctx context.Context) ([]domain.TimeZone, error)
	Currencies(ctx context.Context) ([]domain.Currency, error)
}

type referenceRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewReferenceRepository creates a new SQL-backed reference-data repository.
func NewReferenceRepository(db *sql.DB, log *slog.Logger) ReferenceRepository {
	return &referenceRepository{
		db:  db,
		log: log,
	}
}

// Languages returns every supported interface language.
func (r *referenceRepository) Languages(ctx context.Context) ([]domain.Language, error) {
	const query = `SELECT name, code, is_visible FROM languages ORDER BY code`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select languages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var languages []domain.Language
	for rows.Next() {
		var lang domain.Language
		if err := rows.Scan(&lang.Name, &lang.Code, &lang.Visible); err != nil {
			return nil, fmt.Errorf("scan language: %w", err)
		}
		languages = append(languages, lang)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate languages: %w", err)
	}

	return languages, nil
}

// TimeZones returns every UTC-offset descriptor.
func (r *referenceRepository) TimeZones(ctx context.Context) ([]domain.TimeZone, error) {
	const query = `SELECT offset_code, is_visible, language_codes, description FROM time_zones ORDER BY offset_code`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select time zones: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var zones []domain.TimeZone
	for rows.Next() {
		var zone domain.TimeZone
		if err := rows.Scan(
			&zone.OffsetCode,
			&zone.Visible,
			pq.Array(&zone.LanguageCodes),
			&zone.Description,
		); err != nil {
			return nil, fmt.Errorf("scan time zone: %w", err)
		}
		zones = append(zones, zone)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time zones: %w", err)
	}

	return zones, nil
}

// Currencies returns every supported conversion currency.
func (r *referenceRepository) Currencies(ctx context.Context) ([]domain.Currency, error) {
	const query = `SELECT name, code, is_visible FROM currencies ORDER BY code`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select currencies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var currencies []domain.Currency
	for rows.Next() {
		var currency domain.Currency
		if err := rows.Scan(&currency.Name, &currency.Code, &currency.Visible); err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		currencies = append(currencies, currency)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate currencies: %w", err)
	}

	return currencies, nil
}
