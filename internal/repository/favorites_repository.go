package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/coinwatch-bot/coinwatch/internal/domain"
)

// FavoritesRepository defines persistence operations for per-user favorite
// coin symbols. Mutations are single SQL statements, so concurrent add and
// remove calls for the same user serialize on the row without a race window.
type FavoritesRepository interface {
	Add(ctx context.Context, userID int64, symbol string) (domain.ApplyResult, error)
	Remove(ctx context.Context, userID int64, symbol string) (domain.ApplyResult, error)
	ListByUser(ctx context.Context, userID int64) ([]string, error)
	ListUnique(ctx context.Context, since *time.Time) ([]string, error)
}

type favoritesRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewFavoritesRepository creates a new SQL-backed favorites repository.
func NewFavoritesRepository(db *sql.DB, log *slog.Logger) FavoritesRepository {
	return &favoritesRepository{
		db:  db,
		log: log,
	}
}

// Add inserts the symbol into the user's set. The statement is a no-op when
// the symbol is already a member or the user does not exist.
func (r *favoritesRepository) Add(ctx context.Context, userID int64, symbol string) (domain.ApplyResult, error) {
	const query = `
		INSERT INTO user_favorites (user_id, symbol)
		SELECT $1, $2
		WHERE EXISTS (SELECT 1 FROM users WHERE user_id = $1)
		ON CONFLICT (user_id, symbol) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query, userID, symbol)
	if err != nil {
		r.logError("add favorite", userID, symbol, err)
		return domain.ResultNotFound, fmt.Errorf("insert favorite: %w", err)
	}

	return applyResult(res)
}

// Remove deletes the symbol from the user's set; absent membership is a no-op.
func (r *favoritesRepository) Remove(ctx context.Context, userID int64, symbol string) (domain.ApplyResult, error) {
	const query = `DELETE FROM user_favorites WHERE user_id = $1 AND symbol = $2`

	res, err := r.db.ExecContext(ctx, query, userID, symbol)
	if err != nil {
		r.logError("remove favorite", userID, symbol, err)
		return domain.ResultNotFound, fmt.Errorf("delete favorite: %w", err)
	}

	return applyResult(res)
}

// ListByUser returns the user's favorites sorted for determinism.
func (r *favoritesRepository) ListByUser(ctx context.Context, userID int64) ([]string, error) {
	const query = `SELECT symbol FROM user_favorites WHERE user_id = $1 ORDER BY symbol`

	return r.querySymbols(ctx, query, userID)
}

// ListUnique returns the distinct sorted union of all favorited symbols.
// A non-nil since restricts the union to users who logged in at or after it.
func (r *favoritesRepository) ListUnique(ctx context.Context, since *time.Time) ([]string, error) {
	if since == nil {
		const query = `SELECT DISTINCT symbol FROM user_favorites ORDER BY symbol`
		return r.querySymbols(ctx, query)
	}

	const query = `
		SELECT DISTINCT f.symbol
		FROM user_favorites f
		JOIN users u ON u.user_id = f.user_id
		WHERE u.last_login_at >= $1
		ORDER BY f.symbol
	`

	return r.querySymbols(ctx, query, *since)
}

func (r *favoritesRepository) querySymbols(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select favorites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("scan favorite symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}

	return symbols, nil
}

func (r *favoritesRepository) logError(operation string, userID int64, symbol string, err error) {
	if r.log == nil {
		return
	}

	r.log.Error("favorites repository operation failed",
		slog.String("operation", operation),
		slog.Int64("user_id", userID),
		slog.String("symbol", symbol),
		slog.Any("error", err),
	)
}
