package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coinwatch-bot/coinwatch/internal/domain"
)

// UserRepository defines persistence operations for user profiles.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (domain.ApplyResult, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	SetPendingInput(ctx context.Context, id int64, marker string) (domain.ApplyResult, error)
	TouchLogin(ctx context.Context, id int64, at time.Time) (domain.ApplyResult, error)
	SetLastBalanceMessage(ctx context.Context, id int64, messageID int64) (domain.ApplyResult, error)
	SetBalancePostCount(ctx context.Context, id int64, count int64) (domain.ApplyResult, error)
	IncrementBalancePostCount(ctx context.Context, id int64) (domain.ApplyResult, error)
	SetLanguage(ctx context.Context, id int64, code string) (domain.ApplyResult, error)
	SetCurrency(ctx context.Context, id int64, code string) (domain.ApplyResult, error)
	SetTimezone(ctx context.Context, id int64, offsetCode int) (domain.ApplyResult, error)
	ActiveUserIDs(ctx context.Context, since time.Time) ([]int64, error)
}

type userRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewUserRepository creates a new SQL-backed user repository.
func NewUserRepository(db *sql.DB, log *slog.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log,
	}
}

// Create inserts a new profile. A profile with the same user_id already in
// place is left untouched and reported as ResultNotFound without error.
func (r *userRepository) Create(ctx context.Context, user *domain.User) (domain.ApplyResult, error) {
	const query = `
		INSERT INTO users (
			user_id, display_name, account_type, language_code, currency_code,
			tariff, timezone_offset, pending_input,
			last_balance_msg_id, balance_post_count, last_login_at, registered_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO NOTHING
	`

	res, err := r.db.ExecContext(
		ctx,
		query,
		user.UserID,
		user.DisplayName,
		user.AccountType,
		user.LanguageCode,
		user.CurrencyCode,
		user.Tariff,
		user.TimezoneOffset,
		user.PendingInput,
		user.LastBalanceMsgID,
		user.BalancePostCount,
		user.LastLoginAt,
		user.RegisteredAt,
	)
	if err != nil {
		r.logError("create user", user.UserID, err)
		return domain.ResultNotFound, fmt.Errorf("insert user: %w", err)
	}

	return applyResult(res)
}

// FindByID retrieves a user by their external identifier.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
		SELECT user_id, display_name, account_type, language_code, currency_code,
		       tariff, timezone_offset, pending_input,
		       last_balance_msg_id, balance_post_count, last_login_at, registered_at
		FROM users
		WHERE user_id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	var user domain.User
	if err := row.Scan(
		&user.UserID,
		&user.DisplayName,
		&user.AccountType,
		&user.LanguageCode,
		&user.CurrencyCode,
		&user.Tariff,
		&user.TimezoneOffset,
		&user.PendingInput,
		&user.LastBalanceMsgID,
		&user.BalancePostCount,
		&user.LastLoginAt,
		&user.RegisteredAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}

		r.logError("find user", id, err)
		return nil, fmt.Errorf("select user by id: %w", err)
	}

	return &user, nil
}

// Exists reports whether a profile with the given id is present.
func (r *userRepository) Exists(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		r.logError("check user existence", id, err)
		return false, fmt.Errorf("select user existence: %w", err)
	}

	return exists, nil
}

// SetPendingInput overwrites the pending-input marker.
func (r *userRepository) SetPendingInput(ctx context.Context, id int64, marker string) (domain.ApplyResult, error) {
	return r.updateField(ctx, id, "set pending input",
		`UPDATE users SET pending_input = $2 WHERE user_id = $1`, marker)
}

// TouchLogin sets last_login_at to the supplied time.
func (r *userRepository) TouchLogin(ctx context.Context, id int64, at time.Time) (domain.ApplyResult, error) {
	return r.updateField(ctx, id, "touch login",
		`UPDATE users SET last_login_at = $2 WHERE user_id = $1`, at)
}

// SetLastBalanceMessage overwrites the tracked balance message handle.
func (r *userRepository) SetLastBalanceMessage(ctx context.Context, id int64, messageID int64) (domain.ApplyResult, error) {
	return r.updateField(ctx, id, "set last balance message",
		`UPDATE users SET last_balance_msg_id = $2 WHERE user_id = $1`, messageID)
}

// SetBalancePostCount overwrites the counter with an absolute value.
func (r *userRepository) SetBalancePostCount(ctx context.Context, id int64, count int64) (domain.ApplyResult, error) {
	return r.updateField(ctx, id, "set balance post count",
		`UPDATE users SET balance_post_count = $2 WHERE user_id = $1`, count)
}

// IncrementBalancePostCount adds one to the counter in a single statement,
// so concurrent increments for the same user never lose updates.
func (r *userRepository) IncrementBalancePostCount(ctx context.Context, id int64) (domain.ApplyResult, error) {
	const query = `UPDATE users SET balance_post_count = balance_post_count + 1 WHERE user_id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logError("increment balance post count", id, err)
		return domain.ResultNotFound, fmt.Errorf("increment balance post count: %w", err)
	}

	return applyResult(res)
}

// SetLanguage overwrites the interface language selection.
func (r *userRepository) SetLanguage(ctx context.Context, id int64, code string) (domain.ApplyResult, error) {
	return r.updateField(ctx, id, "set language",
		`UPDATE users SET language_code = $2 WHERE user_id = $1`, code)
}

// SetCurrency overwrites the conversion currency selection.
func (r *userRepository) SetCurrency(ctx context.Context, id int64, code string) (domain.ApplyResult, error) {
	return r.updateField(ctx, id, "set currency",
		`UPDATE users SET currency_code = $2 WHERE user_id = $1`, code)
}

// SetTimezone overwrites the UTC-offset selection.
func (r *userRepository) SetTimezone(ctx context.Context, id int64, offsetCode int) (domain.ApplyResult, error) {
	return r.updateField(ctx, id, "set timezone",
		`UPDATE users SET timezone_offset = $2 WHERE user_id = $1`, offsetCode)
}

// ActiveUserIDs returns ids of users whose last login is at or after since.
func (r *userRepository) ActiveUserIDs(ctx context.Context, since time.Time) ([]int64, error) {
	const query = `SELECT user_id FROM users WHERE last_login_at >= $1 ORDER BY user_id`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("select active user ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan active user id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active user ids: %w", err)
	}

	return ids, nil
}

func (r *userRepository) updateField(ctx context.Context, id int64, operation, query string, value any) (domain.ApplyResult, error) {
	res, err := r.db.ExecContext(ctx, query, id, value)
	if err != nil {
		r.logError(operation, id, err)
		return domain.ResultNotFound, fmt.Errorf("%s: %w", operation, err)
	}

	return applyResult(res)
}

func (r *userRepository) logError(operation string, id int64, err error) {
	if r.log == nil {
		return
	}

	r.log.Error("user repository operation failed",
		slog.String("operation", operation),
		slog.Int64("user_id", id),
		slog.Any("error", err),
	)
}

func applyResult(res sql.Result) (domain.ApplyResult, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.ResultNotFound, fmt.Errorf("rows affected: %w", err)
	}

	return domain.ApplyResultFromRows(affected), nil
}
