package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/coinwatch-bot/coinwatch/internal/domain"
)

// NotificationRepository defines persistence operations for price alerts.
type NotificationRepository interface {
	Insert(ctx context.Context, alert *domain.PriceAlert) error
	Delete(ctx context.Context, id int64) (domain.ApplyResult, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.PriceAlert, error)
	ListByUserAndSymbol(ctx context.Context, userID int64, symbol string) ([]domain.PriceAlert, error)
	ListAll(ctx context.Context) ([]domain.PriceAlert, error)
}

type notificationRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewNotificationRepository creates a new SQL-backed alert repository.
func NewNotificationRepository(db *sql.DB, log *slog.Logger) NotificationRepository {
	return &notificationRepository{
		db:  db,
		log: log,
	}
}

// Insert stores the alert and fills in its assigned id and creation time.
func (r *notificationRepository) Insert(ctx context.Context, alert *domain.PriceAlert) error {
	const query = `
		INSERT INTO crypto_notifications (user_id, crypto_symbol, target_price, trigger_dir, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	row := r.db.QueryRowContext(
		ctx,
		query,
		alert.UserID,
		alert.Symbol,
		alert.TargetPrice,
		string(alert.Trigger),
		alert.Comment,
	)

	if err := row.Scan(&alert.ID, &alert.CreatedAt); err != nil {
		if r.log != nil {
			r.log.Error("failed to insert price alert",
				slog.Int64("user_id", alert.UserID),
				slog.String("symbol", alert.Symbol),
				slog.Any("error", err),
			)
		}
		return fmt.Errorf("insert price alert: %w", err)
	}

	return nil
}

// Delete removes the alert by id; an unknown id is a no-op.
func (r *notificationRepository) Delete(ctx context.Context, id int64) (domain.ApplyResult, error) {
	const query = `DELETE FROM crypto_notifications WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to delete price alert", slog.Int64("id", id), slog.Any("error", err))
		}
		return domain.ResultNotFound, fmt.Errorf("delete price alert: %w", err)
	}

	return applyResult(res)
}

// ListByUser returns the user's alerts newest first.
func (r *notificationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.PriceAlert, error) {
	const query = `
		SELECT id, user_id, crypto_symbol, target_price, trigger_dir, comment, created_at
		FROM crypto_notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	return r.queryAlerts(ctx, query, userID)
}

// ListByUserAndSymbol returns the user's alerts for one symbol, newest first.
func (r *notificationRepository) ListByUserAndSymbol(ctx context.Context, userID int64, symbol string) ([]domain.PriceAlert, error) {
	const query = `
		SELECT id, user_id, crypto_symbol, target_price, trigger_dir, comment, created_at
		FROM crypto_notifications
		WHERE user_id = $1 AND crypto_symbol = $2
		ORDER BY created_at DESC, id DESC
	`

	return r.queryAlerts(ctx, query, userID, symbol)
}

// ListAll returns every stored alert, for the external price poller.
func (r *notificationRepository) ListAll(ctx context.Context) ([]domain.PriceAlert, error) {
	const query = `
		SELECT id, user_id, crypto_symbol, target_price, trigger_dir, comment, created_at
		FROM crypto_notifications
		ORDER BY id
	`

	return r.queryAlerts(ctx, query)
}

func (r *notificationRepository) queryAlerts(ctx context.Context, query string, args ...any) ([]domain.PriceAlert, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select price alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var alerts []domain.PriceAlert
	for rows.Next() {
		var (
			alert   domain.PriceAlert
			trigger string
		)
		if err := rows.Scan(
			&alert.ID,
			&alert.UserID,
			&alert.Symbol,
			&alert.TargetPrice,
			&trigger,
			&alert.Comment,
			&alert.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan price alert: %w", err)
		}
		alert.Trigger = domain.Trigger(trigger)
		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price alerts: %w", err)
	}

	return alerts, nil
}
