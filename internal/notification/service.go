// Package notification manages price-threshold alert rules.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coinwatch-bot/coinwatch/internal/domain"
	apperrors "github.com/coinwatch-bot/coinwatch/internal/errors"
	"github.com/coinwatch-bot/coinwatch/internal/repository"
	"github.com/coinwatch-bot/coinwatch/pkg/metrics"
)

// Service validates and persists price alerts.
type Service struct {
	repo repository.NotificationRepository
	log  *slog.Logger
	now  func() time.Time
}

// NewService constructs a new Service instance.
func NewService(repo repository.NotificationRepository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Add validates the trigger direction, normalizes the symbol to uppercase
// and stores the alert. The returned alert carries its assigned id and
// creation time. A direction outside >, <, = is rejected before any write.
func (s *Service) Add(ctx context.Context, userID int64, symbol string, targetPrice decimal.Decimal, direction string, comment string) (*domain.PriceAlert, error) {
	start := s.now()

	trigger, err := domain.ParseTrigger(direction)
	if err != nil {
		metrics.RecordOperation("add_notification", metrics.StatusRejected, s.now().Sub(start))
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("trigger direction %q is not one of >, <, =", direction),
		)
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		metrics.RecordOperation("add_notification", metrics.StatusRejected, s.now().Sub(start))
		return nil, apperrors.NewValidationError("crypto symbol must not be empty")
	}

	alert := &domain.PriceAlert{
		UserID:      userID,
		Symbol:      symbol,
		TargetPrice: targetPrice,
		Trigger:     trigger,
		Comment:     comment,
	}

	if err := s.repo.Insert(ctx, alert); err != nil {
		metrics.RecordOperation("add_notification", metrics.StatusError, s.now().Sub(start))
		s.logError("add", userID, err)
		return nil, fmt.Errorf("add notification: %w", err)
	}

	metrics.RecordOperation("add_notification", metrics.StatusOK, s.now().Sub(start))
	return alert, nil
}

// Delete removes the alert by id; deleting an unknown id is a no-op.
func (s *Service) Delete(ctx context.Context, id int64) (domain.ApplyResult, error) {
	start := s.now()

	result, err := s.repo.Delete(ctx, id)
	if err != nil {
		metrics.RecordOperation("delete_notification", metrics.StatusError, s.now().Sub(start))
		s.logError("delete", 0, err)
		return result, fmt.Errorf("delete notification: %w", err)
	}

	status := metrics.StatusNoop
	if result.Applied() {
		status = metrics.StatusOK
	}
	metrics.RecordOperation("delete_notification", status, s.now().Sub(start))

	return result, nil
}

// ListByUser returns the user's alerts, newest first.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]domain.PriceAlert, error) {
	alerts, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logError("list_by_user", userID, err)
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return alerts, nil
}

// ListByUserAndSymbol returns the user's alerts for one symbol, newest
// first. The symbol is matched in its stored uppercase form.
func (s *Service) ListByUserAndSymbol(ctx context.Context, userID int64, symbol string) ([]domain.PriceAlert, error) {
	alerts, err := s.repo.ListByUserAndSymbol(ctx, userID, strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		s.logError("list_by_user_and_symbol", userID, err)
		return nil, fmt.Errorf("list notifications by symbol: %w", err)
	}

	return alerts, nil
}

// ListAll returns every stored alert for the external price poller.
func (s *Service) ListAll(ctx context.Context) ([]domain.PriceAlert, error) {
	alerts, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logError("list_all", 0, err)
		return nil, fmt.Errorf("list all notifications: %w", err)
	}

	return alerts, nil
}

func (s *Service) logError(operation string, userID int64, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("notification service operation failed",
		slog.String("operation", operation),
		slog.Int64("user_id", userID),
		slog.Any("error", err),
	)
}
