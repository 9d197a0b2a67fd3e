// Package favorites manages the per-user set of tracked coin symbols.
package favorites

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/coinwatch-bot/coinwatch/internal/domain"
	apperrors "github.com/coinwatch-bot/coinwatch/internal/errors"
	"github.com/coinwatch-bot/coinwatch/internal/repository"
	"github.com/coinwatch-bot/coinwatch/pkg/metrics"
)

// Service provides idempotent set operations over favorite coins. Symbols
// are stored verbatim; callers that want case folding do it themselves.
type Service struct {
	repo repository.FavoritesRepository
	log  *slog.Logger
	now  func() time.Time
}

// NewService constructs a new Service instance.
func NewService(repo repository.FavoritesRepository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Add puts symbol into the user's favorites. Adding a symbol that is
// already a member, or adding for an unknown user, changes nothing and is
// not an error.
func (s *Service) Add(ctx context.Context, userID int64, symbol string) (domain.ApplyResult, error) {
	if strings.TrimSpace(symbol) == "" {
		return domain.ResultNotFound, apperrors.NewValidationError("favorite symbol must not be empty")
	}

	start := s.now()
	result, err := s.repo.Add(ctx, userID, symbol)
	if err != nil {
		metrics.RecordOperation("add_favorite", metrics.StatusError, s.now().Sub(start))
		s.logError("add", userID, symbol, err)
		return result, fmt.Errorf("add favorite: %w", err)
	}

	metrics.RecordOperation("add_favorite", statusFor(result), s.now().Sub(start))
	return result, nil
}

// Remove deletes symbol from the user's favorites; absent membership is a
// no-op.
func (s *Service) Remove(ctx context.Context, userID int64, symbol string) (domain.ApplyResult, error) {
	start := s.now()
	result, err := s.repo.Remove(ctx, userID, symbol)
	if err != nil {
		metrics.RecordOperation("remove_favorite", metrics.StatusError, s.now().Sub(start))
		s.logError("remove", userID, symbol, err)
		return result, fmt.Errorf("remove favorite: %w", err)
	}

	metrics.RecordOperation("remove_favorite", statusFor(result), s.now().Sub(start))
	return result, nil
}

// ListByUser returns one user's favorites, sorted.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]string, error) {
	symbols, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logError("list_by_user", userID, "", err)
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	return symbols, nil
}

// ListUnique returns the distinct sorted union of favorites across users
// whose last login falls within activeWithinDays. Zero disables the filter.
func (s *Service) ListUnique(ctx context.Context, activeWithinDays int) ([]string, error) {
	var since *time.Time
	if activeWithinDays > 0 {
		cutoff := s.now().UTC().AddDate(0, 0, -activeWithinDays)
		since = &cutoff
	}

	symbols, err := s.repo.ListUnique(ctx, since)
	if err != nil {
		s.logError("list_unique", 0, "", err)
		return nil, fmt.Errorf("list unique favorites: %w", err)
	}

	return symbols, nil
}

func statusFor(result domain.ApplyResult) string {
	if result.Applied() {
		return metrics.StatusOK
	}
	return metrics.StatusNoop
}

func (s *Service) logError(operation string, userID int64, symbol string, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("favorites service operation failed",
		slog.String("operation", operation),
		slog.Int64("user_id", userID),
		slog.String("symbol", symbol),
		slog.Any("error", err),
	)
}
