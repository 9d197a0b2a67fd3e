// Package user provides business operations over user profiles.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coinwatch-bot/coinwatch/internal/domain"
	"github.com/coinwatch-bot/coinwatch/internal/repository"
	"github.com/coinwatch-bot/coinwatch/internal/settings"
	"github.com/coinwatch-bot/coinwatch/pkg/metrics"
)

// SettingsReader is the subset of the settings service the user service needs.
type SettingsReader interface {
	Int(ctx context.Context, key string, fallback int) int
}

// ProfileCache caches full profiles keyed by user id. A nil cache disables
// caching entirely.
type ProfileCache interface {
	Get(ctx context.Context, userID int64) (*domain.User, error)
	Set(ctx context.Context, userID int64, user *domain.User) error
	Invalidate(ctx context.Context, userID int64) error
}

// Service provides business operations over users.
type Service struct {
	repo     repository.UserRepository
	settings SettingsReader
	cache    ProfileCache
	log      *slog.Logger
	now      func() time.Time
}

// NewService constructs a new Service instance. cache may be nil.
func NewService(repo repository.UserRepository, settingsReader SettingsReader, cache ProfileCache, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		settings: settingsReader,
		cache:    cache,
		log:      log,
		now:      time.Now,
	}
}

// Register creates a profile for the supplied identity. The tariff comes
// from the settings store at call time. Registering an id that already
// exists succeeds without touching the stored profile.
func (s *Service) Register(ctx context.Context, params domain.NewUserParams) error {
	start := s.now()

	tariff := s.settings.Int(ctx, settings.KeyTariff, domain.DefaultTariff)

	now := s.now().UTC()
	newUser := &domain.User{
		UserID:         params.UserID,
		DisplayName:    params.DisplayName,
		AccountType:    params.AccountType,
		LanguageCode:   params.LanguageCode,
		TimezoneOffset: params.TimezoneOffset,
		Tariff:         tariff,
		LastLoginAt:    now,
		RegisteredAt:   now,
	}

	result, err := s.repo.Create(ctx, newUser)
	if err != nil {
		s.observe("register", metrics.StatusError, start)
		s.logError("register", params.UserID, err)
		return fmt.Errorf("create user: %w", err)
	}

	if !result.Applied() {
		s.observe("register", metrics.StatusNoop, start)
		if s.log != nil {
			s.log.Debug("user already registered", slog.Int64("user_id", params.UserID))
		}
		return nil
	}

	s.observe("register", metrics.StatusOK, start)
	return nil
}

// Exists reports whether the profile is present, without side effects.
func (s *Service) Exists(ctx context.Context, userID int64) (bool, error) {
	exists, err := s.repo.Exists(ctx, userID)
	if err != nil {
		s.logError("exists", userID, err)
		return false, err
	}

	return exists, nil
}

// Get fetches the full profile, reading through the cache when configured.
// A missing profile is reported as (nil, nil).
func (s *Service) Get(ctx context.Context, userID int64) (*domain.User, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, userID); err == nil && cached != nil {
			return cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		s.logError("get", userID, err)
		return nil, fmt.Errorf("get user: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, user); err != nil && s.log != nil {
			s.log.Warn("failed to cache user profile", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}

	return user, nil
}

// SetPendingInput overwrites the pending-input marker.
func (s *Service) SetPendingInput(ctx context.Context, userID int64, marker string) (domain.ApplyResult, error) {
	return s.applyUpdate(ctx, "set_pending_input", userID, func() (domain.ApplyResult, error) {
		return s.repo.SetPendingInput(ctx, userID, marker)
	})
}

// TouchLogin records a login event at the current time.
func (s *Service) TouchLogin(ctx context.Context, userID int64) (domain.ApplyResult, error) {
	return s.applyUpdate(ctx, "touch_login", userID, func() (domain.ApplyResult, error) {
		return s.repo.TouchLogin(ctx, userID, s.now().UTC())
	})
}

// SetLastBalanceMessage overwrites the tracked balance message handle.
func (s *Service) SetLastBalanceMessage(ctx context.Context, userID int64, messageID int64) (domain.ApplyResult, error) {
	return s.applyUpdate(ctx, "set_last_balance_message", userID, func() (domain.ApplyResult, error) {
		return s.repo.SetLastBalanceMessage(ctx, userID, messageID)
	})
}

// SetBalancePostCount overwrites the counter with an absolute value.
func (s *Service) SetBalancePostCount(ctx context.Context, userID int64, count int64) (domain.ApplyResult, error) {
	return s.applyUpdate(ctx, "set_balance_post_count", userID, func() (domain.ApplyResult, error) {
		return s.repo.SetBalancePostCount(ctx, userID, count)
	})
}

// IncrementBalancePostCount increments the counter atomically in the store.
func (s *Service) IncrementBalancePostCount(ctx context.Context, userID int64) (domain.ApplyResult, error) {
	return s.applyUpdate(ctx, "increment_balance_post_count", userID, func() (domain.ApplyResult, error) {
		return s.repo.IncrementBalancePostCount(ctx, userID)
	})
}

// SetLanguage overwrites the interface language selection.
func (s *Service) SetLanguage(ctx context.Context, userID int64, code string) (domain.ApplyResult, error) {
	return s.applyUpdate(ctx, "set_language", userID, func() (domain.ApplyResult, error) {
		return s.repo.SetLanguage(ctx, userID, code)
	})
}

// SetCurrency overwrites the conversion currency selection.
func (s *Service) SetCurrency(ctx context.Context, userID int64, code string) (domain.ApplyResult, error) {
	return s.applyUpdate(ctx, "set_currency", userID, func() (domain.ApplyResult, error) {
		return s.repo.SetCurrency(ctx, userID, code)
	})
}

// SetTimezone overwrites the UTC-offset selection.
func (s *Service) SetTimezone(ctx context.Context, userID int64, offsetCode int) (domain.ApplyResult, error) {
	return s.applyUpdate(ctx, "set_timezone", userID, func() (domain.ApplyResult, error) {
		return s.repo.SetTimezone(ctx, userID, offsetCode)
	})
}

// ActiveUserIDs returns ids of users whose last login falls within the
// configured recency window. The window is re-read from settings on every
// call; the boundary is inclusive.
func (s *Service) ActiveUserIDs(ctx context.Context) ([]int64, error) {
	days := s.settings.Int(ctx, settings.KeyActivityWindowDays, settings.DefaultActivityWindowDays)

	cutoff := s.now().UTC().AddDate(0, 0, -days)
	ids, err := s.repo.ActiveUserIDs(ctx, cutoff)
	if err != nil {
		s.logError("active_user_ids", 0, err)
		return nil, fmt.Errorf("active user ids: %w", err)
	}

	metrics.SetActiveUsers(len(ids))
	return ids, nil
}

func (s *Service) applyUpdate(ctx context.Context, operation string, userID int64, fn func() (domain.ApplyResult, error)) (domain.ApplyResult, error) {
	start := s.now()

	result, err := fn()
	if err != nil {
		s.observe(operation, metrics.StatusError, start)
		s.logError(operation, userID, err)
		return result, err
	}

	if result.Applied() {
		s.observe(operation, metrics.StatusOK, start)
		s.invalidate(ctx, userID)
	} else {
		s.observe(operation, metrics.StatusNoop, start)
	}

	return result, nil
}

func (s *Service) invalidate(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Invalidate(ctx, userID); err != nil && s.log != nil {
		s.log.Warn("failed to invalidate cached profile", slog.Int64("user_id", userID), slog.Any("error", err))
	}
}

func (s *Service) observe(operation, status string, start time.Time) {
	metrics.RecordOperation(operation, status, s.now().Sub(start))
}

func (s *Service) logError(operation string, userID int64, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("user service operation failed",
		slog.String("operation", operation),
		slog.Int64("user_id", userID),
		slog.Any("error", err),
	)
}
