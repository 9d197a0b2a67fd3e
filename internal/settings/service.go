// Package settings exposes the runtime key-value configuration store with
// typed reads and documented defaults.
package settings

import (
	"context"
	"log/slog"
	"strconv"

	apperrors "github.com/coinwatch-bot/coinwatch/internal/errors"
	"github.com/coinwatch-bot/coinwatch/internal/repository"
)

// Well-known settings keys.
const (
	// KeyTariff is the plan id assigned to newly registered users.
	KeyTariff = "tariff"
	// KeyActivityWindowDays is the recency window, in days, used by the
	// active-users query.
	KeyActivityWindowDays = "last_activity_autoupdate"
)

// Defaults applied when a key is absent or unparsable.
const (
	DefaultActivityWindowDays = 10
)

// Service provides typed access to the settings table. Values are re-read
// on every call so administrative updates take effect immediately.
type Service struct {
	repo repository.SettingsRepository
	log  *slog.Logger
}

// NewService constructs a new Service instance.
func NewService(repo repository.SettingsRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// String returns the value for key, or fallback when the key is absent.
// Read errors also resolve to fallback so a settings hiccup never fails the
// calling operation.
func (s *Service) String(ctx context.Context, key, fallback string) string {
	raw, ok, err := s.repo.Get(ctx, key)
	if err != nil || !ok {
		s.logFallback(key, fallback, err)
		return fallback
	}

	return raw
}

// Int returns the value for key parsed as an integer, or fallback when the
// key is absent or unparsable.
func (s *Service) Int(ctx context.Context, key string, fallback int) int {
	raw, ok, err := s.repo.Get(ctx, key)
	if err != nil || !ok {
		s.logFallback(key, fallback, err)
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		s.logFallback(key, fallback, err)
		return fallback
	}

	return value
}

// Bool returns the value for key parsed as a boolean, or fallback when the
// key is absent or unparsable.
func (s *Service) Bool(ctx context.Context, key string, fallback bool) bool {
	raw, ok, err := s.repo.Get(ctx, key)
	if err != nil || !ok {
		s.logFallback(key, fallback, err)
		return fallback
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		s.logFallback(key, fallback, err)
		return fallback
	}

	return value
}

// Set overwrites the value for key. Administrative path only.
func (s *Service) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return apperrors.NewValidationError("settings key must not be empty")
	}

	if err := s.repo.Set(ctx, key, value); err != nil {
		return apperrors.NewConfigError(key, err)
	}

	return nil
}

func (s *Service) logFallback(key string, fallback any, err error) {
	if s.log == nil {
		return
	}

	s.log.Debug("setting resolved to fallback",
		slog.String("key", key),
		slog.Any("fallback", fallback),
		slog.Any("error", err),
	)
}
