// Package reference exposes the static lookup tables (languages, UTC
// offsets, currencies).
package reference

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coinwatch-bot/coinwatch/internal/domain"
	"github.com/coinwatch-bot/coinwatch/internal/repository"
)

// Service filters the reference tables by their visibility flags.
type Service struct {
	repo repository.ReferenceRepository
	log  *slog.Logger
}

// NewService constructs a new Service instance.
func NewService(repo repository.ReferenceRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// VisibleLanguages returns the languages offered to users.
func (s *Service) VisibleLanguages(ctx context.Context) ([]domain.Language, error) {
	all, err := s.repo.Languages(ctx)
	if err != nil {
		return nil, fmt.Errorf("visible languages: %w", err)
	}

	visible := make([]domain.Language, 0, len(all))
	for _, lang := range all {
		if lang.Visible {
			visible = append(visible, lang)
		}
	}

	return visible, nil
}

// VisibleTimeZones returns the UTC offsets offered to users.
func (s *Service) VisibleTimeZones(ctx context.Context) ([]domain.TimeZone, error) {
	all, err := s.repo.TimeZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("visible time zones: %w", err)
	}

	visible := make([]domain.TimeZone, 0, len(all))
	for _, zone := range all {
		if zone.Visible {
			visible = append(visible, zone)
		}
	}

	return visible, nil
}

// VisibleCurrencies returns the currencies offered to users.
func (s *Service) VisibleCurrencies(ctx context.Context) ([]domain.Currency, error) {
	all, err := s.repo.Currencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("visible currencies: %w", err)
	}

	visible := make([]domain.Currency, 0, len(all))
	for _, currency := range all {
		if currency.Visible {
			visible = append(visible, currency)
		}
	}

	return visible, nil
}

// AllLanguages returns every language row regardless of visibility.
// Administrative use.
func (s *Service) AllLanguages(ctx context.Context) ([]domain.Language, error) {
	return s.repo.Languages(ctx)
}

// AllTimeZones returns every time-zone row regardless of visibility.
func (s *Service) AllTimeZones(ctx context.Context) ([]domain.TimeZone, error) {
	return s.repo.TimeZones(ctx)
}

// AllCurrencies returns every currency row regardless of visibility.
func (s *Service) AllCurrencies(ctx context.Context) ([]domain.Currency, error) {
	return s.repo.Currencies(ctx)
}
