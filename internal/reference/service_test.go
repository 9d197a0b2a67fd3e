package reference

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/coinwatch-bot/coinwatch/internal/domain"
)

type mockReferenceRepo struct {
	mock.Mock
}

func (m *mockReferenceRepo) Languages(ctx context.Context) ([]domain.Language, error) {
	args := m.Called(ctx)
	langs, _ := args.Get(0).([]domain.Language)
	return langs, args.Error(1)
}

func (m *mockReferenceRepo) TimeZones(ctx context.Context) ([]domain.TimeZone, error) {
	args := m.Called(ctx)
	zones, _ := args.Get(0).([]domain.TimeZone)
	return zones, args.Error(1)
}

func (m *mockReferenceRepo) Currencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	currencies, _ := args.Get(0).([]domain.Currency)
	return currencies, args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_VisibleLanguages(t *testing.T) {
	repo := new(mockReferenceRepo)
	repo.On("Languages", mock.Anything).Return([]domain.Language{
		{Name: "English", Code: "en", Visible: true},
		{Name: "Deutsch", Code: "de", Visible: false},
		{Name: "Русский", Code: "ru", Visible: true},
	}, nil).Once()

	svc := NewService(repo, testLogger())

	langs, err := svc.VisibleLanguages(context.Background())
	require.NoError(t, err)
	require.Len(t, langs, 2)
	assert.Equal(t, "en", langs[0].Code)
	assert.Equal(t, "ru", langs[1].Code)
}

func TestService_VisibleTimeZones(t *testing.T) {
	repo := new(mockReferenceRepo)
	repo.On("TimeZones", mock.Anything).Return([]domain.TimeZone{
		{OffsetCode: 0, Visible: true, LanguageCodes: []string{"en"}, Description: "UTC+0 London"},
		{OffsetCode: 5, Visible: false, LanguageCodes: []string{"ru"}, Description: "UTC+5 Yekaterinburg"},
	}, nil).Once()

	svc := NewService(repo, testLogger())

	zones, err := svc.VisibleTimeZones(context.Background())
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, 0, zones[0].OffsetCode)
	assert.Equal(t, []string{"en"}, zones[0].LanguageCodes)
}

func TestService_VisibleCurrencies_EmptyTable(t *testing.T) {
	repo := new(mockReferenceRepo)
	repo.On("Currencies", mock.Anything).Return([]domain.Currency(nil), nil).Once()

	svc := NewService(repo, testLogger())

	currencies, err := svc.VisibleCurrencies(context.Background())
	require.NoError(t, err)
	assert.Empty(t, currencies)
}
