package settings

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "github.com/coinwatch-bot/coinwatch/internal/errors"
)

type mockSettingsRepo struct {
	mock.Mock
}

func (m *mockSettingsRepo) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockSettingsRepo) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_Int(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name     string
		stored   string
		found    bool
		err      error
		expected int
	}{
		{name: "parses stored value", stored: "25", found: true, expected: 25},
		{name: "absent key falls back", found: false, expected: 10},
		{name: "unparsable value falls back", stored: "soon", found: true, expected: 10},
		{name: "read error falls back", err: errors.New("db down"), expected: 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(mockSettingsRepo)
			repo.On("Get", mock.Anything, KeyActivityWindowDays).
				Return(tc.stored, tc.found, tc.err).Once()

			svc := NewService(repo, testLogger())
			got := svc.Int(ctx, KeyActivityWindowDays, 10)

			assert.Equal(t, tc.expected, got)
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Bool(t *testing.T) {
	ctx := context.Background()

	repo := new(mockSettingsRepo)
	repo.On("Get", mock.Anything, "feature_on").Return("true", true, nil).Once()
	repo.On("Get", mock.Anything, "feature_off").Return("banana", true, nil).Once()

	svc := NewService(repo, testLogger())

	assert.True(t, svc.Bool(ctx, "feature_on", false))
	assert.False(t, svc.Bool(ctx, "feature_off", false))
	repo.AssertExpectations(t)
}

func TestService_String(t *testing.T) {
	ctx := context.Background()

	repo := new(mockSettingsRepo)
	repo.On("Get", mock.Anything, "motd").Return("", false, nil).Once()

	svc := NewService(repo, testLogger())

	assert.Equal(t, "hello", svc.String(ctx, "motd", "hello"))
	repo.AssertExpectations(t)
}

func TestService_Set(t *testing.T) {
	ctx := context.Background()

	repo := new(mockSettingsRepo)
	repo.On("Set", mock.Anything, KeyTariff, "2").Return(nil).Once()

	svc := NewService(repo, testLogger())

	assert.NoError(t, svc.Set(ctx, KeyTariff, "2"))
	repo.AssertExpectations(t)
}

func TestService_Set_EmptyKey(t *testing.T) {
	repo := new(mockSettingsRepo)
	svc := NewService(repo, testLogger())

	err := svc.Set(context.Background(), "", "1")

	var appErr *apperrors.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E100", appErr.Code)
	repo.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}
