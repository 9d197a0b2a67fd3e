package favorites

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/coinwatch-bot/coinwatch/internal/domain"
	apperrors "github.com/coinwatch-bot/coinwatch/internal/errors"
)

type mockFavoritesRepo struct {
	mock.Mock
}

func (m *mockFavoritesRepo) Add(ctx context.Context, userID int64, symbol string) (domain.ApplyResult, error) {
	args := m.Called(ctx, userID, symbol)
	return args.Get(0).(domain.ApplyResult), args.Error(1)
}

func (m *mockFavoritesRepo) Remove(ctx context.Context, userID int64, symbol string) (domain.ApplyResult, error) {
	args := m.Called(ctx, userID, symbol)
	return args.Get(0).(domain.ApplyResult), args.Error(1)
}

func (m *mockFavoritesRepo) ListByUser(ctx context.Context, userID int64) ([]string, error) {
	args := m.Called(ctx, userID)
	symbols, _ := args.Get(0).([]string)
	return symbols, args.Error(1)
}

func (m *mockFavoritesRepo) ListUnique(ctx context.Context, since *time.Time) ([]string, error) {
	args := m.Called(ctx, since)
	symbols, _ := args.Get(0).([]string)
	return symbols, args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(repo *mockFavoritesRepo) *Service {
	svc := NewService(repo, testLogger())
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestService_Add_Idempotent(t *testing.T) {
	ctx := context.Background()

	repo := new(mockFavoritesRepo)
	repo.On("Add", mock.Anything, int64(42), "BTC").Return(domain.ResultApplied, nil).Once()
	repo.On("Add", mock.Anything, int64(42), "BTC").Return(domain.ResultNotFound, nil).Once()

	svc := newTestService(repo)

	first, err := svc.Add(ctx, 42, "BTC")
	require.NoError(t, err)
	assert.True(t, first.Applied())

	second, err := svc.Add(ctx, 42, "BTC")
	require.NoError(t, err)
	assert.False(t, second.Applied())

	repo.AssertExpectations(t)
}

func TestService_Add_EmptySymbolRejected(t *testing.T) {
	repo := new(mockFavoritesRepo)
	svc := newTestService(repo)

	_, err := svc.Add(context.Background(), 42, "   ")

	var appErr *apperrors.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E100", appErr.Code)
	repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Remove_AbsentSymbolIsNoop(t *testing.T) {
	repo := new(mockFavoritesRepo)
	repo.On("Remove", mock.Anything, int64(42), "DOGE").Return(domain.ResultNotFound, nil).Once()

	svc := newTestService(repo)

	result, err := svc.Remove(context.Background(), 42, "DOGE")
	assert.NoError(t, err)
	assert.False(t, result.Applied())
	repo.AssertExpectations(t)
}

func TestService_ListUnique_NoFilter(t *testing.T) {
	repo := new(mockFavoritesRepo)
	repo.On("ListUnique", mock.Anything, (*time.Time)(nil)).
		Return([]string{"BTC", "eth"}, nil).Once()

	svc := newTestService(repo)

	symbols, err := svc.ListUnique(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "eth"}, symbols)
	repo.AssertExpectations(t)
}

func TestService_ListUnique_WindowCutoff(t *testing.T) {
	expectedCutoff := testNow.AddDate(0, 0, -7)

	repo := new(mockFavoritesRepo)
	repo.On("ListUnique", mock.Anything, mock.MatchedBy(func(since *time.Time) bool {
		return since != nil && since.Equal(expectedCutoff)
	})).Return([]string{"BTC"}, nil).Once()

	svc := newTestService(repo)

	symbols, err := svc.ListUnique(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC"}, symbols)
	repo.AssertExpectations(t)
}

func TestService_ListByUser_Error(t *testing.T) {
	repoErr := errors.New("db down")

	repo := new(mockFavoritesRepo)
	repo.On("ListByUser", mock.Anything, int64(42)).Return([]string(nil), repoErr).Once()

	svc := newTestService(repo)

	_, err := svc.ListByUser(context.Background(), 42)
	assert.ErrorIs(t, err, repoErr)
}
