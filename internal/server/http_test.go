package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/coinwatch-bot/coinwatch/internal/domain"
	apperrors "github.com/coinwatch-bot/coinwatch/internal/errors"
	"github.com/coinwatch-bot/coinwatch/internal/favorites"
	"github.com/coinwatch-bot/coinwatch/internal/health"
	"github.com/coinwatch-bot/coinwatch/internal/notification"
)

type mockSettingsWriter struct {
	mock.Mock
}

func (m *mockSettingsWriter) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

type staticCheck struct {
	err error
}

func (c staticCheck) HealthCheck(context.Context) error { return c.err }

// stubFavoritesRepo is an in-memory favorites set keyed by user.
type stubFavoritesRepo struct {
	sets map[int64]map[string]struct{}
}

func newStubFavoritesRepo(userIDs ...int64) *stubFavoritesRepo {
	sets := make(map[int64]map[string]struct{})
	for _, id := range userIDs {
		sets[id] = make(map[string]struct{})
	}
	return &stubFavoritesRepo{sets: sets}
}

func (s *stubFavoritesRepo) Add(_ context.Context, userID int64, symbol string) (domain.ApplyResult, error) {
	set, ok := s.sets[userID]
	if !ok {
		return domain.ResultNotFound, nil
	}
	if _, exists := set[symbol]; exists {
		return domain.ResultNotFound, nil
	}
	set[symbol] = struct{}{}
	return domain.ResultApplied, nil
}

func (s *stubFavoritesRepo) Remove(_ context.Context, userID int64, symbol string) (domain.ApplyResult, error) {
	set, ok := s.sets[userID]
	if !ok {
		return domain.ResultNotFound, nil
	}
	if _, exists := set[symbol]; !exists {
		return domain.ResultNotFound, nil
	}
	delete(set, symbol)
	return domain.ResultApplied, nil
}

func (s *stubFavoritesRepo) ListByUser(_ context.Context, userID int64) ([]string, error) {
	var symbols []string
	for symbol := range s.sets[userID] {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (s *stubFavoritesRepo) ListUnique(_ context.Context, _ *time.Time) ([]string, error) {
	seen := make(map[string]struct{})
	for _, set := range s.sets {
		for symbol := range set {
			seen[symbol] = struct{}{}
		}
	}
	var symbols []string
	for symbol := range seen {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols, nil
}

// stubNotificationRepo stores alerts in memory with serial ids.
type stubNotificationRepo struct {
	nextID int64
	alerts []domain.PriceAlert
}

func (s *stubNotificationRepo) Insert(_ context.Context, alert *domain.PriceAlert) error {
	s.nextID++
	alert.ID = s.nextID
	alert.CreatedAt = time.Now().UTC()
	s.alerts = append(s.alerts, *alert)
	return nil
}

func (s *stubNotificationRepo) Delete(_ context.Context, id int64) (domain.ApplyResult, error) {
	for i, alert := range s.alerts {
		if alert.ID == id {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			return domain.ResultApplied, nil
		}
	}
	return domain.ResultNotFound, nil
}

func (s *stubNotificationRepo) ListByUser(_ context.Context, userID int64) ([]domain.PriceAlert, error) {
	var out []domain.PriceAlert
	for i := len(s.alerts) - 1; i >= 0; i-- {
		if s.alerts[i].UserID == userID {
			out = append(out, s.alerts[i])
		}
	}
	return out, nil
}

func (s *stubNotificationRepo) ListByUserAndSymbol(_ context.Context, userID int64, symbol string) ([]domain.PriceAlert, error) {
	var out []domain.PriceAlert
	for i := len(s.alerts) - 1; i >= 0; i-- {
		if s.alerts[i].UserID == userID && s.alerts[i].Symbol == symbol {
			out = append(out, s.alerts[i])
		}
	}
	return out, nil
}

func (s *stubNotificationRepo) ListAll(_ context.Context) ([]domain.PriceAlert, error) {
	return append([]domain.PriceAlert(nil), s.alerts...), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler(services Services, checks map[string]health.Checkable) http.Handler {
	log := testLogger()

	checker := health.NewChecker(log)
	for name, check := range checks {
		checker.AddCheck(name, check)
	}

	h := NewHandler(checker, services, apperrors.NewHandler(log, false), log)
	return h.Mux()
}

func TestHandler_Health(t *testing.T) {
	handler := newTestHandler(Services{}, map[string]health.Checkable{
		"database": staticCheck{},
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"OK"`)
}

func TestHandler_Health_Degraded(t *testing.T) {
	handler := newTestHandler(Services{}, map[string]health.Checkable{
		"database": staticCheck{err: context.DeadlineExceeded},
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandler_SetSetting(t *testing.T) {
	settings := new(mockSettingsWriter)
	settings.On("Set", mock.Anything, "tariff", "2").Return(nil).Once()

	handler := newTestHandler(Services{Settings: settings}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/settings", strings.NewReader(`{"key":"tariff","value":"2"}`))
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	settings.AssertExpectations(t)
}

func TestHandler_SetSetting_ValidationError(t *testing.T) {
	settings := new(mockSettingsWriter)
	settings.On("Set", mock.Anything, "", "2").
		Return(apperrors.NewValidationError("settings key must not be empty")).Once()

	handler := newTestHandler(Services{Settings: settings}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/settings", strings.NewReader(`{"key":"","value":"2"}`))
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_SetSetting_BadJSON(t *testing.T) {
	settings := new(mockSettingsWriter)
	handler := newTestHandler(Services{Settings: settings}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/settings", strings.NewReader(`{`))
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	settings.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Favorites_AddIsIdempotent(t *testing.T) {
	repo := newStubFavoritesRepo(42)
	handler := newTestHandler(Services{
		Favorites: favorites.NewService(repo, testLogger()),
	}, nil)

	put := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/users/42/favorites/BTC", nil))
		return rec
	}

	first := put()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), `"applied":true`)

	second := put()
	require.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), `"applied":false`)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/users/42/favorites", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Symbols []string `json:"symbols"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"BTC"}, resp.Symbols)
}

func TestHandler_Notifications_InvalidDirectionRejected(t *testing.T) {
	repo := &stubNotificationRepo{}
	handler := newTestHandler(Services{
		Notifications: notification.NewService(repo, testLogger()),
	}, nil)

	rec := httptest.NewRecorder()
	body := `{"user_id":42,"symbol":"btc","target_price":"50000","direction":"X","comment":""}`
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/notifications", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	list := httptest.NewRecorder()
	handler.ServeHTTP(list, httptest.NewRequest(http.MethodGet, "/v1/users/42/notifications", nil))
	assert.Contains(t, list.Body.String(), `"notifications":[]`)
}

func TestHandler_Notifications_CreateAndDelete(t *testing.T) {
	repo := &stubNotificationRepo{}
	handler := newTestHandler(Services{
		Notifications: notification.NewService(repo, testLogger()),
	}, nil)

	rec := httptest.NewRecorder()
	body := `{"user_id":42,"symbol":"btc","target_price":"50000.00000000","direction":">","comment":"breakout"}`
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/notifications", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.PriceAlert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "BTC", created.Symbol)
	assert.NotZero(t, created.ID)

	del := httptest.NewRecorder()
	handler.ServeHTTP(del, httptest.NewRequest(http.MethodDelete, "/v1/notifications/1", nil))
	require.Equal(t, http.StatusOK, del.Code)
	assert.Contains(t, del.Body.String(), `"applied":true`)

	again := httptest.NewRecorder()
	handler.ServeHTTP(again, httptest.NewRequest(http.MethodDelete, "/v1/notifications/1", nil))
	require.Equal(t, http.StatusOK, again.Code)
	assert.Contains(t, again.Body.String(), `"applied":false`)
}
