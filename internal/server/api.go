package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/coinwatch-bot/coinwatch/internal/domain"
	apperrors "github.com/coinwatch-bot/coinwatch/internal/errors"
)

// registerStoreRoutes mounts the store operations. Route names mirror the
// operation names of the store's contract.
func (h *Handler) registerStoreRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/users", h.handleCreateUser)
	mux.HandleFunc("GET /v1/users/{id}", h.handleGetUser)
	mux.HandleFunc("GET /v1/users/{id}/exists", h.handleUserExists)
	mux.HandleFunc("PUT /v1/users/{id}/pending-input", h.handleSetPendingInput)
	mux.HandleFunc("POST /v1/users/{id}/login", h.handleTouchLogin)
	mux.HandleFunc("PUT /v1/users/{id}/balance-message", h.handleSetBalanceMessage)
	mux.HandleFunc("PUT /v1/users/{id}/balance-post-count", h.handleSetBalancePostCount)
	mux.HandleFunc("POST /v1/users/{id}/balance-post-count/increment", h.handleIncrementBalancePostCount)
	mux.HandleFunc("PUT /v1/users/{id}/language", h.handleSetLanguage)
	mux.HandleFunc("PUT /v1/users/{id}/currency", h.handleSetCurrency)
	mux.HandleFunc("PUT /v1/users/{id}/timezone", h.handleSetTimezone)
	mux.HandleFunc("GET /v1/users/active", h.handleActiveUserIDs)

	mux.HandleFunc("PUT /v1/users/{id}/favorites/{symbol}", h.handleAddFavorite)
	mux.HandleFunc("DELETE /v1/users/{id}/favorites/{symbol}", h.handleRemoveFavorite)
	mux.HandleFunc("GET /v1/users/{id}/favorites", h.handleListFavorites)
	mux.HandleFunc("GET /v1/favorites/unique", h.handleListUniqueFavorites)

	mux.HandleFunc("POST /v1/notifications", h.handleAddNotification)
	mux.HandleFunc("DELETE /v1/notifications/{id}", h.handleDeleteNotification)
	mux.HandleFunc("GET /v1/notifications", h.handleListAllNotifications)
	mux.HandleFunc("GET /v1/users/{id}/notifications", h.handleListNotifications)

	mux.HandleFunc("GET /v1/reference/languages", h.handleReferenceLanguages)
	mux.HandleFunc("GET /v1/reference/time-zones", h.handleReferenceTimeZones)
	mux.HandleFunc("GET /v1/reference/currencies", h.handleReferenceCurrencies)
}

type createUserRequest struct {
	UserID         int64  `json:"user_id"`
	DisplayName    string `json:"display_name"`
	AccountType    string `json:"account_type"`
	LanguageCode   string `json:"language_code"`
	TimezoneOffset int    `json:"timezone_offset"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	err := h.services.Users.Register(r.Context(), domain.NewUserParams{
		UserID:         req.UserID,
		DisplayName:    req.DisplayName,
		AccountType:    req.AccountType,
		LanguageCode:   req.LanguageCode,
		TimezoneOffset: req.TimezoneOffset,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	profile, err := h.services.Users.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if profile == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleUserExists(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	exists, err := h.services.Users.Exists(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

type markerRequest struct {
	Marker string `json:"marker"`
}

func (h *Handler) handleSetPendingInput(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req markerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	h.applyAndRespond(w, r)(h.services.Users.SetPendingInput(r.Context(), id, req.Marker))
}

func (h *Handler) handleTouchLogin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	h.applyAndRespond(w, r)(h.services.Users.TouchLogin(r.Context(), id))
}

type messageIDRequest struct {
	MessageID int64 `json:"message_id"`
}

func (h *Handler) handleSetBalanceMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req messageIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	h.applyAndRespond(w, r)(h.services.Users.SetLastBalanceMessage(r.Context(), id, req.MessageID))
}

type countRequest struct {
	Count int64 `json:"count"`
}

func (h *Handler) handleSetBalancePostCount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req countRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	h.applyAndRespond(w, r)(h.services.Users.SetBalancePostCount(r.Context(), id, req.Count))
}

func (h *Handler) handleIncrementBalancePostCount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	h.applyAndRespond(w, r)(h.services.Users.IncrementBalancePostCount(r.Context(), id))
}

type codeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req codeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	h.applyAndRespond(w, r)(h.services.Users.SetLanguage(r.Context(), id, req.Code))
}

func (h *Handler) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req codeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	h.applyAndRespond(w, r)(h.services.Users.SetCurrency(r.Context(), id, req.Code))
}

type offsetRequest struct {
	OffsetCode int `json:"offset_code"`
}

func (h *Handler) handleSetTimezone(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req offsetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	h.applyAndRespond(w, r)(h.services.Users.SetTimezone(r.Context(), id, req.OffsetCode))
}

func (h *Handler) handleActiveUserIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := h.services.Users.ActiveUserIDs(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if ids == nil {
		ids = []int64{}
	}

	writeJSON(w, http.StatusOK, map[string][]int64{"user_ids": ids})
}

func (h *Handler) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	h.applyAndRespond(w, r)(h.services.Favorites.Add(r.Context(), id, r.PathValue("symbol")))
}

func (h *Handler) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	h.applyAndRespond(w, r)(h.services.Favorites.Remove(r.Context(), id, r.PathValue("symbol")))
}

func (h *Handler) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	symbols, err := h.services.Favorites.ListByUser(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if symbols == nil {
		symbols = []string{}
	}

	writeJSON(w, http.StatusOK, map[string][]string{"symbols": symbols})
}

func (h *Handler) handleListUniqueFavorites(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("active_within_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "active_within_days must be a non-negative integer"})
			return
		}
		days = parsed
	}

	symbols, err := h.services.Favorites.ListUnique(r.Context(), days)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if symbols == nil {
		symbols = []string{}
	}

	writeJSON(w, http.StatusOK, map[string][]string{"symbols": symbols})
}

type addNotificationRequest struct {
	UserID      int64           `json:"user_id"`
	Symbol      string          `json:"symbol"`
	TargetPrice decimal.Decimal `json:"target_price"`
	Direction   string          `json:"direction"`
	Comment     string          `json:"comment"`
}

func (h *Handler) handleAddNotification(w http.ResponseWriter, r *http.Request) {
	var req addNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	alert, err := h.services.Notifications.Add(r.Context(), req.UserID, req.Symbol, req.TargetPrice, req.Direction, req.Comment)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, alert)
}

func (h *Handler) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	h.applyAndRespond(w, r)(h.services.Notifications.Delete(r.Context(), id))
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var (
		alerts []domain.PriceAlert
		err    error
	)
	if symbol := r.URL.Query().Get("symbol"); symbol != "" {
		alerts, err = h.services.Notifications.ListByUserAndSymbol(r.Context(), id, symbol)
	} else {
		alerts, err = h.services.Notifications.ListByUser(r.Context(), id)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if alerts == nil {
		alerts = []domain.PriceAlert{}
	}

	writeJSON(w, http.StatusOK, map[string][]domain.PriceAlert{"notifications": alerts})
}

func (h *Handler) handleListAllNotifications(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.services.Notifications.ListAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if alerts == nil {
		alerts = []domain.PriceAlert{}
	}

	writeJSON(w, http.StatusOK, map[string][]domain.PriceAlert{"notifications": alerts})
}

func (h *Handler) handleReferenceLanguages(w http.ResponseWriter, r *http.Request) {
	langs, err := h.services.Reference.VisibleLanguages(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]domain.Language{"languages": langs})
}

func (h *Handler) handleReferenceTimeZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.services.Reference.VisibleTimeZones(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]domain.TimeZone{"time_zones": zones})
}

func (h *Handler) handleReferenceCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.services.Reference.VisibleCurrencies(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]domain.Currency{"currencies": currencies})
}

// applyAndRespond renders an ApplyResult mutation outcome. Both outcomes
// are successes; the body says whether a row was touched.
func (h *Handler) applyAndRespond(w http.ResponseWriter, r *http.Request) func(domain.ApplyResult, error) {
	return func(result domain.ApplyResult, err error) {
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"applied": result.Applied(),
		})
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	msg, _ := h.errs.Handle(r.Context(), err)

	status := http.StatusInternalServerError
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code == "E100" {
		status = http.StatusBadRequest
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": name + " must be an integer"})
		return 0, false
	}

	return id, true
}
