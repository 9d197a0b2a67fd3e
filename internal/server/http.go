// Package server exposes the store's operational HTTP surface: health,
// metrics and the administrative settings path.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/coinwatch-bot/coinwatch/internal/errors"
	"github.com/coinwatch-bot/coinwatch/internal/favorites"
	"github.com/coinwatch-bot/coinwatch/internal/health"
	"github.com/coinwatch-bot/coinwatch/internal/notification"
	"github.com/coinwatch-bot/coinwatch/internal/reference"
	"github.com/coinwatch-bot/coinwatch/internal/user"
	"github.com/coinwatch-bot/coinwatch/pkg/logger"
)

// SettingsWriter is the administrative settings path.
type SettingsWriter interface {
	Set(ctx context.Context, key, value string) error
}

// Services bundles the store services exposed over HTTP.
type Services struct {
	Users         *user.Service
	Favorites     *favorites.Service
	Notifications *notification.Service
	Reference     *reference.Service
	Settings      SettingsWriter
}

// Handler builds the HTTP mux for the store daemon.
type Handler struct {
	checker  *health.Checker
	services Services
	errs     *apperrors.Handler
	log      *slog.Logger
}

// NewHandler constructs the HTTP handler set.
func NewHandler(checker *health.Checker, services Services, errs *apperrors.Handler, log *slog.Logger) *Handler {
	return &Handler{
		checker:  checker,
		services: services,
		errs:     errs,
		log:      log,
	}
}

// Mux returns the routed handler wrapped with correlation-id logging.
func (h *Handler) Mux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /admin/settings", h.handleSetSetting)
	h.registerStoreRoutes(mux)

	return logger.Middleware(mux)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	results := h.checker.Check(r.Context())

	status := http.StatusOK
	for _, res := range results {
		if res != "OK" {
			status = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, status, results)
}

type setSettingRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (h *Handler) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	var req setSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	if err := h.services.Settings.Set(r.Context(), req.Key, req.Value); err != nil {
		h.writeError(w, r, err)
		return
	}

	if h.log != nil {
		h.log.Info("setting updated",
			slog.String("key", req.Key),
			slog.String("correlation_id", logger.CorrelationIDFromContext(r.Context())),
		)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
