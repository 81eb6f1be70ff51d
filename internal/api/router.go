package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeparena/sweeparena/internal/middleware"
	"github.com/sweeparena/sweeparena/internal/services/leaderboard"
	"github.com/sweeparena/sweeparena/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	WSHandler   *ws.Handler
	Leaderboard *leaderboard.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler)

	r.Use(recoveryMiddleware)

	// The game itself runs over this single endpoint.
	r.Handle("/ws", cfg.WSHandler).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware)
	api.HandleFunc("/leaderboard", leaderboardHandler(cfg.Leaderboard, cfg.Logger)).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func leaderboardHandler(svc *leaderboard.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode := r.URL.Query().Get("mode")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		entries, err := svc.Top(r.Context(), mode, limit)
		if err != nil {
			logger.Error("leaderboard query failed", slog.String("error", err.Error()))
			http.Error(w, "leaderboard unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			logger.Error("leaderboard encoding failed", slog.String("error", err.Error()))
		}
	}
}
