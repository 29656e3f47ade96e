package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pollwave/pollwave/internal/config"
	"github.com/pollwave/pollwave/internal/history"
	"github.com/pollwave/pollwave/internal/session"
	httperrors "github.com/pollwave/pollwave/pkg/http/errors"
)

// NewUpgrader builds the WebSocket upgrader with origin checking. A single
// "*" entry allows any origin.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
}

// NewHTTPServer wires the HTTP surface: health and metrics, the liveness
// status snapshot, the poll-history read endpoint, and the WebSocket entry
// point. histStore may be nil when archiving is disabled.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, engine *session.Engine, histStore *history.Store, wsHandler http.HandlerFunc) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	// Field names here are load-bearing: existing dashboards read them.
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(engine.Status())
	})

	mux.HandleFunc("/v1/history", func(w http.ResponseWriter, r *http.Request) {
		records := []history.Record{}
		if histStore != nil {
			var err error
			records, err = histStore.Recent(r.Context())
			if err != nil {
				logger.Error().Err(err).Msg("history fetch failed")
				httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeHistoryFetchFailed, "Could not load poll history")
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"history": records})
	})

	mux.HandleFunc("/ws", wsHandler)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}
