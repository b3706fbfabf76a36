package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// NewRouter builds the read-only status API: health, the latest snapshot and
// the live WebSocket stream.
func NewRouter(feed StatusFeed, allowedOrigins []string, logger *slog.Logger) http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Use(corsHandler(allowedOrigins).Handler)

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.Get("/status", statusHandler(feed))
	mux.Get("/ws", NewWSHandler(feed, logger).ServeWS)
	return mux
}

func corsHandler(allowedOrigins []string) *cors.Cors {
	if len(allowedOrigins) == 0 {
		return cors.AllowAll()
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	})
}

func statusHandler(feed StatusFeed) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		status, ok := feed.Latest()
		if !ok {
			http.Error(w, "status not rendered yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(status)
	}
}
