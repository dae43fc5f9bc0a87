package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"wavepipe/internal/config"
	"wavepipe/internal/metrics"
)

func (s *Server) routes(cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer)
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(cors(cfg.Server.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "NotFound", Details: "no such route"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "MethodNotAllowed", Details: "method not allowed"})
	})

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(s.token))
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
		r.Get("/api/history", s.handleHistory)

		r.Group(func(r chi.Router) {
			if cfg.Server.RateLimitPerMinute > 0 {
				r.Use(rateLimit(cfg.Server.RateLimitPerMinute))
			}
			r.Get("/info", s.handleInfo)
			r.Get("/download", s.handleDownload)
		})
	})
	return r
}
