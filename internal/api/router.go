package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(handlers.ProxyHeaders)
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(s.recoverer)
	r.Use(newCORSPolicy(s.cfg.CORS).handler)

	// Prometheus exposition
	if s.metricsCfg.Enabled {
		path := s.metricsCfg.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket stays outside the compressed group; it hijacks the connection.
		r.Get(s.wsPath(), s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequestSize(maxRequestBodySize))
			r.Use(handlers.CompressHandler)

			r.Get("/health", s.handleHealth)
			r.Get("/metrics", s.handleMetrics)
			r.Get("/status", s.handleStatus)
			r.Get("/audit", s.handleListAudit)

			r.Route("/simulation", func(r chi.Router) {
				r.Get("/settings", s.handleGetSettings)
				r.Post("/start", s.handleStart)
				r.Post("/stop", s.handleStop)
				r.Post("/reset", s.handleReset)
				r.Post("/resume", s.handleResume)
				r.Post("/settings", s.handleUpdateSettings)
				r.Post("/manual", s.handleManual)
			})

			r.Route("/presets", func(r chi.Router) {
				r.Get("/", s.handleListPresets)
				r.Post("/", s.handleCreatePreset)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetPreset)
					r.Put("/", s.handleUpdatePreset)
					r.Delete("/", s.handleDeletePreset)
					r.Post("/apply", s.handleApplyPreset)
				})
			})
		})
	})

	return r
}

// wsPath returns the configured WebSocket path under /api/v1.
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}
