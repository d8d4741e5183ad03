package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRoutes() {
	// Middleware stack
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(LoggerMiddleware(s.logger))
	if s.metrics != nil {
		s.router.Use(s.metrics.middleware)
	}
	s.router.Use(middleware.Recoverer)

	if s.registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Declared defaults
		r.Get("/defaults", s.handleListDefaults)
		r.Get("/defaults/{key}", s.handleGetDefault)
		r.Get("/declarations", s.handleDeclarations)

		// Per-profile overrides
		r.Route("/profiles/{profile}", func(r chi.Router) {
			r.Get("/prefs", s.handleListPreferences)
			r.Get("/prefs/{key}", s.handleGetPreference)
			r.Put("/prefs/{key}", s.handleSetPreference)
			r.Delete("/prefs/{key}", s.handleResetPreference)
			r.Get("/export", s.handleExport)
			r.Post("/import", s.handleImport)
		})
	})
}
