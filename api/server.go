// Package api exposes the preference registry and per-profile overrides over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/CreativeUnicorns/extprefs"
)

// maxBodyBytes limits request bodies for PUT and import requests.
const maxBodyBytes = 1 << 20

// Server holds the dependencies for the HTTP server.
type Server struct {
	manager    *extprefs.Manager
	logger     extprefs.Logger
	router     *chi.Mux
	httpServer *http.Server
	registry   *prometheus.Registry
	metrics    *httpMetrics
}

// Config holds configuration for the API server.
type Config struct {
	ListenAddress string
	Manager       *extprefs.Manager
	Logger        extprefs.Logger
	// EnableMetrics serves Prometheus metrics on /metrics.
	EnableMetrics bool
}

// NewServer creates and configures a new API server instance.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Manager == nil {
		return nil, errors.New("manager is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = extprefs.NewDefaultLogger()
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8080"
	}

	s := &Server{
		manager: cfg.Manager,
		logger:  cfg.Logger,
		router:  chi.NewRouter(),
	}
	if cfg.EnableMetrics {
		s.registry = prometheus.NewRegistry()
		s.metrics = newHTTPMetrics(s.registry)
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: s.router,
		// Configure timeouts to prevent resource exhaustion
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server and blocks until it is shut down or fails to start.
// A graceful shutdown through Stop returns nil.
func (s *Server) Start() error {
	s.logger.Info("API server starting", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("API server stopping")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("API server stopped gracefully")
	return nil
}
