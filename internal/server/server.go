// Package server provides the HTTP API for tablekit.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/tablekit/internal/config"
	"github.com/hyperjump/tablekit/internal/reader"
)

// Server is the HTTP server for the tablekit API. Uploaded files are read with
// the factory and the read options it was built with; query parameters
// override the per-file selectors.
type Server struct {
	factory *reader.Factory
	opts    reader.ReadOptions
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	factory *reader.Factory,
	opts reader.ReadOptions,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		factory: factory,
		opts:    opts,
		config:  cfg,
		logger:  logger,
	}
}

// Routes returns the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/read", s.handleRead)
	r.Post("/api/v1/convert", s.handleConvert)
	r.Get("/api/v1/formats", s.handleFormats)
	r.Get("/health", s.handleHealth)
	return r
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.Addr()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
