// Package server provides the HTTP API for Kurabe.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/kurabe/internal/config"
	"github.com/hyperjump/kurabe/internal/service"
	"go.uber.org/zap"
)

// Server is the HTTP server for the Kurabe API.
type Server struct {
	svc    *service.Service
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(svc *service.Service, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		svc:    svc,
		config: cfg,
		logger: logger,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/documents", s.handleUploadDocument)
	r.Post("/api/v1/ask", s.handleAsk)
	r.Get("/api/v1/history", s.handleHistory)
	r.Get("/api/v1/chunks/search", s.handleSearchChunks)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
