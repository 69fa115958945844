// Package api exposes workflow execution over HTTP: run submission, status,
// logs, cancellation and live log streaming.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tcmartin/flowgraph/pkg/auth"
	"github.com/tcmartin/flowgraph/pkg/config"
	"github.com/tcmartin/flowgraph/pkg/loader"
	"github.com/tcmartin/flowgraph/pkg/middleware"
	"github.com/tcmartin/flowgraph/pkg/registry"
	"github.com/tcmartin/flowgraph/pkg/runtime"
)

// Server is the HTTP API server.
type Server struct {
	config   *config.Config
	router   *mux.Router
	server   *http.Server
	runtime  *runtime.Service
	registry *registry.Registry
	loader   *loader.Loader
	tokens   *auth.TokenService
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, rt *runtime.Service, reg *registry.Registry) *Server {
	s := &Server{
		config:   cfg,
		router:   mux.NewRouter(),
		runtime:  rt,
		registry: reg,
		loader:   loader.NewLoader(reg),
		tokens: auth.NewTokenService(
			cfg.Auth.JWTSecret,
			time.Duration(cfg.Auth.TokenExpirationHours)*time.Hour,
		),
	}
	s.setupRoutes()
	return s
}

// Handler returns the server's HTTP handler, used directly in tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting HTTP server on %s", addr)

	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	authMiddleware := middleware.NewAuthMiddleware(s.tokens)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	// Authenticated routes
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware.Authenticate)
	protected.HandleFunc("/nodes", s.handleListNodes).Methods(http.MethodGet)
	protected.HandleFunc("/executions", s.handleCreateExecution).Methods(http.MethodPost)
	protected.HandleFunc("/executions", s.handleListExecutions).Methods(http.MethodGet)
	protected.HandleFunc("/executions/{id}", s.handleGetExecution).Methods(http.MethodGet)
	protected.HandleFunc("/executions/{id}", s.handleCancelExecution).Methods(http.MethodDelete)
	protected.HandleFunc("/executions/{id}/logs", s.handleGetLogs).Methods(http.MethodGet)
	protected.HandleFunc("/executions/{id}/stream", s.handleStreamLogs).Methods(http.MethodGet)
}
