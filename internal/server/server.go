// Package server wires the HTTP surface of the catalog service.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/MiguelCoelho27/UALFlix/internal/config"
	"github.com/MiguelCoelho27/UALFlix/internal/handler"
	"github.com/MiguelCoelho27/UALFlix/internal/health"
	"github.com/MiguelCoelho27/UALFlix/internal/middleware"
)

// Server is the catalog HTTP server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	handlers   *handler.Handlers
	health     *health.Checker
	logger     *zap.Logger
	cfg        *config.Config
}

// New creates the HTTP server around the handlers and health checker.
func New(cfg *config.Config, handlers *handler.Handlers, checker *health.Checker, logger *zap.Logger) *Server {
	router := mux.NewRouter()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	s := &Server{
		router:     router,
		httpServer: httpServer,
		handlers:   handlers,
		health:     checker,
		logger:     logger,
		cfg:        cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	middlewareChain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.RequestID,
		middleware.Logging(s.logger),
	}

	if s.cfg.RateLimiter.Enabled {
		rateLimiter := middleware.NewRateLimiter(
			s.cfg.RateLimiter.RequestsPerSecond,
			s.cfg.RateLimiter.BurstSize,
			s.logger,
		)
		middlewareChain = append(middlewareChain, rateLimiter.Limit)
	}

	chain := middleware.Chain(middlewareChain...)
	s.router.Use(func(next http.Handler) http.Handler {
		return chain(next)
	})

	s.router.HandleFunc("/health/live", s.health.LivenessHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/health/ready", s.health.ReadinessHandler).Methods(http.MethodGet)

	// Popular must be registered before the {id} route.
	s.router.HandleFunc("/videos/popular", s.handlers.PopularVideos).Methods(http.MethodGet)

	s.router.HandleFunc("/videos", s.handlers.CreateVideo).Methods(http.MethodPost)
	s.router.HandleFunc("/videos", s.handlers.ListVideos).Methods(http.MethodGet)
	s.router.HandleFunc("/videos/{id}", s.handlers.GetVideo).Methods(http.MethodGet)
	s.router.HandleFunc("/videos/{id}", s.handlers.UpdateVideo).Methods(http.MethodPut)
	s.router.HandleFunc("/videos/{id}", s.handlers.DeleteVideo).Methods(http.MethodDelete)
	s.router.HandleFunc("/videos/{id}/views", s.handlers.IncrementView).Methods(http.MethodPost)

	admin := s.router.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/replication/status", s.handlers.ReplicationStatus).Methods(http.MethodGet)
	admin.HandleFunc("/consistency/check", s.handlers.ForceConsistencyCheck).Methods(http.MethodPost)
	admin.HandleFunc("/cache/clear", s.handlers.ClearCache).Methods(http.MethodPost)
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("address", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
