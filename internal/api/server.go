package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"prophet/internal/api/health"
	"prophet/internal/api/ui"
	"prophet/internal/metrics"
	"prophet/pkg/errors"
	"prophet/pkg/logger"
)

// ServerConfig contains configuration for HTTP server
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server wraps HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates and configures HTTP server with all routes
func NewServer(
	cfg ServerConfig,
	handler *Handler,
	healthHandler *health.Handler,
	uiHandler *ui.Handler,
	limiter *rate.Limiter,
	log *logger.Logger,
) *Server {
	mux := http.NewServeMux()

	// Prediction API
	mux.HandleFunc("/", handler.HandleHome)
	mux.HandleFunc("/api", handler.HandleAPIInfo)
	mux.HandleFunc("/predict_group", handler.HandlePredictGroup)
	mux.HandleFunc("/predict_revenue", handler.HandlePredictRevenue)
	mux.HandleFunc("/predict_all", handler.HandlePredictAll)

	// Interactive form
	mux.Handle("/ui", uiHandler)

	// Health check endpoints (Kubernetes probes)
	mux.HandleFunc("/health", healthHandler.HandleHealth)
	mux.HandleFunc("/ready", healthHandler.HandleReadiness)
	mux.HandleFunc("/live", healthHandler.HandleLiveness)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", metrics.Handler())

	var root http.Handler = mux
	root = withRateLimit(limiter, root)
	root = withCORS(root)
	root = withLogging(log, root)
	root = withRequestID(root)

	port := 7000
	if cfg.Port > 0 {
		port = cfg.Port
	}

	log.Infof("HTTP server configured on port %d", port)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      root,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{
		httpServer: httpServer,
		log:        log,
	}
}

// Start begins listening for HTTP requests
// Blocks until server is stopped or encounters an error
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
// Waits for active connections to complete within timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("HTTP server stopped")
	return nil
}
