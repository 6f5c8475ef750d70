// Package api serves the stored impact cases and evaluations over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/patthub/impact-measurement-tool/internal/api/middleware"
)

const serviceName = "imeto"

type (
	// Server is the HTTP read API.
	Server struct {
		httpServer  *http.Server
		logger      *slog.Logger
		config      *ServerConfig
		startTime   time.Time
		version     string
		impacts     ImpactReader
		evaluations EvaluationReader
		rateLimiter middleware.RateLimiter
		registry    *prometheus.Registry
	}

	// ServerOption configures optional Server dependencies.
	ServerOption func(*Server)
)

// WithEvaluations enables the institution evaluation endpoint.
func WithEvaluations(store EvaluationReader) ServerOption {
	return func(s *Server) {
		s.evaluations = store
	}
}

// WithRateLimiter enables rate limiting. The server closes the limiter on shutdown when it has a Close method.
func WithRateLimiter(limiter middleware.RateLimiter) ServerOption {
	return func(s *Server) {
		s.rateLimiter = limiter
	}
}

// WithRegistry serves reg on /metrics and records HTTP metrics into it.
// Without it the server uses a private registry.
func WithRegistry(reg *prometheus.Registry) ServerOption {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithLogger replaces the default JSON logger on stdout.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by /health.
func WithVersion(version string) ServerOption {
	return func(s *Server) {
		s.version = version
	}
}

// NewServer builds the server and its middleware chain around impacts.
func NewServer(cfg *ServerConfig, impacts ImpactReader, opts ...ServerOption) *Server {
	server := &Server{
		config:  cfg,
		impacts: impacts,
		version: "dev",
		logger: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.LogLevel,
		})),
	}

	for _, opt := range opts {
		opt(server)
	}

	if server.registry == nil {
		server.registry = prometheus.NewRegistry()
	}

	mux := http.NewServeMux()
	server.setupRoutes(mux)

	if server.rateLimiter == nil {
		server.logger.Warn("RateLimiter not configured - rate limiting middleware disabled")
	}

	if server.evaluations == nil {
		server.logger.Warn("Evaluation store not configured - evaluation endpoint returns 404")
	}

	handler := middleware.Apply(mux,
		middleware.WithRequestID(),
		middleware.WithRecovery(server.logger),
		middleware.WithRateLimit(server.rateLimiter, server.logger),
		middleware.WithMetrics(middleware.NewHTTPMetrics(server.registry)),
		middleware.WithRequestLogger(server.logger),
		middleware.WithCORS(cfg.ToCORSConfig()),
	)

	server.httpServer = &http.Server{
		Addr:              cfg.Address(),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	return server
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}

	listener, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return s.Serve(ctx, listener)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.startTime = time.Now()

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("Starting impact API server",
			slog.String("address", listener.Addr().String()),
			slog.String("version", s.version),
			slog.Duration("read_timeout", s.config.ReadTimeout),
			slog.Duration("write_timeout", s.config.WriteTimeout),
		)

		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server failed: %w", err)
		}

		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		s.closeRateLimiter()

		return err
	case <-ctx.Done():
		s.logger.Info("Received shutdown signal")

		return s.shutdown()
	}
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Initiating server shutdown", slog.Duration("shutdown_timeout", s.config.ShutdownTimeout))

	err := s.httpServer.Shutdown(ctx)

	s.closeRateLimiter()

	if err != nil {
		s.logger.Error("Server shutdown failed", slog.String("error", err.Error()))

		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("Server shutdown completed")

	return nil
}

func (s *Server) closeRateLimiter() {
	if closer, ok := s.rateLimiter.(interface{ Close() }); ok {
		closer.Close()
	}
}
