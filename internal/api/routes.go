package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/patthub/impact-measurement-tool/internal/api/middleware"
)

const healthCheckTimeout = 2 * time.Second

func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ping", s.handlePing)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	mux.HandleFunc("GET /api/v1/impacts", s.handleListImpacts)
	mux.HandleFunc("GET /api/v1/impacts/{id}", s.handleGetImpact)
	mux.HandleFunc("GET /api/v1/institutions/{uuid}/impacts", s.handleInstitutionImpacts)
	mux.HandleFunc("GET /api/v1/institutions/{uuid}/evaluation", s.handleInstitutionEvaluation)

	mux.HandleFunc("/", s.handleNotFound)
}

// handlePing answers liveness probes.
func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

// handleReady answers readiness probes: 200 when the store responds within two seconds, 503 otherwise.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain")

	if err := s.impacts.HealthCheck(ctx); err != nil {
		s.logger.Error("Storage health check failed",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)

		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("storage unavailable"))

		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleHealth reports process health; it does not touch storage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var uptime string
	if !s.startTime.IsZero() {
		uptime = time.Since(s.startTime).Round(time.Second).String()
	}

	s.writeJSON(w, r, http.StatusOK, HealthStatus{
		Status:      "ok",
		ServiceName: serviceName,
		Version:     s.version,
		Uptime:      uptime,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	notFound(w, r, s.logger, "The requested resource was not found")
}

// writeJSON marshals body before writing any header so encode failures can still become a 500.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		s.logger.Error("Failed to encode response",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		internalError(w, r, s.logger, "Failed to encode response")

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(data); err != nil {
		s.logger.Error("Failed to write response",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
	}
}
