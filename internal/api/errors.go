package api

import (
	"log/slog"
	"net/http"

	"github.com/patthub/impact-measurement-tool/internal/api/middleware"
)

// writeError writes an RFC 7807 response for status with detail.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, detail string) {
	problem := middleware.NewProblem(r, status, detail)

	if err := middleware.WriteProblem(w, problem); err != nil {
		logger.Error("Failed to encode error response",
			slog.String("request_id", problem.RequestID),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
	}
}

func badRequest(w http.ResponseWriter, r *http.Request, logger *slog.Logger, detail string) {
	writeError(w, r, logger, http.StatusBadRequest, detail)
}

func notFound(w http.ResponseWriter, r *http.Request, logger *slog.Logger, detail string) {
	writeError(w, r, logger, http.StatusNotFound, detail)
}

func internalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, detail string) {
	writeError(w, r, logger, http.StatusInternalServerError, detail)
}
