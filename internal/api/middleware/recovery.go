package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recovery turns a handler panic into a 500 problem response.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				requestID := GetRequestID(r.Context())

				logger.Error("HTTP request panic recovered",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", requestID),
					slog.Any("panic", rec),
					slog.String("stack_trace", string(debug.Stack())),
				)

				problem := NewProblem(r, http.StatusInternalServerError,
					"An unexpected error occurred while processing the request")

				if err := WriteProblem(w, problem); err != nil {
					logger.Error("Failed to encode error response",
						slog.String("error", err.Error()),
						slog.String("request_id", requestID),
					)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
