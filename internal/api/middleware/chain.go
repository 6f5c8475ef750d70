// Package middleware provides the HTTP middleware used by the impact read API.
package middleware

import (
	"log/slog"
	"net/http"
)

// Option wraps a handler with one middleware.
type Option func(http.Handler) http.Handler

// Apply wraps handler with options so that the first option is the outermost.
//
// Example:
//
//	handler := middleware.Apply(mux,
//	    middleware.WithRequestID(),
//	    middleware.WithRecovery(logger),
//	    middleware.WithRateLimit(limiter, logger),
//	    middleware.WithMetrics(metrics),
//	    middleware.WithRequestLogger(logger),
//	    middleware.WithCORS(corsConfig),
//	)
func Apply(handler http.Handler, options ...Option) http.Handler {
	for i := len(options) - 1; i >= 0; i-- {
		handler = options[i](handler)
	}

	return handler
}

// WithRequestID assigns every request an X-Request-ID and echoes it on the response.
func WithRequestID() Option {
	return RequestID()
}

// WithRecovery turns handler panics into logged 500 problem responses.
func WithRecovery(logger *slog.Logger) Option {
	return Recovery(logger)
}

// WithRateLimit is a no-op when limiter is nil.
func WithRateLimit(limiter RateLimiter, logger *slog.Logger) Option {
	if limiter == nil {
		return passthrough
	}

	return RateLimit(limiter, logger)
}

// WithMetrics is a no-op when metrics is nil.
func WithMetrics(metrics *HTTPMetrics) Option {
	if metrics == nil {
		return passthrough
	}

	return metrics.Instrument
}

// WithRequestLogger logs one line per completed request.
func WithRequestLogger(logger *slog.Logger) Option {
	return RequestLogger(logger)
}

// WithCORS adds CORS headers and answers preflight requests.
func WithCORS(config CORSConfig) Option {
	return CORS(config)
}

func passthrough(next http.Handler) http.Handler {
	return next
}
