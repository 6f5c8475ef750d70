package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig supplies the CORS policy; api.ServerConfig implements it.
type CORSConfig interface {
	GetAllowedOrigins() []string
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
	GetMaxAge() int
}

// CORS sets the Access-Control-* headers and answers preflight requests with 204.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			if origin := allowedOrigin(r.Header.Get("Origin"), config.GetAllowedOrigins()); origin != "" {
				h.Set("Access-Control-Allow-Origin", origin)

				if origin != "*" {
					h.Add("Vary", "Origin")
				}
			}

			if methods := config.GetAllowedMethods(); len(methods) > 0 {
				h.Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))
			}

			if headers := config.GetAllowedHeaders(); len(headers) > 0 {
				h.Set("Access-Control-Allow-Headers", strings.Join(headers, ", "))
			}

			if maxAge := config.GetMaxAge(); maxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
			}

			h.Set("Access-Control-Expose-Headers", RequestIDHeader)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// allowedOrigin returns the value for Access-Control-Allow-Origin, or "" when origin is not allowed.
func allowedOrigin(origin string, allowed []string) string {
	if slices.Contains(allowed, "*") {
		return "*"
	}

	if origin != "" && slices.Contains(allowed, origin) {
		return origin
	}

	return ""
}
