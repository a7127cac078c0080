package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS admits browser calls from the configured dashboards. Idempotency-Key
// must be allowed for the write endpoints that require it.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", idempotencyHeader, requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, "Idempotent-Replayed", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           600,
	})
}
