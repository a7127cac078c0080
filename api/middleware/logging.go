package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
	"github.com/angelmondragon/vendorhub-backend/pkg/metrics"
)

// Logging writes one access log line per request and feeds the latency
// histogram. Health probes are measured but not logged.
func Logging(logg *logger.Logger, httpMetrics *metrics.HTTP) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{"method": r.Method, "path": r.URL.Path})
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))
			elapsed := time.Since(start)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routeLabel(r)
			httpMetrics.Observe(r.Method, route, status, elapsed)

			if logg == nil || route == "/health/live" || route == "/health/ready" {
				return
			}
			ctx = logg.WithFields(ctx, map[string]any{
				"route":       route,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": elapsed.Milliseconds(),
			})
			logg.Info(ctx, "request.complete")
		})
	}
}

// routeLabel is the matched chi pattern, so ids never reach metric labels.
func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
