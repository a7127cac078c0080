package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
	"github.com/angelmondragon/vendorhub-backend/pkg/metrics"
)

func TestLoggingUsesRoutePatternAndSkipsProbes(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "api-test", Output: &buf})
	reg := prometheus.NewRegistry()

	r := chi.NewRouter()
	r.Use(Logging(logg, metrics.NewHTTP(reg)))
	r.Get("/api/v1/orders/{orderID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/orders/7f1c", nil))
	out := buf.String()
	if !strings.Contains(out, `"route":"/api/v1/orders/{orderID}"`) || !strings.Contains(out, `"status":202`) {
		t.Fatalf("expected access log with route pattern, got %s", out)
	}

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if buf.Len() != 0 {
		t.Fatalf("health probe should not be logged: %s", buf.String())
	}

	count, err := testutil.GatherAndCount(reg, "http_request_duration_seconds")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected two latency series, got %d", count)
	}
}

func TestCORSAllowsIdempotencyHeader(t *testing.T) {
	h := CORS([]string{"https://admin.vendorhub.app"})(okHandler())
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/orders", nil)
	req.Header.Set("Origin", "https://admin.vendorhub.app")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://admin.vendorhub.app" {
		t.Fatalf("expected origin echoed, got %q", got)
	}
	if !strings.Contains(strings.ToLower(rec.Header().Get("Access-Control-Allow-Headers")), "idempotency-key") {
		t.Fatalf("expected Idempotency-Key allowed, got %q", rec.Header().Get("Access-Control-Allow-Headers"))
	}
}
