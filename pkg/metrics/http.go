package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTP records request latency by route pattern.
type HTTP struct {
	duration *prometheus.HistogramVec
}

func NewHTTP(reg prometheus.Registerer) *HTTP {
	if reg == nil {
		return &HTTP{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(duration)
	return &HTTP{duration: duration}
}

// Observe records one finished request.
func (h *HTTP) Observe(method, route string, status int, elapsed time.Duration) {
	if h == nil || h.duration == nil {
		return
	}
	h.duration.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(elapsed.Seconds())
}
