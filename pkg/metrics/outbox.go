package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outbox records publisher throughput for the outbox drain loop.
type Outbox struct {
	batch  prometheus.Histogram
	events *prometheus.CounterVec
}

func NewOutbox(reg prometheus.Registerer) *Outbox {
	if reg == nil {
		return &Outbox{}
	}
	batch := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outbox_batch_duration_seconds",
		Help:    "Duration of one outbox publish batch.",
		Buckets: prometheus.DefBuckets,
	})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_total",
		Help: "Outbox rows by publish result (published, failed, dead).",
	}, []string{"event_type", "result"})
	reg.MustRegister(batch, events)
	return &Outbox{batch: batch, events: events}
}

// ObserveBatch records how long one batch took.
func (o *Outbox) ObserveBatch(d time.Duration) {
	if o == nil || o.batch == nil {
		return
	}
	o.batch.Observe(d.Seconds())
}

// Event counts one processed row.
func (o *Outbox) Event(eventType, result string) {
	if o == nil || o.events == nil {
		return
	}
	o.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}
