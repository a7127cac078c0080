package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Jobs records maintenance job runs.
type Jobs struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

func NewJobs(reg prometheus.Registerer) *Jobs {
	if reg == nil {
		return &Jobs{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cron_job_duration_seconds",
		Help:    "Duration of maintenance job runs.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_job_runs_total",
		Help: "Maintenance job runs by result.",
	}, []string{"job", "result"})
	reg.MustRegister(duration, runs)
	return &Jobs{duration: duration, runs: runs}
}

// Observe records one finished run.
func (j *Jobs) Observe(job, result string, elapsed time.Duration) {
	if j == nil || j.runs == nil {
		return
	}
	j.duration.WithLabelValues(normalizeLabel(job)).Observe(elapsed.Seconds())
	j.runs.WithLabelValues(normalizeLabel(job), normalizeLabel(result)).Inc()
}
