package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestFulfillmentCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFulfillment(reg)
	m.ItemTransition("PENDING", "PROCESSING", "ok")
	m.ItemTransition("PENDING", "SHIPPED", "")
	m.Document("INVOICE", "created")
	m.Document("INVOICE", "reused")
	m.Document("INVOICE", "reused")
	m.Dispatch("issued")
	m.RefundDecision("APPROVED")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "documents_generated_total", "result", "reused"); err != nil {
		t.Fatalf("fetch documents: %v", err)
	} else if got != 2 {
		t.Fatalf("expected reused=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "order_item_transitions_total", "result", "unknown"); err != nil {
		t.Fatalf("fetch transitions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected empty result label normalized, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "dispatch_codes_total", "result", "issued"); err != nil || got != 1 {
		t.Fatalf("expected issued=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "refund_decisions_total", "decision", "APPROVED"); err != nil || got != 1 {
		t.Fatalf("expected approved=1, got %f (%v)", got, err)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var f *Fulfillment
	f.ItemTransition("a", "b", "c")
	f.Document("INVOICE", "created")
	var h *HTTP
	h.Observe("GET", "/", 200, time.Millisecond)
	var o *Outbox
	o.Event("order_created", "published")
	o.ObserveBatch(time.Second)
	NewFulfillment(nil).Dispatch("issued")
	var j *Jobs
	j.Observe("outbox-retention", "success", time.Second)
	NewJobs(nil).Observe("refund-backlog", "failure", time.Second)
}

func TestJobMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	jobs := NewJobs(reg)
	jobs.Observe("outbox-retention", "success", 20*time.Millisecond)
	jobs.Observe("outbox-retention", "failure", 10*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "cron_job_runs_total", "result", "failure"); err != nil || got != 1 {
		t.Fatalf("expected failure=1, got %f (%v)", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "cron_job_duration_seconds", "job", "outbox-retention"); err != nil || got <= 0 {
		t.Fatalf("expected job duration recorded, got %f (%v)", got, err)
	}
}

func TestHTTPAndOutboxMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewHTTP(reg).Observe("POST", "/api/v1/documents/{type}", 201, 250*time.Millisecond)
	out := NewOutbox(reg)
	out.ObserveBatch(100 * time.Millisecond)
	out.Event("order_created", "published")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchHistogramSum(mfs, "http_request_duration_seconds", "route", "/api/v1/documents/{type}"); err != nil {
		t.Fatalf("fetch http: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "outbox_events_total", "result", "published"); err != nil || got != 1 {
		t.Fatalf("expected published=1, got %f (%v)", got, err)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
