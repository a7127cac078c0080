package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Fulfillment records the outcome of state changing fulfillment operations.
// A nil *Fulfillment is valid and records nothing.
type Fulfillment struct {
	transitions *prometheus.CounterVec
	documents   *prometheus.CounterVec
	dispatch    *prometheus.CounterVec
	refunds     *prometheus.CounterVec
}

// NewFulfillment registers the fulfillment counters on reg.
func NewFulfillment(reg prometheus.Registerer) *Fulfillment {
	if reg == nil {
		return &Fulfillment{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_item_transitions_total",
		Help: "Order item status transition attempts.",
	}, []string{"from", "to", "result"})
	documents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "documents_generated_total",
		Help: "Document generation calls by type and result (created, reused, error).",
	}, []string{"type", "result"})
	dispatch := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_codes_total",
		Help: "Dispatch code requests by result (issued, reused, error).",
	}, []string{"result"})
	refunds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "refund_decisions_total",
		Help: "Refund decisions by outcome.",
	}, []string{"decision"})
	reg.MustRegister(transitions, documents, dispatch, refunds)
	return &Fulfillment{
		transitions: transitions,
		documents:   documents,
		dispatch:    dispatch,
		refunds:     refunds,
	}
}

// ItemTransition counts one attempted item transition.
func (f *Fulfillment) ItemTransition(from, to, result string) {
	if f == nil || f.transitions == nil {
		return
	}
	f.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to), normalizeLabel(result)).Inc()
}

// Document counts one document generation call.
func (f *Fulfillment) Document(docType, result string) {
	if f == nil || f.documents == nil {
		return
	}
	f.documents.WithLabelValues(normalizeLabel(docType), normalizeLabel(result)).Inc()
}

// Dispatch counts one dispatch code request.
func (f *Fulfillment) Dispatch(result string) {
	if f == nil || f.dispatch == nil {
		return
	}
	f.dispatch.WithLabelValues(normalizeLabel(result)).Inc()
}

// RefundDecision counts one accepted refund decision.
func (f *Fulfillment) RefundDecision(decision string) {
	if f == nil || f.refunds == nil {
		return
	}
	f.refunds.WithLabelValues(normalizeLabel(decision)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
