// Package registry maps outbox event types to their topic and payload type.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/vendorhub-backend/pkg/config"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox/payloads"
)

// EventDescriptor ties an event type to its aggregate, topic and payload type.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() any
}

// ResolvedEvent is an outbox row decoded against its descriptor.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.Envelope
	Payload    any
}

type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError marks a row that will fail the same way on every attempt.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func payloadOf[T any]() func() any {
	return func() any { return new(T) }
}

// NewEventRegistry publishes order, item and document events on the orders
// topic. Refund and complaint events go to the disputes topic when one is
// configured, otherwise to the orders topic as well.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.OrdersTopic == "" {
		return nil, errors.New("orders topic is required")
	}
	orders := cfg.OrdersTopic
	disputes := cfg.DisputesTopic
	if disputes == "" {
		disputes = orders
	}

	descriptors := []EventDescriptor{
		{enums.EventOrderCreated, enums.AggregateOrder, orders, payloadOf[payloads.OrderCreatedEvent]()},
		{enums.EventOrderStatusChanged, enums.AggregateOrder, orders, payloadOf[payloads.OrderStatusChangedEvent]()},
		{enums.EventOrderItemStatusChanged, enums.AggregateOrderItem, orders, payloadOf[payloads.OrderItemStatusChangedEvent]()},
		{enums.EventDispatchCodeIssued, enums.AggregateOrder, orders, payloadOf[payloads.DispatchCodeIssuedEvent]()},
		{enums.EventDocumentGenerated, enums.AggregateDocument, orders, payloadOf[payloads.DocumentGeneratedEvent]()},
		{enums.EventProductCommissionUpdate, enums.AggregateProduct, orders, payloadOf[payloads.ProductCommissionUpdatedEvent]()},
		{enums.EventRefundRequested, enums.AggregateRefund, disputes, payloadOf[payloads.RefundRequestedEvent]()},
		{enums.EventRefundDecided, enums.AggregateRefund, disputes, payloadOf[payloads.RefundDecidedEvent]()},
		{enums.EventRefundMessagePosted, enums.AggregateRefund, disputes, payloadOf[payloads.RefundMessagePostedEvent]()},
		{enums.EventComplaintOpened, enums.AggregateComplaint, disputes, payloadOf[payloads.ComplaintEvent]()},
		{enums.EventComplaintStatusChanged, enums.AggregateComplaint, disputes, payloadOf[payloads.ComplaintEvent]()},
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor, len(descriptors))}
	for _, desc := range descriptors {
		if _, dup := reg.entries[desc.EventType]; dup {
			return nil, fmt.Errorf("event type %s registered twice", desc.EventType)
		}
		reg.entries[desc.EventType] = desc
	}
	return reg, nil
}

// Topics lists every distinct topic the registry routes to.
func (r *EventRegistry) Topics() []string {
	seen := map[string]bool{}
	var topics []string
	for _, desc := range r.entries {
		if !seen[desc.Topic] {
			seen[desc.Topic] = true
			topics = append(topics, desc.Topic)
		}
	}
	return topics
}

// Resolve checks the row against its descriptor and decodes the typed
// payload. Every failure is non-retryable.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	switch {
	case !ok:
		return nil, NewNonRetryableError(fmt.Errorf("no descriptor for event type %s", event.EventType))
	case desc.AggregateType != event.AggregateType:
		return nil, NewNonRetryableError(fmt.Errorf("%s carries aggregate %s, want %s", event.EventType, event.AggregateType, desc.AggregateType))
	case event.AggregateID == uuid.Nil:
		return nil, NewNonRetryableError(fmt.Errorf("%s has no aggregate id", event.EventType))
	}

	env, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, NewNonRetryableError(err)
	}
	payload := desc.PayloadFactory()
	if err := json.Unmarshal(env.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: env, Payload: payload}, nil
}
