package outbox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

// EnvelopeVersion is the schema version written into new envelopes.
const EnvelopeVersion = 1

// DomainEvent is what a service hands to Emit.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	OccurredAt    time.Time
}

// ActorRef identifies who caused the event.
type ActorRef struct {
	ActorID  uuid.UUID  `json:"actorId"`
	VendorID *uuid.UUID `json:"vendorId,omitempty"`
	Role     string     `json:"role,omitempty"`
}

// Envelope is the JSON stored in outbox_events.payload and sent as the
// Pub/Sub message body.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

func (e DomainEvent) validate() error {
	switch {
	case !e.EventType.IsValid():
		return fmt.Errorf("unknown outbox event type %q", e.EventType)
	case !e.AggregateType.IsValid():
		return fmt.Errorf("unknown outbox aggregate type %q", e.AggregateType)
	case e.AggregateID == uuid.Nil:
		return fmt.Errorf("%s event without aggregate id", e.EventType)
	}
	return nil
}

// seal wraps the event data in a fresh envelope with its own event id.
func (e DomainEvent) seal() (Envelope, []byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return Envelope{}, nil, fmt.Errorf("encode %s data: %w", e.EventType, err)
	}
	occurred := e.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	env := Envelope{
		Version:    EnvelopeVersion,
		EventID:    uuid.NewString(),
		OccurredAt: occurred.UTC(),
		Actor:      e.Actor,
		Data:       data,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return Envelope{}, nil, fmt.Errorf("encode %s envelope: %w", e.EventType, err)
	}
	return env, raw, nil
}

// DecodeEnvelope parses a stored payload and rejects envelopes this build
// cannot read or that carry no data.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Version < 1 || env.Version > EnvelopeVersion {
		return Envelope{}, fmt.Errorf("unsupported envelope version %d", env.Version)
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Envelope{}, fmt.Errorf("envelope %s has no data", env.EventID)
	}
	return env, nil
}
