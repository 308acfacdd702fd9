// Package registry decodes outbox rows into typed document events and
// decides which Pub/Sub topic each one goes to.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lekhapadi/lekhapadi-backend/pkg/config"
	"github.com/lekhapadi/lekhapadi-backend/pkg/db/models"
	"github.com/lekhapadi/lekhapadi-backend/pkg/enums"
	"github.com/lekhapadi/lekhapadi-backend/pkg/outbox"
	"github.com/lekhapadi/lekhapadi-backend/pkg/outbox/payloads"
)

type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() any
}

type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError marks a row that will fail the same way on every
// attempt; the relay parks it instead of retrying.
type NonRetryableError struct {
	Err error
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable outbox error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

// documentEvent is implemented by every payload so Resolve can check that
// the body describes the row's aggregate.
type documentEvent interface {
	Document() uuid.UUID
}

func document[T any, P interface {
	*T
	documentEvent
}](eventType enums.OutboxEventType, topic string) EventDescriptor {
	return EventDescriptor{
		EventType:      eventType,
		AggregateType:  enums.AggregateDocument,
		Topic:          topic,
		PayloadFactory: func() any { return P(new(T)) },
	}
}

// NewEventRegistry routes every document lifecycle event to the documents topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	topic := cfg.DocumentsTopic
	if topic == "" {
		return nil, errors.New("registry: documents topic is required")
	}
	reg := &EventRegistry{entries: map[enums.OutboxEventType]EventDescriptor{}}
	for _, d := range []EventDescriptor{
		document[payloads.DocumentCreatedEvent](enums.EventDocumentCreated, topic),
		document[payloads.SignatureRequestedEvent](enums.EventSignatureRequested, topic),
		document[payloads.DocumentSignedEvent](enums.EventDocumentSigned, topic),
		document[payloads.DocumentDeletedEvent](enums.EventDocumentDeleted, topic),
	} {
		reg.entries[d.EventType] = d
	}
	return reg, nil
}

// Resolve checks the row against its descriptor and decodes the envelope and
// typed payload. Every failure is non-retryable: the row itself is bad.
func (r *EventRegistry) Resolve(row models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[row.EventType]
	switch {
	case !ok:
		return nil, permanent("no descriptor for event %s", row.EventType)
	case desc.AggregateType != row.AggregateType:
		return nil, permanent("%s belongs to %s aggregates, row has %s", row.EventType, desc.AggregateType, row.AggregateType)
	case row.AggregateID == uuid.Nil:
		return nil, permanent("%s row has no aggregate_id", row.EventType)
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		return nil, permanent("decode envelope: %w", err)
	}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, permanent("%s envelope has no data", row.EventType)
	}
	payload := desc.PayloadFactory()
	if err := json.Unmarshal(data, payload); err != nil {
		return nil, permanent("decode %s data: %w", row.EventType, err)
	}
	if ev, ok := payload.(documentEvent); ok && ev.Document() != row.AggregateID {
		return nil, permanent("%s data names document %s, row aggregate is %s", row.EventType, ev.Document(), row.AggregateID)
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}

func permanent(format string, args ...any) error {
	return NewNonRetryableError(fmt.Errorf(format, args...))
}
