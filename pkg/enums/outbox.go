package enums

import (
	"fmt"
	"slices"
)

// OutboxAggregateType is the aggregate_type_enum column. Documents are the
// only aggregate that emits events.
type OutboxAggregateType string

const AggregateDocument OutboxAggregateType = "document"

func (a OutboxAggregateType) IsValid() bool {
	return a == AggregateDocument
}

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	a := OutboxAggregateType(value)
	if !a.IsValid() {
		return "", fmt.Errorf("unknown aggregate type %q", value)
	}
	return a, nil
}

// OutboxEventType is the event_type_enum column.
type OutboxEventType string

const (
	EventDocumentCreated    OutboxEventType = "document_created"
	EventSignatureRequested OutboxEventType = "signature_requested"
	EventDocumentSigned     OutboxEventType = "document_signed"
	EventDocumentDeleted    OutboxEventType = "document_deleted"
)

// documentLifecycle is ordered the way a document moves through it.
var documentLifecycle = []OutboxEventType{
	EventDocumentCreated,
	EventSignatureRequested,
	EventDocumentSigned,
	EventDocumentDeleted,
}

func (e OutboxEventType) IsValid() bool {
	return slices.Contains(documentLifecycle, e)
}

// Repeatable reports whether a document may emit the event more than once.
// Only signature requests repeat; the outbox keeps a partial unique index
// on everything else.
func (e OutboxEventType) Repeatable() bool {
	return e == EventSignatureRequested
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	e := OutboxEventType(value)
	if !e.IsValid() {
		return "", fmt.Errorf("unknown event type %q", value)
	}
	return e, nil
}
