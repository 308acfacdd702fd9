package enums

import "testing"

func TestParseOutboxEventType(t *testing.T) {
	t.Parallel()

	for _, want := range []OutboxEventType{EventDocumentCreated, EventSignatureRequested, EventDocumentSigned, EventDocumentDeleted} {
		got, err := ParseOutboxEventType(string(want))
		if err != nil {
			t.Fatalf("ParseOutboxEventType(%q) unexpected error: %v", want, err)
		}
		if got != want || !got.IsValid() {
			t.Fatalf("ParseOutboxEventType(%q) = %q", want, got)
		}
	}
	if _, err := ParseOutboxEventType("order_created"); err == nil {
		t.Fatalf("expected unknown event type to be rejected")
	}
}

func TestOnlySignatureRequestsRepeat(t *testing.T) {
	t.Parallel()

	for _, e := range documentLifecycle {
		if got, want := e.Repeatable(), e == EventSignatureRequested; got != want {
			t.Fatalf("%s.Repeatable() = %v, want %v", e, got, want)
		}
	}
}

func TestParseOutboxAggregateType(t *testing.T) {
	t.Parallel()

	got, err := ParseOutboxAggregateType("document")
	if err != nil || got != AggregateDocument {
		t.Fatalf("unexpected aggregate %q err=%v", got, err)
	}
	if OutboxAggregateType("store").IsValid() {
		t.Fatalf("store must not be a valid aggregate")
	}
	if _, err := ParseOutboxAggregateType(""); err == nil {
		t.Fatalf("expected empty aggregate to be rejected")
	}
}

func TestStatusAndReasonValidity(t *testing.T) {
	t.Parallel()

	if !DocumentStatusPendingSignature.IsValid() || DocumentStatus("UnderReview").IsValid() {
		t.Fatalf("unexpected document status validity")
	}
	if !OutboxDLQReasonNonRetryable.IsValid() || OutboxDLQErrorReason("timeout").IsValid() {
		t.Fatalf("unexpected dlq reason validity")
	}
}
