package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
		{code: CodePayloadTooLarge, status: http.StatusRequestEntityTooLarge, publicMsg: "payload too large", detailsOK: true},
		{code: CodeStorage, status: http.StatusServiceUnavailable, publicMsg: "artifact storage unavailable", retryable: true},
		{code: CodeConversion, status: http.StatusBadGateway, publicMsg: "document conversion failed", retryable: true},
		{code: CodeSignatureEmbed, status: http.StatusUnprocessableEntity, publicMsg: "signature could not be applied", detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCodeFollowsWrappedChain(t *testing.T) {
	inner := New(CodeConversion, "engine timed out")
	outer := fmt.Errorf("convert and sign: %w", inner)
	if !IsCode(outer, CodeConversion) {
		t.Fatalf("expected IsCode to find conversion code through wrapping")
	}
	if IsCode(outer, CodeStorage) {
		t.Fatalf("did not expect storage code")
	}
	if IsCode(stdErrors.New("plain"), CodeInternal) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestDumpCarriesMetadataAndPostgresDetail(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key", ConstraintName: "ux_outbox_events_event_aggregate"}
	err := Wrap(CodeDependency, fmt.Errorf("insert outbox event: %w", pgErr), "create document")

	dump := Dump(err)
	if dump.Code != CodeDependency || dump.Status != 503 || !dump.Retryable {
		t.Fatalf("unexpected metadata %+v", dump)
	}
	if dump.ClientFault() {
		t.Fatalf("dependency failures are not client faults")
	}
	if dump.PG == nil || dump.PG.Constraint != "ux_outbox_events_event_aggregate" {
		t.Fatalf("expected postgres detail, got %+v", dump.PG)
	}
	if len(dump.Chain) < 3 {
		t.Fatalf("expected full chain, got %v", dump.Chain)
	}
	if dump.Fields()["pg_code"] != "23505" {
		t.Fatalf("pg_code missing from log fields")
	}
}

func TestDumpOfUntypedErrorIsInternal(t *testing.T) {
	dump := Dump(stdErrors.New("boom"))
	if dump.Code != CodeInternal || dump.Status != 500 || dump.PG != nil {
		t.Fatalf("unexpected dump %+v", dump)
	}
	if Dump(nil).Message != "" {
		t.Fatalf("nil error should produce an empty dump")
	}
	if !Dump(New(CodeValidation, "bad")).ClientFault() {
		t.Fatalf("validation errors are client faults")
	}
}
