package documents

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/lekhapadi/lekhapadi-backend/pkg/errors"
)

// NoSignatureRequestError is returned when signing a document nobody was asked to sign.
type NoSignatureRequestError struct {
	DocumentID uuid.UUID
}

func (e *NoSignatureRequestError) Error() string {
	return fmt.Sprintf("document %s has no signature request", e.DocumentID)
}

func noSignatureRequest(id uuid.UUID) error {
	return pkgerrors.Wrap(pkgerrors.CodeStateConflict, &NoSignatureRequestError{DocumentID: id}, "no signature has been requested for this document").
		WithDetails(map[string]any{"document_id": id.String(), "reason": "no_signature_request"})
}

func notFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
}

func forbidden() error {
	return pkgerrors.New(pkgerrors.CodeForbidden, "document belongs to another user")
}

func versionConflict(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "document was modified by another request; retry")
}
