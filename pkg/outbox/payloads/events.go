package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/lekhapadi/lekhapadi-backend/pkg/enums"
)

// DocumentCreatedEvent is emitted after a rendered or uploaded document is stored.
type DocumentCreatedEvent struct {
	DocumentID   uuid.UUID            `json:"document_id"`
	DocumentType string               `json:"document_type"`
	Title        string               `json:"title"`
	OwnerEmail   string               `json:"owner_email"`
	Status       enums.DocumentStatus `json:"status"`
	ArtifactURL  string               `json:"artifact_url"`
}

// SignatureRequestedEvent records that a signer was (re)invited.
type SignatureRequestedEvent struct {
	DocumentID  uuid.UUID `json:"document_id"`
	OwnerEmail  string    `json:"owner_email"`
	SignerEmail string    `json:"signer_email"`
	RequestedAt time.Time `json:"requested_at"`
	Rerequest   bool      `json:"rerequest"`
}

// DocumentSignedEvent is emitted once a signed artifact is attached.
type DocumentSignedEvent struct {
	DocumentID        uuid.UUID `json:"document_id"`
	OwnerEmail        string    `json:"owner_email"`
	SignedBy          string    `json:"signed_by"`
	Method            string    `json:"method"`
	SignedArtifactURL string    `json:"signed_artifact_url"`
	SignedAt          time.Time `json:"signed_at"`
}

// DocumentDeletedEvent is emitted after the record is removed.
type DocumentDeletedEvent struct {
	DocumentID uuid.UUID `json:"document_id"`
	OwnerEmail string    `json:"owner_email"`
	DeletedAt  time.Time `json:"deleted_at"`
}

const (
	SignMethodUpload  = "upload"
	SignMethodDigital = "digital"
)

func (e *DocumentCreatedEvent) Document() uuid.UUID    { return e.DocumentID }
func (e *SignatureRequestedEvent) Document() uuid.UUID { return e.DocumentID }
func (e *DocumentSignedEvent) Document() uuid.UUID     { return e.DocumentID }
func (e *DocumentDeletedEvent) Document() uuid.UUID    { return e.DocumentID }
