package documents

import (
	"time"

	"github.com/google/uuid"

	internaldocuments "github.com/lekhapadi/lekhapadi-backend/internal/documents"
	"github.com/lekhapadi/lekhapadi-backend/pkg/db/models"
)

type createRequest struct {
	DocumentType string         `json:"documentType" validate:"required,max=100"`
	FieldValues  map[string]any `json:"fieldValues" validate:"required"`
	Title        string         `json:"title" validate:"omitempty,max=200"`
}

func (r createRequest) toInput() internaldocuments.TemplateInput {
	return internaldocuments.TemplateInput{
		DocumentType: r.DocumentType,
		FieldValues:  r.FieldValues,
		Title:        r.Title,
	}
}

type signatureRequest struct {
	DocumentID  uuid.UUID `json:"documentId" validate:"required"`
	SignerEmail string    `json:"signerEmail" validate:"required,email"`
	Message     string    `json:"message" validate:"omitempty,max=2000"`
}

func (r signatureRequest) toInput() internaldocuments.SignatureRequestInput {
	return internaldocuments.SignatureRequestInput{
		DocumentID:  r.DocumentID,
		SignerEmail: r.SignerEmail,
		Message:     r.Message,
	}
}

type digitalSignRequest struct {
	DocumentID       uuid.UUID `json:"documentId" validate:"required"`
	SignatureDataURL string    `json:"signatureDataUrl" validate:"required"`
	DocumentURL      string    `json:"documentUrl"`
	Width            float64   `json:"width" validate:"omitempty,gt=0,lte=1000"`
	Height           float64   `json:"height" validate:"omitempty,gt=0,lte=1000"`
}

func (r digitalSignRequest) toInput() internaldocuments.DigitalSignInput {
	return internaldocuments.DigitalSignInput{
		DocumentID:       r.DocumentID,
		SignatureDataURL: r.SignatureDataURL,
		DocumentURL:      r.DocumentURL,
		Width:            r.Width,
		Height:           r.Height,
	}
}

type signatureRequestView struct {
	RequestedAt      time.Time `json:"requestedAt"`
	RequestedToEmail string    `json:"requestedToEmail"`
	Message          *string   `json:"message,omitempty"`
}

// documentView is the public JSON shape of a document.
type documentView struct {
	ID                 uuid.UUID             `json:"id"`
	Title              string                `json:"title"`
	DocumentType       string                `json:"documentType"`
	Status             string                `json:"status"`
	OwnerEmail         string                `json:"ownerEmail"`
	PrimaryArtifactURL string                `json:"primaryArtifactUrl"`
	PrimaryContentType string                `json:"primaryContentType"`
	SignatureRequest   *signatureRequestView `json:"signatureRequest,omitempty"`
	SignedArtifactURL  *string               `json:"signedArtifactUrl,omitempty"`
	Version            int                   `json:"version"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

func newDocumentView(doc *models.Document) documentView {
	view := documentView{
		ID:                 doc.ID,
		Title:              doc.Title,
		DocumentType:       doc.DocumentType,
		Status:             doc.Status.String(),
		OwnerEmail:         doc.OwnerEmail,
		PrimaryArtifactURL: doc.PrimaryArtifactURL,
		PrimaryContentType: doc.PrimaryContentType,
		SignedArtifactURL:  doc.SignedArtifactURL,
		Version:            doc.Version,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}
	if doc.HasSignatureRequest() {
		view.SignatureRequest = &signatureRequestView{
			RequestedAt:      *doc.SignatureRequestedAt,
			RequestedToEmail: *doc.SignatureRequestedTo,
			Message:          doc.SignatureMessage,
		}
	}
	return view
}

func newDocumentViews(docs []models.Document) []documentView {
	out := make([]documentView, 0, len(docs))
	for i := range docs {
		out = append(out, newDocumentView(&docs[i]))
	}
	return out
}
