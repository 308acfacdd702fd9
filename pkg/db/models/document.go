package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lekhapadi/lekhapadi-backend/pkg/enums"
)

// Document is a generated or uploaded artifact tracked through the signature lifecycle.
type Document struct {
	ID                   uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Title                string               `gorm:"column:title;not null"`
	DocumentType         string               `gorm:"column:document_type;not null"`
	Status               enums.DocumentStatus `gorm:"column:status;type:document_status;not null"`
	OwnerEmail           string               `gorm:"column:owner_email;not null"`
	PrimaryArtifactURL   string               `gorm:"column:primary_artifact_url;not null"`
	PrimaryContentType   string               `gorm:"column:primary_content_type;not null"`
	SignatureRequestedAt *time.Time           `gorm:"column:signature_requested_at"`
	SignatureRequestedTo *string              `gorm:"column:signature_requested_to"`
	SignatureMessage     *string              `gorm:"column:signature_message"`
	SignedArtifactURL    *string              `gorm:"column:signed_artifact_url"`
	Version              int                  `gorm:"column:version;not null;default:1"`
	CreatedAt            time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (Document) TableName() string { return "documents" }

func (d *Document) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Version == 0 {
		d.Version = 1
	}
	return nil
}

// HasSignatureRequest reports whether a signer was ever invited.
func (d Document) HasSignatureRequest() bool {
	return d.SignatureRequestedAt != nil && d.SignatureRequestedTo != nil
}
