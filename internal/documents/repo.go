package documents

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lekhapadi/lekhapadi-backend/internal/repo"
	"github.com/lekhapadi/lekhapadi-backend/pkg/db/models"
)

// ErrVersionConflict is returned when a conditional update matched no row.
var ErrVersionConflict = errors.New("document was modified concurrently")

// Repository persists documents.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx binds the repository to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

func (r *Repository) Create(ctx context.Context, doc *models.Document) error {
	return r.DB(ctx).Create(doc).Error
}

// FindByID returns gorm.ErrRecordNotFound for unknown ids.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	if err := r.DB(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByOwner returns the owner's documents newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerEmail string, limit int) ([]models.Document, error) {
	query := r.DB(ctx).
		Where("owner_email = ?", ownerEmail).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.Document
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateWithVersion writes the mutable lifecycle columns only if the stored
// version still equals doc.Version, then advances doc.Version.
func (r *Repository) UpdateWithVersion(ctx context.Context, doc *models.Document) error {
	now := time.Now().UTC()
	result := r.DB(ctx).
		Model(&models.Document{}).
		Where("id = ? AND version = ?", doc.ID, doc.Version).
		Updates(map[string]any{
			"status":                 doc.Status,
			"signature_requested_at": doc.SignatureRequestedAt,
			"signature_requested_to": doc.SignatureRequestedTo,
			"signature_message":      doc.SignatureMessage,
			"signed_artifact_url":    doc.SignedArtifactURL,
			"version":                doc.Version + 1,
			"updated_at":             now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	doc.Version++
	doc.UpdatedAt = now
	return nil
}

// Delete removes the row; deleting a missing id is not an error.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.Document{}).Error
}
