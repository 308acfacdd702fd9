package documents

import (
	"strings"

	"github.com/lekhapadi/lekhapadi-backend/pkg/db/models"
)

func sameEmail(a, b string) bool {
	return a != "" && strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// IsOwner reports whether email owns doc.
func IsOwner(doc *models.Document, email string) bool {
	return doc != nil && sameEmail(doc.OwnerEmail, email)
}

// IsSigner reports whether email is the currently invited signer.
func IsSigner(doc *models.Document, email string) bool {
	if doc == nil || !doc.HasSignatureRequest() {
		return false
	}
	return sameEmail(*doc.SignatureRequestedTo, email)
}

// CanRead allows the owner and the invited signer.
func CanRead(doc *models.Document, email string) bool {
	return IsOwner(doc, email) || IsSigner(doc, email)
}
