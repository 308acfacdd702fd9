package enums

import (
	"fmt"
	"strings"
)

// DocumentStatus maps to the document_status enum in Postgres.
type DocumentStatus string

const (
	DocumentStatusCreated          DocumentStatus = "Created"
	DocumentStatusPendingSignature DocumentStatus = "Pending Signature"
	DocumentStatusSigned           DocumentStatus = "Signed"
	DocumentStatusRejected         DocumentStatus = "Rejected"
)

var validDocumentStatuses = []DocumentStatus{
	DocumentStatusCreated,
	DocumentStatusPendingSignature,
	DocumentStatusSigned,
	DocumentStatusRejected,
}

// String returns the literal string for the status.
func (s DocumentStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is known.
func (s DocumentStatus) IsValid() bool {
	for _, candidate := range validDocumentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further lifecycle events apply.
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusSigned || s == DocumentStatusRejected
}

// ParseDocumentStatus converts raw input into a DocumentStatus. The legacy
// "PendingSignature" spelling is accepted.
func ParseDocumentStatus(value string) (DocumentStatus, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validDocumentStatuses {
		if string(candidate) == trimmed {
			return candidate, nil
		}
	}
	if strings.EqualFold(trimmed, "PendingSignature") {
		return DocumentStatusPendingSignature, nil
	}
	return "", fmt.Errorf("invalid document status %q", value)
}
