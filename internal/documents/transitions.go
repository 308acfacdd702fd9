package documents

import (
	"github.com/lekhapadi/lekhapadi-backend/pkg/enums"
	pkgerrors "github.com/lekhapadi/lekhapadi-backend/pkg/errors"
)

// Event is a lifecycle action applied to a document.
type Event string

const (
	EventRequestSignature Event = "request_signature"
	EventSign             Event = "sign"
)

var transitions = map[enums.DocumentStatus]map[Event]enums.DocumentStatus{
	enums.DocumentStatusCreated: {
		EventRequestSignature: enums.DocumentStatusPendingSignature,
	},
	enums.DocumentStatusPendingSignature: {
		EventRequestSignature: enums.DocumentStatusPendingSignature,
		EventSign:             enums.DocumentStatusSigned,
	},
}

// CanTransition returns the target status for event applied in from.
func CanTransition(from enums.DocumentStatus, event Event) (enums.DocumentStatus, bool) {
	to, ok := transitions[from][event]
	return to, ok
}

func nextStatus(from enums.DocumentStatus, event Event) (enums.DocumentStatus, error) {
	to, ok := CanTransition(from, event)
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "document status does not allow this action").
			WithDetails(map[string]any{"status": from, "event": event})
	}
	return to, nil
}
