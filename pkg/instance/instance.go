package instance

import (
	"os"
	"strings"
)

// EnvInstanceID names the replica when several publishers drain the same outbox.
const EnvInstanceID = "INSTANCE_ID"

// GetID returns the configured instance identifier or "<kind>-0".
func GetID(kind string) string {
	if id := strings.TrimSpace(os.Getenv(EnvInstanceID)); id != "" {
		return id
	}
	if kind == "" {
		kind = "lekhapadi"
	}
	return kind + "-0"
}
