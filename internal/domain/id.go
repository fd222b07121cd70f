package domain

import (
	"strings"

	"github.com/google/uuid"
)

// NewID generates a UUIDv7 string for application-owned entities.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewTaskName generates an opaque task name used to correlate a dispatched
// unit of work with its eventual result callback.
func NewTaskName() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
