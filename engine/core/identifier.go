package core

import "github.com/google/uuid"

// NewIdentifier returns a random (version 4) UUID. Identifiers are never reused.
func NewIdentifier() uuid.UUID {
	return uuid.New()
}
