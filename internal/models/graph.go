package models

import (
	"time"

	"github.com/google/uuid"
)

// Graph is the registry record mapping an application-chosen graph
// identifier onto the identifier the underlying graph engine assigned.
// Both identifiers are globally unique, 1:1 and immutable once created;
// the registry is the only writer of this mapping.
type Graph struct {
	// AppGraphID is the human-chosen identifier exposed to clients.
	// Must match ^[A-Za-z_][A-Za-z0-9_]*$ (the engine requires names to
	// start with a letter or underscore).
	AppGraphID string

	// StorageGraphID is assigned by the graph engine at creation time.
	StorageGraphID string

	OrgID       uuid.UUID // owning organization, never reassigned
	Name        string
	Description string
	CreatedBy   uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}
