package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents a tenant in the system. Each organization owns
// zero or more graphs and has membership records granting roles to users.
type Organization struct {
	OrgID       uuid.UUID // UUIDv7
	Name        string
	Description string

	// OwnerUserID is the user that created the organization. The owner is
	// always authorized regardless of explicit membership rows, so a
	// misconfigured membership table cannot lock everyone out.
	OwnerUserID uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}
