package models

import (
	"time"

	"github.com/google/uuid"
)

// OrgMembership grants a user a role across all graphs of an organization.
// Unique per (org, user); the role string is never empty.
type OrgMembership struct {
	OrgID     uuid.UUID
	UserID    uuid.UUID
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GraphMembership grants a user a role on a single graph. A graph-level
// role overrides the user's org-level role for that graph only.
type GraphMembership struct {
	AppGraphID string
	UserID     uuid.UUID
	Role       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
