package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/models"
)

// Sentinel errors for membership store operations
var (
	ErrMembershipNotFound = errors.New("membership not found")
	ErrEmptyRole          = errors.New("role must not be empty")
)

// MembershipStore persists org-scoped and graph-scoped role grants.
// Grants are upserts keyed by the unique pair; re-granting overwrites the
// role. Lookups that find nothing return ErrMembershipNotFound so callers
// can distinguish "no grant" from an empty role, which the store rejects.
type MembershipStore interface {
	// Org-scoped grants, keyed by (org, user).
	UpsertOrgRole(ctx context.Context, m *models.OrgMembership) error
	GetOrgRole(ctx context.Context, orgID, userID uuid.UUID) (string, error)
	DeleteOrgRole(ctx context.Context, orgID, userID uuid.UUID) error
	ListOrgMembers(ctx context.Context, orgID uuid.UUID) ([]*models.OrgMembership, error)
	DeleteOrgMembers(ctx context.Context, orgID uuid.UUID) error

	// Graph-scoped grants, keyed by (graph, user).
	UpsertGraphRole(ctx context.Context, m *models.GraphMembership) error
	GetGraphRole(ctx context.Context, appGraphID string, userID uuid.UUID) (string, error)
	DeleteGraphRole(ctx context.Context, appGraphID string, userID uuid.UUID) error
	ListGraphMembers(ctx context.Context, appGraphID string) ([]*models.GraphMembership, error)
	DeleteGraphMembers(ctx context.Context, appGraphID string) error

	// ListOrgsForUser returns the IDs of every organization the user holds
	// an org-scoped role in.
	ListOrgsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
