// Package membership owns org-scoped and graph-scoped role grants and
// answers role-resolution queries for the authorization engine.
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/models"
	"github.com/graphgate/graphgate/internal/store"
	"github.com/rs/zerolog/log"
)

// Sentinel errors for directory operations
var (
	ErrEmptyRole     = errors.New("role must not be empty")
	ErrOrgNotFound   = errors.New("organization not found")
	ErrGraphNotFound = errors.New("graph not found")
)

// Directory manages role grants. Grants are upserts keyed by the unique
// (scope, user) pair; revoking a grant that was never made is a no-op
// success so retries stay safe.
type Directory struct {
	memberships store.MembershipStore
	orgs        store.OrganizationStore
	graphs      store.GraphStore
}

// NewDirectory creates a Directory over the given stores.
func NewDirectory(memberships store.MembershipStore, orgs store.OrganizationStore, graphs store.GraphStore) *Directory {
	return &Directory{
		memberships: memberships,
		orgs:        orgs,
		graphs:      graphs,
	}
}

// GrantOrgRole grants or overwrites a user's role on an organization.
func (d *Directory) GrantOrgRole(ctx context.Context, orgID, userID uuid.UUID, role string) error {
	if role == "" {
		return ErrEmptyRole
	}

	if _, err := d.orgs.Get(ctx, orgID); err != nil {
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return ErrOrgNotFound
		}
		return fmt.Errorf("failed to resolve organization: %w", err)
	}

	now := time.Now()
	err := d.memberships.UpsertOrgRole(ctx, &models.OrgMembership{
		OrgID:     orgID,
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, store.ErrEmptyRole) {
			return ErrEmptyRole
		}
		return fmt.Errorf("failed to grant org role: %w", err)
	}

	log.Debug().
		Str("org_id", orgID.String()).
		Str("user_id", userID.String()).
		Str("role", role).
		Msg("Granted org role")

	return nil
}

// RevokeOrgRole removes a user's org-scoped role. Revoking a membership
// that was never granted succeeds without error.
func (d *Directory) RevokeOrgRole(ctx context.Context, orgID, userID uuid.UUID) error {
	err := d.memberships.DeleteOrgRole(ctx, orgID, userID)
	if err != nil && !errors.Is(err, store.ErrMembershipNotFound) {
		return fmt.Errorf("failed to revoke org role: %w", err)
	}
	return nil
}

// GetOrgRole returns the role granted to a user on an organization, or
// ("", false) when no grant exists.
func (d *Directory) GetOrgRole(ctx context.Context, orgID, userID uuid.UUID) (string, bool, error) {
	role, err := d.memberships.GetOrgRole(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, store.ErrMembershipNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get org role: %w", err)
	}

	return role, true, nil
}

// GrantGraphRole grants or overwrites a user's role on a graph.
func (d *Directory) GrantGraphRole(ctx context.Context, appGraphID string, userID uuid.UUID, role string) error {
	if role == "" {
		return ErrEmptyRole
	}

	if _, err := d.graphs.Get(ctx, appGraphID); err != nil {
		if errors.Is(err, store.ErrGraphNotFound) {
			return ErrGraphNotFound
		}
		return fmt.Errorf("failed to resolve graph: %w", err)
	}

	now := time.Now()
	err := d.memberships.UpsertGraphRole(ctx, &models.GraphMembership{
		AppGraphID: appGraphID,
		UserID:     userID,
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		if errors.Is(err, store.ErrEmptyRole) {
			return ErrEmptyRole
		}
		return fmt.Errorf("failed to grant graph role: %w", err)
	}

	log.Debug().
		Str("app_graph_id", appGraphID).
		Str("user_id", userID.String()).
		Str("role", role).
		Msg("Granted graph role")

	return nil
}

// RevokeGraphRole removes a user's graph-scoped role. Revoking a
// membership that was never granted succeeds without error.
func (d *Directory) RevokeGraphRole(ctx context.Context, appGraphID string, userID uuid.UUID) error {
	err := d.memberships.DeleteGraphRole(ctx, appGraphID, userID)
	if err != nil && !errors.Is(err, store.ErrMembershipNotFound) {
		return fmt.Errorf("failed to revoke graph role: %w", err)
	}
	return nil
}

// GetGraphRole returns the role granted to a user on a graph, or
// ("", false) when no grant exists.
func (d *Directory) GetGraphRole(ctx context.Context, appGraphID string, userID uuid.UUID) (string, bool, error) {
	role, err := d.memberships.GetGraphRole(ctx, appGraphID, userID)
	if err != nil {
		if errors.Is(err, store.ErrMembershipNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get graph role: %w", err)
	}

	return role, true, nil
}

// ListOrgMembers returns all membership records of an organization.
func (d *Directory) ListOrgMembers(ctx context.Context, orgID uuid.UUID) ([]*models.OrgMembership, error) {
	return d.memberships.ListOrgMembers(ctx, orgID)
}

// ListGraphMembers returns all membership records of a graph.
func (d *Directory) ListGraphMembers(ctx context.Context, appGraphID string) ([]*models.GraphMembership, error) {
	return d.memberships.ListGraphMembers(ctx, appGraphID)
}
