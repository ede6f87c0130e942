package registry

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

// CreateOrganization provisions a new organization. The creating user
// becomes the owner and receives an implicit org-admin membership.
func (r *Registry) CreateOrganization(ctx context.Context, name, description string, createdBy uuid.UUID) (*models.Organization, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	orgID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate org id: %w", err)
	}

	now := time.Now()
	org := &models.Organization{
		OrgID:       orgID,
		Name:        name,
		Description: description,
		OwnerUserID: createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := r.orgs.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	if err := r.memberships.UpsertOrgRole(ctx, &models.OrgMembership{
		OrgID:     orgID,
		UserID:    createdBy,
		Role:      OrgAdminRole,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		log.Warn().
			Err(err).
			Str("org_id", orgID.String()).
			Msg("Failed to grant creator org-admin role")
	}

	log.Info().
		Str("org_id", orgID.String()).
		Str("name", name).
		Msg("Created organization")

	return org, nil
}

// GetOrganization retrieves an organization by ID.
func (r *Registry) GetOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	org, err := r.orgs.Get(ctx, orgID)
	if err != nil {
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

// DeleteOrganization removes an organization and everything under it:
// every graph (via the graph cascade, including engine drops), then the
// org memberships, then the org row. Users are never deleted. Deleting a
// non-existent organization is a no-op success.
func (r *Registry) DeleteOrganization(ctx context.Context, orgID uuid.UUID) error {
	if _, err := r.orgs.Get(ctx, orgID); err != nil {
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return nil
		}
		return fmt.Errorf("failed to resolve organization: %w", err)
	}

	graphs, err := r.graphs.ListByOrg(ctx, orgID)
	if err != nil {
		return fmt.Errorf("failed to list graphs for cascade: %w", err)
	}

	for _, graph := range graphs {
		if err := r.DeleteGraph(ctx, graph.AppGraphID); err != nil {
			return fmt.Errorf("failed to cascade graph %s: %w", graph.AppGraphID, err)
		}
	}

	if err := r.memberships.DeleteOrgMembers(ctx, orgID); err != nil {
		return fmt.Errorf("failed to cascade org memberships: %w", err)
	}

	if err := r.orgs.Delete(ctx, orgID); err != nil && !errors.Is(err, store.ErrOrganizationNotFound) {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	log.Info().
		Str("org_id", orgID.String()).
		Msg("Deleted organization")

	return nil
}

// ListOrganizationsForUser returns the organizations the user belongs
// to: every org they hold a membership in, plus every org they own.
// Ownership counts even without a membership row, matching the owner
// safety valve in authorization.
func (r *Registry) ListOrganizationsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	orgIDs, err := r.memberships.ListOrgsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list org memberships: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(orgIDs))
	orgs := make([]*models.Organization, 0, len(orgIDs))
	for _, orgID := range orgIDs {
		org, err := r.orgs.Get(ctx, orgID)
		if err != nil {
			if errors.Is(err, store.ErrOrganizationNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to get organization: %w", err)
		}
		seen[orgID] = struct{}{}
		orgs = append(orgs, org)
	}

	owned, err := r.orgs.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned organizations: %w", err)
	}
	for _, org := range owned {
		if _, ok := seen[org.OrgID]; ok {
			continue
		}
		orgs = append(orgs, org)
	}

	return orgs, nil
}
