package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/models"
)

// Sentinel errors for organization store operations
var (
	ErrOrganizationNotFound      = errors.New("organization not found")
	ErrOrganizationAlreadyExists = errors.New("organization already exists")
	ErrOrganizationHasGraphs     = errors.New("organization still owns graphs")
)

// OrganizationStore defines the interface for organization storage
// operations. Organizations are the root of the tenancy tree; each org
// owns graphs and membership records.
type OrganizationStore interface {
	// Create creates a new organization in the store.
	// Returns ErrOrganizationAlreadyExists if an organization with the same ID already exists.
	Create(ctx context.Context, org *models.Organization) error

	// Get retrieves an organization by ID.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)

	// Delete deletes an organization row. Dependent graphs must already be
	// gone; returns ErrOrganizationHasGraphs otherwise. Returns
	// ErrOrganizationNotFound if the organization doesn't exist.
	Delete(ctx context.Context, orgID uuid.UUID) error

	// ListByOwner returns all organizations owned by a specific user,
	// ordered by creation time ascending.
	ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]*models.Organization, error)
}
