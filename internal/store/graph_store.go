package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/models"
)

// Sentinel errors for graph registry operations
var (
	ErrGraphNotFound      = errors.New("graph not found")
	ErrGraphAlreadyExists = errors.New("graph already exists")
)

// GraphStore persists the registry rows mapping app-level graph
// identifiers to the storage-level identifiers the graph engine assigned.
// Uniqueness of both identifiers is enforced by storage constraints, not
// in-process locking, so exactly one of two concurrent creators wins.
type GraphStore interface {
	// Create commits a registry row.
	// Returns ErrGraphAlreadyExists if either identifier is already registered.
	Create(ctx context.Context, graph *models.Graph) error

	// Get retrieves a graph by its app-level identifier.
	// Returns ErrGraphNotFound if no such graph is registered.
	Get(ctx context.Context, appGraphID string) (*models.Graph, error)

	// Delete removes the registry row for the given app-level identifier.
	// Returns ErrGraphNotFound if no such graph is registered, so callers
	// can treat deletion as idempotent.
	Delete(ctx context.Context, appGraphID string) error

	// ListByOrg returns all graphs belonging to an organization, ordered
	// by creation time ascending.
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Graph, error)
}
