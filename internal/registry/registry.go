// Package registry owns the tenancy records: organizations and the
// dual-identifier graph mapping. It is the only writer of the
// app-level-to-storage-level graph id bijection.
package registry

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/graphengine"
	"github.com/graphgate/graphgate/internal/models"
	"github.com/graphgate/graphgate/internal/store"
	"github.com/graphgate/graphgate/internal/telemetry"
	"github.com/rs/zerolog/log"
)

// Sentinel errors for registry operations
var (
	ErrInvalidIdentifier   = errors.New("invalid graph identifier")
	ErrDuplicateIdentifier = errors.New("graph identifier already registered")
	ErrOrgNotFound         = errors.New("organization not found")
	ErrGraphNotFound       = errors.New("graph not found")
	ErrEmptyName           = errors.New("name must not be empty")
	ErrStoreUnavailable    = errors.New("graph store unavailable")
)

// appGraphIDPattern is the engine's naming constraint: identifiers start
// with a letter or underscore.
var appGraphIDPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// GraphAdminRole is granted to the creator of a graph.
const GraphAdminRole = "admin"

// OrgAdminRole is granted to the creator of an organization.
const OrgAdminRole = "admin"

// Registry creates, resolves and destroys organizations and graphs,
// keeping the registry rows and the graph engine consistent.
type Registry struct {
	orgs        store.OrganizationStore
	graphs      store.GraphStore
	memberships store.MembershipStore
	schema      store.SchemaStore
	engine      graphengine.Engine
}

// New creates a Registry over the given stores and graph engine.
func New(
	orgs store.OrganizationStore,
	graphs store.GraphStore,
	memberships store.MembershipStore,
	schema store.SchemaStore,
	engine graphengine.Engine,
) *Registry {
	return &Registry{
		orgs:        orgs,
		graphs:      graphs,
		memberships: memberships,
		schema:      schema,
		engine:      engine,
	}
}

// CreateGraph validates the app-level identifier, allocates a graph in
// the engine and commits the registry row. The engine allocation happens
// first; if the commit then fails, the allocation is compensated with a
// DropGraph so no orphaned engine graph is left behind. The creator
// receives an implicit graph-admin membership.
func (r *Registry) CreateGraph(ctx context.Context, orgID uuid.UUID, appGraphID, name, description string, createdBy uuid.UUID) (*models.Graph, error) {
	if !appGraphIDPattern.MatchString(appGraphID) {
		return nil, fmt.Errorf("%w: %q must match %s", ErrInvalidIdentifier, appGraphID, appGraphIDPattern)
	}
	if name == "" {
		return nil, ErrEmptyName
	}

	if _, err := r.orgs.Get(ctx, orgID); err != nil {
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("failed to resolve organization: %w", err)
	}

	// Cheap pre-check so the common duplicate case never touches the
	// engine. The registry row's uniqueness constraint still decides the
	// race between concurrent creators.
	if _, err := r.graphs.Get(ctx, appGraphID); err == nil {
		return nil, ErrDuplicateIdentifier
	} else if !errors.Is(err, store.ErrGraphNotFound) {
		return nil, fmt.Errorf("failed to check graph identifier: %w", err)
	}

	storageGraphID, err := r.engine.CreateGraph(ctx)
	if err != nil {
		telemetry.GetMetrics().GraphCreateErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("%w: %s", ErrStoreUnavailable, err)
	}

	now := time.Now()
	graph := &models.Graph{
		AppGraphID:     appGraphID,
		StorageGraphID: storageGraphID,
		OrgID:          orgID,
		Name:           name,
		Description:    description,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := r.graphs.Create(ctx, graph); err != nil {
		// Compensate the engine allocation. If that fails too, the graph
		// is flagged for reconciliation rather than silently leaked.
		telemetry.GetMetrics().EngineCompensationTotal.Add(ctx, 1)
		if dropErr := r.engine.DropGraph(ctx, storageGraphID); dropErr != nil {
			log.Error().
				Err(dropErr).
				Str("storage_graph_id", storageGraphID).
				Msg("Failed to compensate engine graph allocation, orphan needs reconciliation")
		}

		if errors.Is(err, store.ErrGraphAlreadyExists) {
			return nil, ErrDuplicateIdentifier
		}
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("failed to commit graph registry row: %w", err)
	}

	if err := r.memberships.UpsertGraphRole(ctx, &models.GraphMembership{
		AppGraphID: appGraphID,
		UserID:     createdBy,
		Role:       GraphAdminRole,
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		log.Warn().
			Err(err).
			Str("app_graph_id", appGraphID).
			Msg("Failed to grant creator graph-admin role")
	}

	telemetry.GetMetrics().GraphsCreatedTotal.Add(ctx, 1)

	log.Info().
		Str("app_graph_id", appGraphID).
		Str("storage_graph_id", storageGraphID).
		Str("org_id", orgID.String()).
		Msg("Created graph")

	return graph, nil
}

// ResolveStorageID translates an app-level graph identifier to the
// storage-level identifier the engine assigned.
func (r *Registry) ResolveStorageID(ctx context.Context, appGraphID string) (string, error) {
	graph, err := r.graphs.Get(ctx, appGraphID)
	if err != nil {
		if errors.Is(err, store.ErrGraphNotFound) {
			return "", ErrGraphNotFound
		}
		return "", fmt.Errorf("failed to resolve graph: %w", err)
	}

	return graph.StorageGraphID, nil
}

// GetGraph retrieves the full registry record for a graph.
func (r *Registry) GetGraph(ctx context.Context, appGraphID string) (*models.Graph, error) {
	graph, err := r.graphs.Get(ctx, appGraphID)
	if err != nil {
		if errors.Is(err, store.ErrGraphNotFound) {
			return nil, ErrGraphNotFound
		}
		return nil, fmt.Errorf("failed to get graph: %w", err)
	}

	return graph, nil
}

// DeleteGraph removes a graph and everything scoped to it: graph
// memberships, schema definitions, the registry row and finally the
// engine graph. Deleting a non-existent graph is a no-op success so
// callers can retry after partial failures. The cascade is an explicit
// multi-step procedure rather than a storage-engine feature, so the same
// guarantee holds regardless of the backing store.
func (r *Registry) DeleteGraph(ctx context.Context, appGraphID string) error {
	graph, err := r.graphs.Get(ctx, appGraphID)
	if err != nil {
		if errors.Is(err, store.ErrGraphNotFound) {
			return nil
		}
		return fmt.Errorf("failed to resolve graph: %w", err)
	}

	if err := r.memberships.DeleteGraphMembers(ctx, appGraphID); err != nil {
		return fmt.Errorf("failed to cascade graph memberships: %w", err)
	}

	if err := r.schema.DeleteByGraph(ctx, appGraphID); err != nil {
		return fmt.Errorf("failed to cascade schema definitions: %w", err)
	}

	if err := r.graphs.Delete(ctx, appGraphID); err != nil && !errors.Is(err, store.ErrGraphNotFound) {
		return fmt.Errorf("failed to delete graph registry row: %w", err)
	}

	if err := r.engine.DropGraph(ctx, graph.StorageGraphID); err != nil {
		return fmt.Errorf("%w: %s", ErrStoreUnavailable, err)
	}

	telemetry.GetMetrics().GraphsDeletedTotal.Add(ctx, 1)

	log.Info().
		Str("app_graph_id", appGraphID).
		Msg("Deleted graph")

	return nil
}

// ListGraphsForOrg returns all graphs of an organization, ordered by
// creation time ascending.
func (r *Registry) ListGraphsForOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Graph, error) {
	if _, err := r.orgs.Get(ctx, orgID); err != nil {
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("failed to resolve organization: %w", err)
	}

	graphs, err := r.graphs.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}

	return graphs, nil
}
