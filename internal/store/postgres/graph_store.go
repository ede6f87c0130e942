package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/models"
	"github.com/graphgate/graphgate/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// GraphStore implements store.GraphStore using PostgreSQL. The primary key
// on app_graph_id and the unique index on storage_graph_id are what
// serialize concurrent creation of the same identifier.
type GraphStore struct {
	pool *pgxpool.Pool
}

// NewGraphStore creates a new PostgreSQL-backed graph registry store.
// It shares the connection pool with other stores.
func NewGraphStore(pool *pgxpool.Pool) *GraphStore {
	return &GraphStore{
		pool: pool,
	}
}

// Create commits a registry row.
func (s *GraphStore) Create(ctx context.Context, graph *models.Graph) error {
	query := `
		INSERT INTO graphs (
			app_graph_id, storage_graph_id, org_id, name, description, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := s.pool.Exec(ctx, query,
		graph.AppGraphID,
		graph.StorageGraphID,
		graph.OrgID,
		graph.Name,
		graph.Description,
		graph.CreatedBy,
		graph.CreatedAt,
		graph.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrGraphAlreadyExists
		}
		if isForeignKeyViolation(err) {
			// Two FKs can fire on this insert: the org reference and the
			// created_by reference. A missing creator means the principal
			// never synced their profile, which is not an org problem.
			if violatedConstraint(err) == "graphs_created_by_fkey" {
				return store.ErrUserNotFound
			}
			return store.ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to create graph: %w", mapConnectionError(err))
	}

	log.Debug().
		Str("app_graph_id", graph.AppGraphID).
		Str("storage_graph_id", graph.StorageGraphID).
		Msg("Registered graph")

	return nil
}

// Get retrieves a graph by its app-level identifier.
func (s *GraphStore) Get(ctx context.Context, appGraphID string) (*models.Graph, error) {
	query := `
		SELECT app_graph_id, storage_graph_id, org_id, name, description, created_by, created_at, updated_at
		FROM graphs
		WHERE app_graph_id = $1
	`

	var graph models.Graph
	err := s.pool.QueryRow(ctx, query, appGraphID).Scan(
		&graph.AppGraphID,
		&graph.StorageGraphID,
		&graph.OrgID,
		&graph.Name,
		&graph.Description,
		&graph.CreatedBy,
		&graph.CreatedAt,
		&graph.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrGraphNotFound
		}
		return nil, fmt.Errorf("failed to get graph: %w", mapConnectionError(err))
	}

	return &graph, nil
}

// Delete removes the registry row for the given app-level identifier.
func (s *GraphStore) Delete(ctx context.Context, appGraphID string) error {
	query := `DELETE FROM graphs WHERE app_graph_id = $1`

	result, err := s.pool.Exec(ctx, query, appGraphID)
	if err != nil {
		return fmt.Errorf("failed to delete graph: %w", mapConnectionError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrGraphNotFound
	}

	log.Info().
		Str("app_graph_id", appGraphID).
		Msg("Deleted graph registry row")

	return nil
}

// ListByOrg returns all graphs belonging to an organization, ordered by
// creation time ascending.
func (s *GraphStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Graph, error) {
	query := `
		SELECT app_graph_id, storage_graph_id, org_id, name, description, created_by, created_at, updated_at
		FROM graphs
		WHERE org_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", mapConnectionError(err))
	}
	defer rows.Close()

	var graphs []*models.Graph
	for rows.Next() {
		var graph models.Graph
		err := rows.Scan(
			&graph.AppGraphID,
			&graph.StorageGraphID,
			&graph.OrgID,
			&graph.Name,
			&graph.Description,
			&graph.CreatedBy,
			&graph.CreatedAt,
			&graph.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan graph: %w", err)
		}
		graphs = append(graphs, &graph)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating graphs: %w", err)
	}

	return graphs, nil
}
