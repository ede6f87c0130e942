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

// SchemaStore implements store.SchemaStore using PostgreSQL. The unique
// indexes on (graph, normalized_name) and (type, normalized_name) keep
// concurrent schema editors correct without application-level locks.
type SchemaStore struct {
	pool *pgxpool.Pool
}

// NewSchemaStore creates a new PostgreSQL-backed schema store.
// It shares the connection pool with other stores.
func NewSchemaStore(pool *pgxpool.Pool) *SchemaStore {
	return &SchemaStore{
		pool: pool,
	}
}

// CreateNodeType commits a node type definition.
func (s *SchemaStore) CreateNodeType(ctx context.Context, nt *models.NodeType) error {
	query := `
		INSERT INTO node_types (
			type_id, app_graph_id, name, normalized_name, description, created_by, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := s.pool.Exec(ctx, query,
		nt.TypeID,
		nt.AppGraphID,
		nt.Name,
		nt.NormalizedName,
		nt.Description,
		nt.CreatedBy,
		nt.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrNodeTypeAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrGraphNotFound
		}
		return fmt.Errorf("failed to create node type: %w", mapConnectionError(err))
	}

	log.Debug().
		Str("app_graph_id", nt.AppGraphID).
		Str("type", nt.NormalizedName).
		Msg("Created node type")

	return nil
}

// GetNodeType retrieves a node type by ID.
func (s *SchemaStore) GetNodeType(ctx context.Context, typeID uuid.UUID) (*models.NodeType, error) {
	query := `
		SELECT type_id, app_graph_id, name, normalized_name, description, created_by, created_at
		FROM node_types
		WHERE type_id = $1
	`

	var nt models.NodeType
	err := s.pool.QueryRow(ctx, query, typeID).Scan(
		&nt.TypeID,
		&nt.AppGraphID,
		&nt.Name,
		&nt.NormalizedName,
		&nt.Description,
		&nt.CreatedBy,
		&nt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNodeTypeNotFound
		}
		return nil, fmt.Errorf("failed to get node type: %w", mapConnectionError(err))
	}

	return &nt, nil
}

// ListNodeTypes returns all node types of a graph, ordered by creation
// time ascending.
func (s *SchemaStore) ListNodeTypes(ctx context.Context, appGraphID string) ([]*models.NodeType, error) {
	query := `
		SELECT type_id, app_graph_id, name, normalized_name, description, created_by, created_at
		FROM node_types
		WHERE app_graph_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, appGraphID)
	if err != nil {
		return nil, fmt.Errorf("failed to list node types: %w", mapConnectionError(err))
	}
	defer rows.Close()

	var types []*models.NodeType
	for rows.Next() {
		var nt models.NodeType
		err := rows.Scan(
			&nt.TypeID,
			&nt.AppGraphID,
			&nt.Name,
			&nt.NormalizedName,
			&nt.Description,
			&nt.CreatedBy,
			&nt.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node type: %w", err)
		}
		types = append(types, &nt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating node types: %w", err)
	}

	return types, nil
}

// CreateAttribute commits an attribute definition.
func (s *SchemaStore) CreateAttribute(ctx context.Context, attr *models.NodeTypeAttribute) error {
	query := `
		INSERT INTO node_type_attributes (
			attribute_id, type_id, name, normalized_name, data_type, required, description, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := s.pool.Exec(ctx, query,
		attr.AttributeID,
		attr.TypeID,
		attr.Name,
		attr.NormalizedName,
		attr.DataType,
		attr.Required,
		attr.Description,
		attr.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAttributeAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrNodeTypeNotFound
		}
		return fmt.Errorf("failed to create attribute: %w", mapConnectionError(err))
	}

	return nil
}

// ListAttributes returns all attributes declared on a node type.
func (s *SchemaStore) ListAttributes(ctx context.Context, typeID uuid.UUID) ([]*models.NodeTypeAttribute, error) {
	query := `
		SELECT attribute_id, type_id, name, normalized_name, data_type, required, description, created_at
		FROM node_type_attributes
		WHERE type_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, typeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", mapConnectionError(err))
	}
	defer rows.Close()

	var attrs []*models.NodeTypeAttribute
	for rows.Next() {
		var attr models.NodeTypeAttribute
		err := rows.Scan(
			&attr.AttributeID,
			&attr.TypeID,
			&attr.Name,
			&attr.NormalizedName,
			&attr.DataType,
			&attr.Required,
			&attr.Description,
			&attr.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		attrs = append(attrs, &attr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attributes: %w", err)
	}

	return attrs, nil
}

// CreateEdgeType commits an edge type definition.
func (s *SchemaStore) CreateEdgeType(ctx context.Context, et *models.EdgeType) error {
	query := `
		INSERT INTO edge_types (
			edge_type_id, app_graph_id, name, normalized_name, description, created_by, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := s.pool.Exec(ctx, query,
		et.EdgeTypeID,
		et.AppGraphID,
		et.Name,
		et.NormalizedName,
		et.Description,
		et.CreatedBy,
		et.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrEdgeTypeAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrGraphNotFound
		}
		return fmt.Errorf("failed to create edge type: %w", mapConnectionError(err))
	}

	log.Debug().
		Str("app_graph_id", et.AppGraphID).
		Str("edge_type", et.NormalizedName).
		Msg("Created edge type")

	return nil
}

// ListEdgeTypes returns all edge types of a graph, ordered by creation
// time ascending.
func (s *SchemaStore) ListEdgeTypes(ctx context.Context, appGraphID string) ([]*models.EdgeType, error) {
	query := `
		SELECT edge_type_id, app_graph_id, name, normalized_name, description, created_by, created_at
		FROM edge_types
		WHERE app_graph_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, appGraphID)
	if err != nil {
		return nil, fmt.Errorf("failed to list edge types: %w", mapConnectionError(err))
	}
	defer rows.Close()

	var edgeTypes []*models.EdgeType
	for rows.Next() {
		var et models.EdgeType
		err := rows.Scan(
			&et.EdgeTypeID,
			&et.AppGraphID,
			&et.Name,
			&et.NormalizedName,
			&et.Description,
			&et.CreatedBy,
			&et.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan edge type: %w", err)
		}
		edgeTypes = append(edgeTypes, &et)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edge types: %w", err)
	}

	return edgeTypes, nil
}

// DeleteByGraph removes all node types, attributes and edge types of a
// graph. Attributes cascade via the FK on type_id.
func (s *SchemaStore) DeleteByGraph(ctx context.Context, appGraphID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM node_types WHERE app_graph_id = $1`, appGraphID)
	if err != nil {
		return fmt.Errorf("failed to delete node types: %w", mapConnectionError(err))
	}

	_, err = s.pool.Exec(ctx, `DELETE FROM edge_types WHERE app_graph_id = $1`, appGraphID)
	if err != nil {
		return fmt.Errorf("failed to delete edge types: %w", mapConnectionError(err))
	}

	return nil
}
