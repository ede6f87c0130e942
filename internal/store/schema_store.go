package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/models"
)

// Sentinel errors for schema store operations
var (
	ErrNodeTypeNotFound       = errors.New("node type not found")
	ErrNodeTypeAlreadyExists  = errors.New("node type already exists")
	ErrAttributeAlreadyExists = errors.New("attribute already exists")
	ErrEdgeTypeAlreadyExists  = errors.New("edge type already exists")
)

// SchemaStore persists node-type and attribute definitions per graph.
// Normalized-name uniqueness within a graph (for types) and within a type
// (for attributes) is guarded by storage constraints so concurrent schema
// editors stay correct without application-level locks.
type SchemaStore interface {
	// CreateNodeType commits a node type definition.
	// Returns ErrNodeTypeAlreadyExists if the normalized name collides
	// within the graph.
	CreateNodeType(ctx context.Context, nt *models.NodeType) error

	// GetNodeType retrieves a node type by ID.
	// Returns ErrNodeTypeNotFound if the type doesn't exist.
	GetNodeType(ctx context.Context, typeID uuid.UUID) (*models.NodeType, error)

	// ListNodeTypes returns all node types of a graph, ordered by creation
	// time ascending.
	ListNodeTypes(ctx context.Context, appGraphID string) ([]*models.NodeType, error)

	// CreateAttribute commits an attribute definition.
	// Returns ErrAttributeAlreadyExists if the normalized name collides
	// within the type, ErrNodeTypeNotFound if the type doesn't exist.
	CreateAttribute(ctx context.Context, attr *models.NodeTypeAttribute) error

	// ListAttributes returns all attributes declared on a node type.
	ListAttributes(ctx context.Context, typeID uuid.UUID) ([]*models.NodeTypeAttribute, error)

	// CreateEdgeType commits an edge type definition.
	// Returns ErrEdgeTypeAlreadyExists if the normalized name collides
	// within the graph.
	CreateEdgeType(ctx context.Context, et *models.EdgeType) error

	// ListEdgeTypes returns all edge types of a graph, ordered by creation
	// time ascending.
	ListEdgeTypes(ctx context.Context, appGraphID string) ([]*models.EdgeType, error)

	// DeleteByGraph removes all node types, attributes and edge types of a
	// graph. Used by the registry's cascading graph deletion.
	DeleteByGraph(ctx context.Context, appGraphID string) error
}
