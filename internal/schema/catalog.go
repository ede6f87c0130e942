// Package schema owns node-type and attribute definitions per graph and
// validates vertex payloads against them before anything reaches the
// graph engine. It is the sole enforcement point for type safety in an
// otherwise untyped graph store.
package schema

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/graphengine"
	"github.com/graphgate/graphgate/internal/models"
	"github.com/graphgate/graphgate/internal/store"
	"github.com/graphgate/graphgate/internal/telemetry"
	"github.com/rs/zerolog/log"
)

// Sentinel errors for catalog operations
var (
	ErrDuplicateType     = errors.New("node type already defined")
	ErrDuplicateEdgeType = errors.New("edge type already defined")

	ErrDuplicateAttribute = errors.New("attribute already defined")
	ErrUnknownDataType    = errors.New("unknown attribute data type")
	ErrTypeNotFound       = errors.New("node type not found")
	ErrGraphNotFound      = errors.New("graph not found")
	ErrEmptyName          = errors.New("name must not be empty")
	ErrInvalidName        = errors.New("name contains invalid characters")
)

// Names that become engine labels or cypher property keys are restricted
// to what the graph store accepts as identifiers. Node-type names are
// provisioned verbatim as vertex labels; attribute names become property
// keys; edge-type names allow spaces because the label is the upper
// snake normalization, not the raw name.
var (
	nodeTypeNamePattern  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,49}$`)
	attributeNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,49}$`)
	edgeTypeNamePattern  = regexp.MustCompile(`^[A-Za-z ]{1,50}$`)
)

// The closed set of attribute data types.
const (
	DataTypeString    = "string"
	DataTypeInteger   = "integer"
	DataTypeFloat     = "float"
	DataTypeBoolean   = "boolean"
	DataTypeTimestamp = "timestamp"
)

var dataTypes = map[string]struct{}{
	DataTypeString:    {},
	DataTypeInteger:   {},
	DataTypeFloat:     {},
	DataTypeBoolean:   {},
	DataTypeTimestamp: {},
}

// CatalogConfig holds catalog behaviour toggles.
type CatalogConfig struct {
	// ClosedSchema rejects vertex payload attributes that are not
	// declared on the node type. Default is open: unknown attributes
	// pass through.
	ClosedSchema bool
}

// Catalog manages per-graph node-type schemas.
type Catalog struct {
	schema store.SchemaStore
	graphs store.GraphStore
	engine graphengine.Engine
	cfg    CatalogConfig
}

// NewCatalog creates a Catalog over the given stores and graph engine.
func NewCatalog(schema store.SchemaStore, graphs store.GraphStore, engine graphengine.Engine, cfg CatalogConfig) *Catalog {
	return &Catalog{
		schema: schema,
		graphs: graphs,
		engine: engine,
		cfg:    cfg,
	}
}

// NormalizeName folds case and whitespace so that names differing only in
// casing or spacing collide. Used solely for uniqueness comparison; the
// original spelling is kept for display.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// NormalizeEdgeName folds an edge-type name into the upper snake form
// used both for uniqueness and as the engine edge label.
func NormalizeEdgeName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), "_"))
}

// DefineNodeType creates a node type on a graph and provisions the
// matching vertex label in the engine. Two types in the same graph may
// not normalize to the same name; the same name in different graphs is
// fine.
func (c *Catalog) DefineNodeType(ctx context.Context, appGraphID, name, description string, definedBy uuid.UUID) (*models.NodeType, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return nil, ErrEmptyName
	}
	// The name is provisioned verbatim as the engine vertex label and
	// interpolated into cypher on every vertex write, so it must be
	// identifier syntax.
	if !nodeTypeNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	graph, err := c.graphs.Get(ctx, appGraphID)
	if err != nil {
		if errors.Is(err, store.ErrGraphNotFound) {
			return nil, ErrGraphNotFound
		}
		return nil, fmt.Errorf("failed to resolve graph: %w", err)
	}

	typeID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate type id: %w", err)
	}

	nt := &models.NodeType{
		TypeID:         typeID,
		AppGraphID:     appGraphID,
		Name:           name,
		NormalizedName: normalized,
		Description:    description,
		CreatedBy:      definedBy,
		CreatedAt:      time.Now(),
	}

	if err := c.schema.CreateNodeType(ctx, nt); err != nil {
		if errors.Is(err, store.ErrNodeTypeAlreadyExists) {
			return nil, ErrDuplicateType
		}
		if errors.Is(err, store.ErrGraphNotFound) {
			return nil, ErrGraphNotFound
		}
		return nil, fmt.Errorf("failed to create node type: %w", err)
	}

	// Node types are implemented as vertex labels in the engine. A label
	// that already exists is fine; the metadata row is authoritative.
	if err := c.engine.CreateVertexLabel(ctx, graph.StorageGraphID, name); err != nil && !errors.Is(err, graphengine.ErrLabelExists) {
		log.Warn().
			Err(err).
			Str("app_graph_id", appGraphID).
			Str("label", name).
			Msg("Failed to provision vertex label")
	}

	telemetry.GetMetrics().NodeTypesDefinedTotal.Add(ctx, 1)

	log.Info().
		Str("app_graph_id", appGraphID).
		Str("type", normalized).
		Msg("Defined node type")

	return nt, nil
}

// AddAttribute declares a typed attribute on a node type. The data type
// must be in the closed set; two attributes on the same type may not
// normalize to the same name. Adding attributes is the only supported
// schema extension; narrowing requires a migration outside this catalog.
func (c *Catalog) AddAttribute(ctx context.Context, typeID uuid.UUID, name, dataType string, required bool, description string) (*models.NodeTypeAttribute, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return nil, ErrEmptyName
	}
	// Attribute names become cypher property keys.
	if !attributeNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	if _, ok := dataTypes[dataType]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataType, dataType)
	}

	attrID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate attribute id: %w", err)
	}

	attr := &models.NodeTypeAttribute{
		AttributeID:    attrID,
		TypeID:         typeID,
		Name:           name,
		NormalizedName: normalized,
		DataType:       dataType,
		Required:       required,
		Description:    description,
		CreatedAt:      time.Now(),
	}

	if err := c.schema.CreateAttribute(ctx, attr); err != nil {
		if errors.Is(err, store.ErrAttributeAlreadyExists) {
			return nil, ErrDuplicateAttribute
		}
		if errors.Is(err, store.ErrNodeTypeNotFound) {
			return nil, ErrTypeNotFound
		}
		return nil, fmt.Errorf("failed to create attribute: %w", err)
	}

	return attr, nil
}

// DefineEdgeType creates an edge type on a graph and provisions the
// matching edge label in the engine. Names are letters and spaces only;
// the upper snake normalization is the uniqueness key and the label, so
// "depends on" and "Depends On" collide.
func (c *Catalog) DefineEdgeType(ctx context.Context, appGraphID, name, description string, definedBy uuid.UUID) (*models.EdgeType, error) {
	normalized := NormalizeEdgeName(name)
	if normalized == "" {
		return nil, ErrEmptyName
	}
	if !edgeTypeNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	graph, err := c.graphs.Get(ctx, appGraphID)
	if err != nil {
		if errors.Is(err, store.ErrGraphNotFound) {
			return nil, ErrGraphNotFound
		}
		return nil, fmt.Errorf("failed to resolve graph: %w", err)
	}

	edgeTypeID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate edge type id: %w", err)
	}

	et := &models.EdgeType{
		EdgeTypeID:     edgeTypeID,
		AppGraphID:     appGraphID,
		Name:           name,
		NormalizedName: normalized,
		Description:    description,
		CreatedBy:      definedBy,
		CreatedAt:      time.Now(),
	}

	if err := c.schema.CreateEdgeType(ctx, et); err != nil {
		if errors.Is(err, store.ErrEdgeTypeAlreadyExists) {
			return nil, ErrDuplicateEdgeType
		}
		if errors.Is(err, store.ErrGraphNotFound) {
			return nil, ErrGraphNotFound
		}
		return nil, fmt.Errorf("failed to create edge type: %w", err)
	}

	// Edge types are implemented as edge labels in the engine, keyed by
	// the normalized name. An existing label is fine.
	if err := c.engine.CreateEdgeLabel(ctx, graph.StorageGraphID, normalized); err != nil && !errors.Is(err, graphengine.ErrLabelExists) {
		log.Warn().
			Err(err).
			Str("app_graph_id", appGraphID).
			Str("label", normalized).
			Msg("Failed to provision edge label")
	}

	telemetry.GetMetrics().EdgeTypesDefinedTotal.Add(ctx, 1)

	log.Info().
		Str("app_graph_id", appGraphID).
		Str("edge_type", normalized).
		Msg("Defined edge type")

	return et, nil
}

// ListEdgeTypes returns all edge types of a graph.
func (c *Catalog) ListEdgeTypes(ctx context.Context, appGraphID string) ([]*models.EdgeType, error) {
	edgeTypes, err := c.schema.ListEdgeTypes(ctx, appGraphID)
	if err != nil {
		return nil, fmt.Errorf("failed to list edge types: %w", err)
	}

	return edgeTypes, nil
}

// GetNodeType retrieves a node type by ID.
func (c *Catalog) GetNodeType(ctx context.Context, typeID uuid.UUID) (*models.NodeType, error) {
	nt, err := c.schema.GetNodeType(ctx, typeID)
	if err != nil {
		if errors.Is(err, store.ErrNodeTypeNotFound) {
			return nil, ErrTypeNotFound
		}
		return nil, fmt.Errorf("failed to get node type: %w", err)
	}

	return nt, nil
}

// ListNodeTypes returns all node types of a graph.
func (c *Catalog) ListNodeTypes(ctx context.Context, appGraphID string) ([]*models.NodeType, error) {
	types, err := c.schema.ListNodeTypes(ctx, appGraphID)
	if err != nil {
		return nil, fmt.Errorf("failed to list node types: %w", err)
	}

	return types, nil
}

// ListAttributes returns all attributes declared on a node type.
func (c *Catalog) ListAttributes(ctx context.Context, typeID uuid.UUID) ([]*models.NodeTypeAttribute, error) {
	attrs, err := c.schema.ListAttributes(ctx, typeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}

	return attrs, nil
}
