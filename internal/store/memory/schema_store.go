package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/models"
	"github.com/graphgate/graphgate/internal/store"
)

type typeNameKey struct {
	appGraphID     string
	normalizedName string
}

type attrNameKey struct {
	typeID         uuid.UUID
	normalizedName string
}

// SchemaStore implements store.SchemaStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
// The normalized-name indexes mirror the postgres unique constraints.
type SchemaStore struct {
	mu sync.RWMutex

	types       map[uuid.UUID]*models.NodeType
	typesByName map[typeNameKey]uuid.UUID

	attrs       map[uuid.UUID][]*models.NodeTypeAttribute // type_id -> attributes
	attrsByName map[attrNameKey]struct{}

	edgeTypes       map[uuid.UUID]*models.EdgeType
	edgeTypesByName map[typeNameKey]uuid.UUID
}

// NewSchemaStore creates a new in-memory schema store.
func NewSchemaStore() *SchemaStore {
	return &SchemaStore{
		types:           make(map[uuid.UUID]*models.NodeType),
		typesByName:     make(map[typeNameKey]uuid.UUID),
		attrs:           make(map[uuid.UUID][]*models.NodeTypeAttribute),
		attrsByName:     make(map[attrNameKey]struct{}),
		edgeTypes:       make(map[uuid.UUID]*models.EdgeType),
		edgeTypesByName: make(map[typeNameKey]uuid.UUID),
	}
}

// CreateNodeType commits a node type definition.
func (s *SchemaStore) CreateNodeType(ctx context.Context, nt *models.NodeType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nameKey := typeNameKey{appGraphID: nt.AppGraphID, normalizedName: nt.NormalizedName}
	if _, exists := s.typesByName[nameKey]; exists {
		return store.ErrNodeTypeAlreadyExists
	}
	if _, exists := s.types[nt.TypeID]; exists {
		return store.ErrNodeTypeAlreadyExists
	}

	clone := *nt
	s.types[nt.TypeID] = &clone
	s.typesByName[nameKey] = nt.TypeID

	return nil
}

// GetNodeType retrieves a node type by ID.
func (s *SchemaStore) GetNodeType(ctx context.Context, typeID uuid.UUID) (*models.NodeType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nt, exists := s.types[typeID]
	if !exists {
		return nil, store.ErrNodeTypeNotFound
	}

	clone := *nt
	return &clone, nil
}

// ListNodeTypes returns all node types of a graph, ordered by creation
// time ascending.
func (s *SchemaStore) ListNodeTypes(ctx context.Context, appGraphID string) ([]*models.NodeType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var types []*models.NodeType
	for _, nt := range s.types {
		if nt.AppGraphID != appGraphID {
			continue
		}
		clone := *nt
		types = append(types, &clone)
	}

	sort.Slice(types, func(i, j int) bool {
		return types[i].CreatedAt.Before(types[j].CreatedAt)
	})

	return types, nil
}

// CreateAttribute commits an attribute definition.
func (s *SchemaStore) CreateAttribute(ctx context.Context, attr *models.NodeTypeAttribute) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.types[attr.TypeID]; !exists {
		return store.ErrNodeTypeNotFound
	}

	nameKey := attrNameKey{typeID: attr.TypeID, normalizedName: attr.NormalizedName}
	if _, exists := s.attrsByName[nameKey]; exists {
		return store.ErrAttributeAlreadyExists
	}

	clone := *attr
	s.attrs[attr.TypeID] = append(s.attrs[attr.TypeID], &clone)
	s.attrsByName[nameKey] = struct{}{}

	return nil
}

// ListAttributes returns all attributes declared on a node type.
func (s *SchemaStore) ListAttributes(ctx context.Context, typeID uuid.UUID) ([]*models.NodeTypeAttribute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attrs := make([]*models.NodeTypeAttribute, 0, len(s.attrs[typeID]))
	for _, attr := range s.attrs[typeID] {
		clone := *attr
		attrs = append(attrs, &clone)
	}

	return attrs, nil
}

// CreateEdgeType commits an edge type definition.
func (s *SchemaStore) CreateEdgeType(ctx context.Context, et *models.EdgeType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nameKey := typeNameKey{appGraphID: et.AppGraphID, normalizedName: et.NormalizedName}
	if _, exists := s.edgeTypesByName[nameKey]; exists {
		return store.ErrEdgeTypeAlreadyExists
	}
	if _, exists := s.edgeTypes[et.EdgeTypeID]; exists {
		return store.ErrEdgeTypeAlreadyExists
	}

	clone := *et
	s.edgeTypes[et.EdgeTypeID] = &clone
	s.edgeTypesByName[nameKey] = et.EdgeTypeID

	return nil
}

// ListEdgeTypes returns all edge types of a graph, ordered by creation
// time ascending.
func (s *SchemaStore) ListEdgeTypes(ctx context.Context, appGraphID string) ([]*models.EdgeType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var edgeTypes []*models.EdgeType
	for _, et := range s.edgeTypes {
		if et.AppGraphID != appGraphID {
			continue
		}
		clone := *et
		edgeTypes = append(edgeTypes, &clone)
	}

	sort.Slice(edgeTypes, func(i, j int) bool {
		return edgeTypes[i].CreatedAt.Before(edgeTypes[j].CreatedAt)
	})

	return edgeTypes, nil
}

// DeleteByGraph removes all node types, attributes and edge types of a
// graph.
func (s *SchemaStore) DeleteByGraph(ctx context.Context, appGraphID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for typeID, nt := range s.types {
		if nt.AppGraphID != appGraphID {
			continue
		}

		for _, attr := range s.attrs[typeID] {
			delete(s.attrsByName, attrNameKey{typeID: typeID, normalizedName: attr.NormalizedName})
		}
		delete(s.attrs, typeID)
		delete(s.typesByName, typeNameKey{appGraphID: appGraphID, normalizedName: nt.NormalizedName})
		delete(s.types, typeID)
	}

	for edgeTypeID, et := range s.edgeTypes {
		if et.AppGraphID != appGraphID {
			continue
		}
		delete(s.edgeTypesByName, typeNameKey{appGraphID: appGraphID, normalizedName: et.NormalizedName})
		delete(s.edgeTypes, edgeTypeID)
	}

	return nil
}
