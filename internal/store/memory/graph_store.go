package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/models"
	"github.com/graphgate/graphgate/internal/store"
)

// GraphStore implements store.GraphStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
// Both identifier indexes are checked on create so the dual-id mapping
// stays a bijection, mirroring the postgres constraints.
type GraphStore struct {
	mu sync.RWMutex

	graphsByAppID     map[string]*models.Graph // app_graph_id -> Graph
	graphsByStorageID map[string]*models.Graph // storage_graph_id -> Graph

	// orgs, when set, stands in for the FK between graphs and
	// organizations.
	orgs *OrganizationStore
}

// NewGraphStore creates a new in-memory graph registry store. The
// organization store may be nil when FK behaviour is not under test.
func NewGraphStore(orgs *OrganizationStore) *GraphStore {
	return &GraphStore{
		graphsByAppID:     make(map[string]*models.Graph),
		graphsByStorageID: make(map[string]*models.Graph),
		orgs:              orgs,
	}
}

// Create commits a registry row.
func (s *GraphStore) Create(ctx context.Context, graph *models.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.graphsByAppID[graph.AppGraphID]; exists {
		return store.ErrGraphAlreadyExists
	}
	if _, exists := s.graphsByStorageID[graph.StorageGraphID]; exists {
		return store.ErrGraphAlreadyExists
	}

	if s.orgs != nil {
		if _, err := s.orgs.Get(ctx, graph.OrgID); err != nil {
			return store.ErrOrganizationNotFound
		}
		s.orgs.RetainOrg(graph.OrgID)
	}

	clone := *graph
	s.graphsByAppID[graph.AppGraphID] = &clone
	s.graphsByStorageID[graph.StorageGraphID] = &clone

	return nil
}

// Get retrieves a graph by its app-level identifier.
func (s *GraphStore) Get(ctx context.Context, appGraphID string) (*models.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graph, exists := s.graphsByAppID[appGraphID]
	if !exists {
		return nil, store.ErrGraphNotFound
	}

	clone := *graph
	return &clone, nil
}

// Delete removes the registry row for the given app-level identifier.
func (s *GraphStore) Delete(ctx context.Context, appGraphID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	graph, exists := s.graphsByAppID[appGraphID]
	if !exists {
		return store.ErrGraphNotFound
	}

	delete(s.graphsByAppID, graph.AppGraphID)
	delete(s.graphsByStorageID, graph.StorageGraphID)

	if s.orgs != nil {
		s.orgs.ReleaseOrg(graph.OrgID)
	}

	return nil
}

// ListByOrg returns all graphs belonging to an organization, ordered by
// creation time ascending.
func (s *GraphStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var graphs []*models.Graph
	for _, graph := range s.graphsByAppID {
		if graph.OrgID != orgID {
			continue
		}
		clone := *graph
		graphs = append(graphs, &clone)
	}

	sort.Slice(graphs, func(i, j int) bool {
		return graphs[i].CreatedAt.Before(graphs[j].CreatedAt)
	})

	return graphs, nil
}
