package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/models"
	"github.com/graphgate/graphgate/internal/store"
)

// OrganizationStore implements store.OrganizationStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type OrganizationStore struct {
	mu   sync.RWMutex
	orgs map[uuid.UUID]*models.Organization

	// graphCount answers the RESTRICT check on delete; the graph store
	// updates it via RetainOrg/ReleaseOrg.
	graphCount map[uuid.UUID]int
}

// NewOrganizationStore creates a new in-memory organization store.
func NewOrganizationStore() *OrganizationStore {
	return &OrganizationStore{
		orgs:       make(map[uuid.UUID]*models.Organization),
		graphCount: make(map[uuid.UUID]int),
	}
}

// Create creates a new organization in memory.
func (s *OrganizationStore) Create(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orgs[org.OrgID]; exists {
		return store.ErrOrganizationAlreadyExists
	}

	clone := *org
	s.orgs[org.OrgID] = &clone

	return nil
}

// Get retrieves an organization by ID.
func (s *OrganizationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, exists := s.orgs[orgID]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	clone := *org
	return &clone, nil
}

// Delete deletes an organization by ID. Mirrors the RESTRICT constraint of
// the postgres schema: organizations that still own graphs cannot go.
func (s *OrganizationStore) Delete(ctx context.Context, orgID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orgs[orgID]; !exists {
		return store.ErrOrganizationNotFound
	}

	if s.graphCount[orgID] > 0 {
		return store.ErrOrganizationHasGraphs
	}

	delete(s.orgs, orgID)
	delete(s.graphCount, orgID)

	return nil
}

// ListByOwner returns all organizations owned by a specific user, ordered
// by creation time ascending.
func (s *OrganizationStore) ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var orgs []*models.Organization
	for _, org := range s.orgs {
		if org.OwnerUserID != ownerUserID {
			continue
		}
		clone := *org
		orgs = append(orgs, &clone)
	}

	sort.Slice(orgs, func(i, j int) bool {
		return orgs[i].CreatedAt.Before(orgs[j].CreatedAt)
	})

	return orgs, nil
}

// RetainOrg records that a graph now references the organization.
func (s *OrganizationStore) RetainOrg(orgID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphCount[orgID]++
}

// ReleaseOrg records that a graph referencing the organization is gone.
func (s *OrganizationStore) ReleaseOrg(orgID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graphCount[orgID] > 0 {
		s.graphCount[orgID]--
	}
}
