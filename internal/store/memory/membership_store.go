package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/models"
	"github.com/graphgate/graphgate/internal/store"
)

type orgMemberKey struct {
	orgID  uuid.UUID
	userID uuid.UUID
}

type graphMemberKey struct {
	appGraphID string
	userID     uuid.UUID
}

// MembershipStore implements store.MembershipStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type MembershipStore struct {
	mu sync.RWMutex

	orgMembers   map[orgMemberKey]*models.OrgMembership
	graphMembers map[graphMemberKey]*models.GraphMembership
}

// NewMembershipStore creates a new in-memory membership store.
func NewMembershipStore() *MembershipStore {
	return &MembershipStore{
		orgMembers:   make(map[orgMemberKey]*models.OrgMembership),
		graphMembers: make(map[graphMemberKey]*models.GraphMembership),
	}
}

// UpsertOrgRole creates or overwrites an org-scoped role grant.
func (s *MembershipStore) UpsertOrgRole(ctx context.Context, m *models.OrgMembership) error {
	if m.Role == "" {
		return store.ErrEmptyRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := orgMemberKey{orgID: m.OrgID, userID: m.UserID}
	if existing, ok := s.orgMembers[key]; ok {
		m.CreatedAt = existing.CreatedAt
	}
	m.UpdatedAt = time.Now()

	clone := *m
	s.orgMembers[key] = &clone

	return nil
}

// GetOrgRole returns the role granted to a user on an organization.
func (s *MembershipStore) GetOrgRole(ctx context.Context, orgID, userID uuid.UUID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.orgMembers[orgMemberKey{orgID: orgID, userID: userID}]
	if !ok {
		return "", store.ErrMembershipNotFound
	}

	return m.Role, nil
}

// DeleteOrgRole removes an org-scoped grant.
func (s *MembershipStore) DeleteOrgRole(ctx context.Context, orgID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := orgMemberKey{orgID: orgID, userID: userID}
	if _, ok := s.orgMembers[key]; !ok {
		return store.ErrMembershipNotFound
	}

	delete(s.orgMembers, key)
	return nil
}

// ListOrgMembers returns all membership records of an organization.
func (s *MembershipStore) ListOrgMembers(ctx context.Context, orgID uuid.UUID) ([]*models.OrgMembership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var members []*models.OrgMembership
	for _, m := range s.orgMembers {
		if m.OrgID != orgID {
			continue
		}
		clone := *m
		members = append(members, &clone)
	}

	sort.Slice(members, func(i, j int) bool {
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})

	return members, nil
}

// DeleteOrgMembers removes all membership records of an organization.
func (s *MembershipStore) DeleteOrgMembers(ctx context.Context, orgID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.orgMembers {
		if key.orgID == orgID {
			delete(s.orgMembers, key)
		}
	}

	return nil
}

// UpsertGraphRole creates or overwrites a graph-scoped role grant.
func (s *MembershipStore) UpsertGraphRole(ctx context.Context, m *models.GraphMembership) error {
	if m.Role == "" {
		return store.ErrEmptyRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := graphMemberKey{appGraphID: m.AppGraphID, userID: m.UserID}
	if existing, ok := s.graphMembers[key]; ok {
		m.CreatedAt = existing.CreatedAt
	}
	m.UpdatedAt = time.Now()

	clone := *m
	s.graphMembers[key] = &clone

	return nil
}

// GetGraphRole returns the role granted to a user on a graph.
func (s *MembershipStore) GetGraphRole(ctx context.Context, appGraphID string, userID uuid.UUID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.graphMembers[graphMemberKey{appGraphID: appGraphID, userID: userID}]
	if !ok {
		return "", store.ErrMembershipNotFound
	}

	return m.Role, nil
}

// DeleteGraphRole removes a graph-scoped grant.
func (s *MembershipStore) DeleteGraphRole(ctx context.Context, appGraphID string, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := graphMemberKey{appGraphID: appGraphID, userID: userID}
	if _, ok := s.graphMembers[key]; !ok {
		return store.ErrMembershipNotFound
	}

	delete(s.graphMembers, key)
	return nil
}

// ListGraphMembers returns all membership records of a graph.
func (s *MembershipStore) ListGraphMembers(ctx context.Context, appGraphID string) ([]*models.GraphMembership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var members []*models.GraphMembership
	for _, m := range s.graphMembers {
		if m.AppGraphID != appGraphID {
			continue
		}
		clone := *m
		members = append(members, &clone)
	}

	sort.Slice(members, func(i, j int) bool {
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})

	return members, nil
}

// DeleteGraphMembers removes all membership records of a graph.
func (s *MembershipStore) DeleteGraphMembers(ctx context.Context, appGraphID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.graphMembers {
		if key.appGraphID == appGraphID {
			delete(s.graphMembers, key)
		}
	}

	return nil
}

// ListOrgsForUser returns the IDs of organizations the user holds an
// org-scoped role in.
func (s *MembershipStore) ListOrgsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var memberships []*models.OrgMembership
	for _, m := range s.orgMembers {
		if m.UserID == userID {
			memberships = append(memberships, m)
		}
	}

	sort.Slice(memberships, func(i, j int) bool {
		return memberships[i].CreatedAt.Before(memberships[j].CreatedAt)
	})

	orgIDs := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		orgIDs = append(orgIDs, m.OrgID)
	}

	return orgIDs, nil
}
