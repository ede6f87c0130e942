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
)

// MembershipStore implements store.MembershipStore using PostgreSQL.
// Grants are upserts on the (scope, user) primary key; revokes of absent
// rows report not-found so the directory can treat them as no-ops.
type MembershipStore struct {
	pool *pgxpool.Pool
}

// NewMembershipStore creates a new PostgreSQL-backed membership store.
// It shares the connection pool with other stores.
func NewMembershipStore(pool *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{
		pool: pool,
	}
}

// UpsertOrgRole creates or overwrites an org-scoped role grant.
func (s *MembershipStore) UpsertOrgRole(ctx context.Context, m *models.OrgMembership) error {
	if m.Role == "" {
		return store.ErrEmptyRole
	}

	query := `
		INSERT INTO org_memberships (org_id, user_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (org_id, user_id) DO UPDATE SET
			role = EXCLUDED.role,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query, m.OrgID, m.UserID, m.Role, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to upsert org role: %w", mapConnectionError(err))
	}

	return nil
}

// GetOrgRole returns the role granted to a user on an organization.
func (s *MembershipStore) GetOrgRole(ctx context.Context, orgID, userID uuid.UUID) (string, error) {
	query := `SELECT role FROM org_memberships WHERE org_id = $1 AND user_id = $2`

	var role string
	err := s.pool.QueryRow(ctx, query, orgID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", store.ErrMembershipNotFound
		}
		return "", fmt.Errorf("failed to get org role: %w", mapConnectionError(err))
	}

	return role, nil
}

// DeleteOrgRole removes an org-scoped grant.
func (s *MembershipStore) DeleteOrgRole(ctx context.Context, orgID, userID uuid.UUID) error {
	query := `DELETE FROM org_memberships WHERE org_id = $1 AND user_id = $2`

	result, err := s.pool.Exec(ctx, query, orgID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete org role: %w", mapConnectionError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrMembershipNotFound
	}

	return nil
}

// ListOrgMembers returns all membership records of an organization.
func (s *MembershipStore) ListOrgMembers(ctx context.Context, orgID uuid.UUID) ([]*models.OrgMembership, error) {
	query := `
		SELECT org_id, user_id, role, created_at, updated_at
		FROM org_memberships
		WHERE org_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list org members: %w", mapConnectionError(err))
	}
	defer rows.Close()

	var members []*models.OrgMembership
	for rows.Next() {
		var m models.OrgMembership
		if err := rows.Scan(&m.OrgID, &m.UserID, &m.Role, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan org membership: %w", err)
		}
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating org memberships: %w", err)
	}

	return members, nil
}

// DeleteOrgMembers removes all membership records of an organization.
func (s *MembershipStore) DeleteOrgMembers(ctx context.Context, orgID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM org_memberships WHERE org_id = $1`, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete org members: %w", mapConnectionError(err))
	}
	return nil
}

// UpsertGraphRole creates or overwrites a graph-scoped role grant.
func (s *MembershipStore) UpsertGraphRole(ctx context.Context, m *models.GraphMembership) error {
	if m.Role == "" {
		return store.ErrEmptyRole
	}

	query := `
		INSERT INTO graph_memberships (app_graph_id, user_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (app_graph_id, user_id) DO UPDATE SET
			role = EXCLUDED.role,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query, m.AppGraphID, m.UserID, m.Role, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrGraphNotFound
		}
		return fmt.Errorf("failed to upsert graph role: %w", mapConnectionError(err))
	}

	return nil
}

// GetGraphRole returns the role granted to a user on a graph.
func (s *MembershipStore) GetGraphRole(ctx context.Context, appGraphID string, userID uuid.UUID) (string, error) {
	query := `SELECT role FROM graph_memberships WHERE app_graph_id = $1 AND user_id = $2`

	var role string
	err := s.pool.QueryRow(ctx, query, appGraphID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", store.ErrMembershipNotFound
		}
		return "", fmt.Errorf("failed to get graph role: %w", mapConnectionError(err))
	}

	return role, nil
}

// DeleteGraphRole removes a graph-scoped grant.
func (s *MembershipStore) DeleteGraphRole(ctx context.Context, appGraphID string, userID uuid.UUID) error {
	query := `DELETE FROM graph_memberships WHERE app_graph_id = $1 AND user_id = $2`

	result, err := s.pool.Exec(ctx, query, appGraphID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete graph role: %w", mapConnectionError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrMembershipNotFound
	}

	return nil
}

// ListGraphMembers returns all membership records of a graph.
func (s *MembershipStore) ListGraphMembers(ctx context.Context, appGraphID string) ([]*models.GraphMembership, error) {
	query := `
		SELECT app_graph_id, user_id, role, created_at, updated_at
		FROM graph_memberships
		WHERE app_graph_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, appGraphID)
	if err != nil {
		return nil, fmt.Errorf("failed to list graph members: %w", mapConnectionError(err))
	}
	defer rows.Close()

	var members []*models.GraphMembership
	for rows.Next() {
		var m models.GraphMembership
		if err := rows.Scan(&m.AppGraphID, &m.UserID, &m.Role, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan graph membership: %w", err)
		}
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating graph memberships: %w", err)
	}

	return members, nil
}

// DeleteGraphMembers removes all membership records of a graph.
func (s *MembershipStore) DeleteGraphMembers(ctx context.Context, appGraphID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM graph_memberships WHERE app_graph_id = $1`, appGraphID)
	if err != nil {
		return fmt.Errorf("failed to delete graph members: %w", mapConnectionError(err))
	}
	return nil
}

// ListOrgsForUser returns the IDs of organizations the user holds an
// org-scoped role in.
func (s *MembershipStore) ListOrgsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT org_id FROM org_memberships WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orgs for user: %w", mapConnectionError(err))
	}
	defer rows.Close()

	var orgIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan org id: %w", err)
		}
		orgIDs = append(orgIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating org memberships: %w", err)
	}

	return orgIDs, nil
}
