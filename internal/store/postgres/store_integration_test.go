//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/models"
	"github.com/graphgate/graphgate/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a PostgreSQL container and returns a migrated pool.
func setupPostgres(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	pool, err := NewPool(ctx, &PoolConfig{
		ConnString:  connString,
		MaxConns:    5,
		MinConns:    1,
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func seedUser(t *testing.T, ctx context.Context, users *UserStore) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	now := time.Now()
	require.NoError(t, users.Upsert(ctx, &models.User{
		UserID:    userID,
		Email:     fmt.Sprintf("%s@example.com", userID),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	return userID
}

func seedOrg(t *testing.T, ctx context.Context, orgs *OrganizationStore, ownerID uuid.UUID) uuid.UUID {
	t.Helper()

	orgID := uuid.New()
	now := time.Now()
	require.NoError(t, orgs.Create(ctx, &models.Organization{
		OrgID:       orgID,
		Name:        "Acme",
		OwnerUserID: ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}))

	return orgID
}

func TestPostgresStores_Integration(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)

	users := NewUserStore(pool)
	orgs := NewOrganizationStore(pool)
	graphs := NewGraphStore(pool)
	memberships := NewMembershipStore(pool)
	schemaStore := NewSchemaStore(pool)

	ownerID := seedUser(t, ctx, users)
	orgID := seedOrg(t, ctx, orgs, ownerID)

	t.Run("user upsert is idempotent", func(t *testing.T) {
		now := time.Now()
		user := &models.User{
			UserID:    ownerID,
			Email:     "owner@example.com",
			FirstName: "Olive",
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, users.Upsert(ctx, user))

		stored, err := users.Get(ctx, ownerID)
		require.NoError(t, err)
		require.Equal(t, "owner@example.com", stored.Email)
		require.Equal(t, "Olive", stored.FirstName)
	})

	t.Run("graph constraints", func(t *testing.T) {
		now := time.Now()
		graph := &models.Graph{
			AppGraphID:     "risk_graph",
			StorageGraphID: "g0000000000000001",
			OrgID:          orgID,
			Name:           "Risk Graph",
			CreatedBy:      ownerID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		require.NoError(t, graphs.Create(ctx, graph))

		// Duplicate app id
		dup := *graph
		dup.StorageGraphID = "g0000000000000002"
		require.ErrorIs(t, graphs.Create(ctx, &dup), store.ErrGraphAlreadyExists)

		// Duplicate storage id
		dup = *graph
		dup.AppGraphID = "other_graph"
		require.ErrorIs(t, graphs.Create(ctx, &dup), store.ErrGraphAlreadyExists)

		// Identifier pattern enforced by CHECK constraint
		bad := *graph
		bad.AppGraphID = "9bad"
		bad.StorageGraphID = "g0000000000000003"
		require.Error(t, graphs.Create(ctx, &bad))

		// Org with graphs cannot be deleted (RESTRICT)
		require.ErrorIs(t, orgs.Delete(ctx, orgID), store.ErrOrganizationHasGraphs)

		got, err := graphs.Get(ctx, "risk_graph")
		require.NoError(t, err)
		require.Equal(t, graph.StorageGraphID, got.StorageGraphID)
	})

	t.Run("missing references map to the violated relation", func(t *testing.T) {
		now := time.Now()

		// Unknown creator: the org exists, so this is a user problem
		graph := &models.Graph{
			AppGraphID:     "orphan_graph",
			StorageGraphID: "g0000000000000010",
			OrgID:          orgID,
			Name:           "Orphan",
			CreatedBy:      uuid.New(),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		require.ErrorIs(t, graphs.Create(ctx, graph), store.ErrUserNotFound)

		// Unknown org with a valid creator
		graph.OrgID = uuid.New()
		graph.CreatedBy = ownerID
		require.ErrorIs(t, graphs.Create(ctx, graph), store.ErrOrganizationNotFound)

		// Org owned by a user that never synced
		err := orgs.Create(ctx, &models.Organization{
			OrgID:       uuid.New(),
			Name:        "Ghost",
			OwnerUserID: uuid.New(),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		require.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("membership upsert and idempotent delete", func(t *testing.T) {
		memberID := seedUser(t, ctx, users)
		now := time.Now()

		require.NoError(t, memberships.UpsertOrgRole(ctx, &models.OrgMembership{
			OrgID: orgID, UserID: memberID, Role: "viewer", CreatedAt: now, UpdatedAt: now,
		}))
		require.NoError(t, memberships.UpsertOrgRole(ctx, &models.OrgMembership{
			OrgID: orgID, UserID: memberID, Role: "editor", CreatedAt: now, UpdatedAt: now,
		}))

		role, err := memberships.GetOrgRole(ctx, orgID, memberID)
		require.NoError(t, err)
		require.Equal(t, "editor", role)

		require.NoError(t, memberships.DeleteOrgRole(ctx, orgID, memberID))
		require.ErrorIs(t, memberships.DeleteOrgRole(ctx, orgID, memberID), store.ErrMembershipNotFound)
	})

	t.Run("schema uniqueness per graph", func(t *testing.T) {
		nt := &models.NodeType{
			TypeID:         uuid.New(),
			AppGraphID:     "risk_graph",
			Name:           "Risk",
			NormalizedName: "risk",
			CreatedBy:      ownerID,
			CreatedAt:      time.Now(),
		}
		require.NoError(t, schemaStore.CreateNodeType(ctx, nt))

		dup := *nt
		dup.TypeID = uuid.New()
		dup.Name = "RISK"
		require.ErrorIs(t, schemaStore.CreateNodeType(ctx, &dup), store.ErrNodeTypeAlreadyExists)

		attr := &models.NodeTypeAttribute{
			AttributeID:    uuid.New(),
			TypeID:         nt.TypeID,
			Name:           "likelihood",
			NormalizedName: "likelihood",
			DataType:       "integer",
			Required:       true,
			CreatedAt:      time.Now(),
		}
		require.NoError(t, schemaStore.CreateAttribute(ctx, attr))

		dupAttr := *attr
		dupAttr.AttributeID = uuid.New()
		require.ErrorIs(t, schemaStore.CreateAttribute(ctx, &dupAttr), store.ErrAttributeAlreadyExists)

		attrs, err := schemaStore.ListAttributes(ctx, nt.TypeID)
		require.NoError(t, err)
		require.Len(t, attrs, 1)
	})

	t.Run("edge type uniqueness per graph", func(t *testing.T) {
		et := &models.EdgeType{
			EdgeTypeID:     uuid.New(),
			AppGraphID:     "risk_graph",
			Name:           "depends on",
			NormalizedName: "DEPENDS_ON",
			CreatedBy:      ownerID,
			CreatedAt:      time.Now(),
		}
		require.NoError(t, schemaStore.CreateEdgeType(ctx, et))

		dup := *et
		dup.EdgeTypeID = uuid.New()
		dup.Name = "Depends On"
		require.ErrorIs(t, schemaStore.CreateEdgeType(ctx, &dup), store.ErrEdgeTypeAlreadyExists)

		missing := *et
		missing.EdgeTypeID = uuid.New()
		missing.AppGraphID = "missing_graph"
		require.ErrorIs(t, schemaStore.CreateEdgeType(ctx, &missing), store.ErrGraphNotFound)

		edgeTypes, err := schemaStore.ListEdgeTypes(ctx, "risk_graph")
		require.NoError(t, err)
		require.Len(t, edgeTypes, 1)
	})

	t.Run("graph delete cascades memberships and schema", func(t *testing.T) {
		memberID := seedUser(t, ctx, users)
		now := time.Now()

		require.NoError(t, memberships.UpsertGraphRole(ctx, &models.GraphMembership{
			AppGraphID: "risk_graph", UserID: memberID, Role: "viewer", CreatedAt: now, UpdatedAt: now,
		}))

		require.NoError(t, graphs.Delete(ctx, "risk_graph"))

		_, err := memberships.GetGraphRole(ctx, "risk_graph", memberID)
		require.ErrorIs(t, err, store.ErrMembershipNotFound)

		types, err := schemaStore.ListNodeTypes(ctx, "risk_graph")
		require.NoError(t, err)
		require.Empty(t, types)

		edgeTypes, err := schemaStore.ListEdgeTypes(ctx, "risk_graph")
		require.NoError(t, err)
		require.Empty(t, edgeTypes)

		// Org is deletable once its graphs are gone
		require.NoError(t, orgs.Delete(ctx, orgID))
	})
}
