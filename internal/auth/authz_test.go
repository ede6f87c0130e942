package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/membership"
	"github.com/graphgate/graphgate/internal/models"
	"github.com/graphgate/graphgate/internal/store/memory"
	"github.com/stretchr/testify/require"
)

type authzFixture struct {
	engine    *Engine
	directory *membership.Directory
	orgID     uuid.UUID
	ownerID   uuid.UUID
}

func newAuthzFixture(t *testing.T) *authzFixture {
	t.Helper()
	ctx := context.Background()

	orgs := memory.NewOrganizationStore()
	graphs := memory.NewGraphStore(nil)
	directory := membership.NewDirectory(memory.NewMembershipStore(), orgs, graphs)

	orgID := uuid.New()
	ownerID := uuid.New()

	require.NoError(t, orgs.Create(ctx, &models.Organization{
		OrgID:       orgID,
		Name:        "Acme",
		OwnerUserID: ownerID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}))

	for _, appGraphID := range []string{"risk_graph", "asset_graph"} {
		require.NoError(t, graphs.Create(ctx, &models.Graph{
			AppGraphID:     appGraphID,
			StorageGraphID: "s_" + appGraphID,
			OrgID:          orgID,
			Name:           appGraphID,
			CreatedBy:      ownerID,
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}))
	}

	return &authzFixture{
		engine:    NewEngine(directory, orgs, graphs),
		directory: directory,
		orgID:     orgID,
		ownerID:   ownerID,
	}
}

func TestHasPermission(t *testing.T) {
	require.True(t, HasPermission(RoleAdmin, PermOrgManage))
	require.True(t, HasPermission(RoleEditor, PermVertexWrite))
	require.True(t, HasPermission(RoleMember, PermVertexWrite))
	require.False(t, HasPermission(RoleMember, PermSchemaWrite))
	require.True(t, HasPermission(RoleViewer, PermGraphRead))
	require.False(t, HasPermission(RoleViewer, PermVertexWrite))

	// Provisioning graphs is reserved for admins; schema editing rights
	// do not imply it
	require.True(t, HasPermission(RoleAdmin, PermGraphCreate))
	require.False(t, HasPermission(RoleEditor, PermGraphCreate))

	// Role strings outside the table grant nothing
	require.False(t, HasPermission("superuser", PermGraphRead))
	require.False(t, HasPermission("", PermGraphRead))
}

func TestAuthorizeGraph(t *testing.T) {
	ctx := context.Background()

	t.Run("org role applies to every graph in the org", func(t *testing.T) {
		f := newAuthzFixture(t)
		userID := uuid.New()

		require.NoError(t, f.directory.GrantOrgRole(ctx, f.orgID, userID, RoleViewer))

		for _, appGraphID := range []string{"risk_graph", "asset_graph"} {
			decision, err := f.engine.AuthorizeGraph(ctx, userID, appGraphID, PermGraphRead)
			require.NoError(t, err)
			require.True(t, decision.Authorized)
			require.Equal(t, RoleViewer, decision.Role)
		}
	})

	t.Run("insufficient role is denied with the role that was found", func(t *testing.T) {
		f := newAuthzFixture(t)
		userID := uuid.New()

		require.NoError(t, f.directory.GrantOrgRole(ctx, f.orgID, userID, RoleViewer))

		decision, err := f.engine.AuthorizeGraph(ctx, userID, "risk_graph", PermVertexWrite)
		require.NoError(t, err)
		require.False(t, decision.Authorized)
		require.Equal(t, DenyInsufficientRole, decision.Reason)
		require.Equal(t, RoleViewer, decision.Role)
	})

	t.Run("graph role overrides org role on that graph only", func(t *testing.T) {
		f := newAuthzFixture(t)
		userID := uuid.New()

		require.NoError(t, f.directory.GrantOrgRole(ctx, f.orgID, userID, RoleViewer))
		require.NoError(t, f.directory.GrantGraphRole(ctx, "risk_graph", userID, RoleEditor))

		decision, err := f.engine.AuthorizeGraph(ctx, userID, "risk_graph", PermVertexWrite)
		require.NoError(t, err)
		require.True(t, decision.Authorized)
		require.Equal(t, RoleEditor, decision.Role)

		decision, err = f.engine.AuthorizeGraph(ctx, userID, "asset_graph", PermVertexWrite)
		require.NoError(t, err)
		require.False(t, decision.Authorized)
		require.Equal(t, DenyInsufficientRole, decision.Reason)
	})

	t.Run("graph role can also narrow the org role", func(t *testing.T) {
		f := newAuthzFixture(t)
		userID := uuid.New()

		require.NoError(t, f.directory.GrantOrgRole(ctx, f.orgID, userID, RoleAdmin))
		require.NoError(t, f.directory.GrantGraphRole(ctx, "risk_graph", userID, RoleViewer))

		decision, err := f.engine.AuthorizeGraph(ctx, userID, "risk_graph", PermSchemaWrite)
		require.NoError(t, err)
		require.False(t, decision.Authorized)
		require.Equal(t, RoleViewer, decision.Role)
	})

	t.Run("no membership at all is denied with no access", func(t *testing.T) {
		f := newAuthzFixture(t)

		decision, err := f.engine.AuthorizeGraph(ctx, uuid.New(), "risk_graph", PermGraphRead)
		require.NoError(t, err)
		require.False(t, decision.Authorized)
		require.Equal(t, DenyNoAccess, decision.Reason)
	})

	t.Run("unknown graph is denied with graph not found", func(t *testing.T) {
		f := newAuthzFixture(t)

		decision, err := f.engine.AuthorizeGraph(ctx, f.ownerID, "missing", PermGraphRead)
		require.NoError(t, err)
		require.False(t, decision.Authorized)
		require.Equal(t, DenyGraphNotFound, decision.Reason)
	})

	t.Run("org owner is always authorized", func(t *testing.T) {
		f := newAuthzFixture(t)

		// No membership rows exist for the owner, the ownership column is
		// enough.
		decision, err := f.engine.AuthorizeGraph(ctx, f.ownerID, "risk_graph", PermGraphDelete)
		require.NoError(t, err)
		require.True(t, decision.Authorized)
		require.Equal(t, RoleAdmin, decision.Role)
	})
}

func TestAuthorizeOrg(t *testing.T) {
	ctx := context.Background()

	t.Run("org admin can manage members", func(t *testing.T) {
		f := newAuthzFixture(t)
		userID := uuid.New()

		require.NoError(t, f.directory.GrantOrgRole(ctx, f.orgID, userID, RoleAdmin))

		decision, err := f.engine.AuthorizeOrg(ctx, userID, f.orgID, PermMembersManage)
		require.NoError(t, err)
		require.True(t, decision.Authorized)
	})

	t.Run("unknown org is denied with org not found", func(t *testing.T) {
		f := newAuthzFixture(t)

		decision, err := f.engine.AuthorizeOrg(ctx, f.ownerID, uuid.New(), PermOrgManage)
		require.NoError(t, err)
		require.False(t, decision.Authorized)
		require.Equal(t, DenyOrgNotFound, decision.Reason)
	})

	t.Run("require helpers fold denials into errors", func(t *testing.T) {
		f := newAuthzFixture(t)
		userID := uuid.New()

		err := f.engine.RequireOrg(ctx, userID, f.orgID, PermOrgManage)
		require.Error(t, err)

		var denied *ErrDenied
		require.ErrorAs(t, err, &denied)
		require.Equal(t, DenyNoAccess, denied.Reason)

		require.NoError(t, f.engine.RequireOrg(ctx, f.ownerID, f.orgID, PermOrgManage))
	})
}
