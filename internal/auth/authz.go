package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/membership"
	"github.com/graphgate/graphgate/internal/store"
	"github.com/graphgate/graphgate/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Permission represents an authorized action on a graph or organization.
type Permission string

const (
	PermGraphRead     Permission = "graph:read"
	PermVertexWrite   Permission = "vertex:write"
	PermSchemaWrite   Permission = "schema:write"
	PermMembersManage Permission = "members:manage"
	PermGraphCreate   Permission = "graph:create"
	PermGraphDelete   Permission = "graph:delete"
	PermOrgManage     Permission = "org:manage"
)

// Role names with fixed capability sets. Role strings outside this table
// grant nothing; membership rows may carry arbitrary non-empty strings
// but only these resolve to capabilities.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// RolePermissions maps roles to allowed permissions. Capability sets are
// explicit and ordered by inclusion (admin ⊇ editor ⊇ member ⊇ viewer)
// rather than expressed through inheritance.
var RolePermissions = map[string][]Permission{
	RoleAdmin: {
		PermGraphRead,
		PermVertexWrite,
		PermSchemaWrite,
		PermMembersManage,
		PermGraphCreate,
		PermGraphDelete,
		PermOrgManage,
	},
	RoleEditor: {
		PermGraphRead,
		PermVertexWrite,
		PermSchemaWrite,
	},
	RoleMember: {
		PermGraphRead,
		PermVertexWrite,
	},
	RoleViewer: {
		PermGraphRead,
	},
}

// HasPermission checks if a role grants a specific permission.
func HasPermission(role string, perm Permission) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	return slices.Contains(perms, perm)
}

// DenyReason distinguishes the terminal denial outcomes. None are
// retried; they are user-facing results.
type DenyReason string

const (
	DenyNoAccess         DenyReason = "no_access"
	DenyInsufficientRole DenyReason = "insufficient_role"
	DenyGraphNotFound    DenyReason = "graph_not_found"
	DenyOrgNotFound      DenyReason = "org_not_found"
)

// Decision is the terminal state of an authorization request: either
// Authorized with the role that carried the permission, or Denied with a
// reason.
type Decision struct {
	Authorized bool
	Role       string
	Reason     DenyReason
}

// ErrDenied wraps a denial so callers can propagate it as an error.
type ErrDenied struct {
	Reason DenyReason
}

func (e *ErrDenied) Error() string {
	return fmt.Sprintf("access denied: %s", e.Reason)
}

// Engine resolves effective roles across org and graph memberships and
// turns them into allow/deny decisions per operation.
type Engine struct {
	directory *membership.Directory
	orgs      store.OrganizationStore
	graphs    store.GraphStore
}

// NewEngine creates an authorization engine over the membership directory
// and the registry stores.
func NewEngine(directory *membership.Directory, orgs store.OrganizationStore, graphs store.GraphStore) *Engine {
	return &Engine{
		directory: directory,
		orgs:      orgs,
		graphs:    graphs,
	}
}

// AuthorizeGraph decides whether a user may perform an operation on a
// graph. An explicit graph-level role overrides the org-level role for
// that graph; absent a graph grant, the org role applies as the default
// for every graph in the org. The org owner is always authorized, which
// keeps a misconfigured membership table recoverable.
func (e *Engine) AuthorizeGraph(ctx context.Context, userID uuid.UUID, appGraphID string, perm Permission) (Decision, error) {
	graph, err := e.graphs.Get(ctx, appGraphID)
	if err != nil {
		if errors.Is(err, store.ErrGraphNotFound) {
			return Decision{Reason: DenyGraphNotFound}, nil
		}
		return Decision{}, fmt.Errorf("failed to resolve graph: %w", err)
	}

	org, err := e.orgs.Get(ctx, graph.OrgID)
	if err != nil {
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return Decision{Reason: DenyOrgNotFound}, nil
		}
		return Decision{}, fmt.Errorf("failed to resolve organization: %w", err)
	}

	if org.OwnerUserID == userID {
		return Decision{Authorized: true, Role: RoleAdmin}, nil
	}

	graphRole, hasGraphRole, err := e.directory.GetGraphRole(ctx, appGraphID, userID)
	if err != nil {
		return Decision{}, err
	}

	orgRole, hasOrgRole, err := e.directory.GetOrgRole(ctx, graph.OrgID, userID)
	if err != nil {
		return Decision{}, err
	}

	if !hasGraphRole && !hasOrgRole {
		return Decision{Reason: DenyNoAccess}, nil
	}

	// Graph grants are the finer-grained override.
	role := orgRole
	if hasGraphRole {
		role = graphRole
	}

	if !HasPermission(role, perm) {
		return Decision{Role: role, Reason: DenyInsufficientRole}, nil
	}

	return Decision{Authorized: true, Role: role}, nil
}

// AuthorizeOrg decides whether a user may perform an org-scoped
// operation, such as creating graphs or managing org memberships.
func (e *Engine) AuthorizeOrg(ctx context.Context, userID, orgID uuid.UUID, perm Permission) (Decision, error) {
	org, err := e.orgs.Get(ctx, orgID)
	if err != nil {
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return Decision{Reason: DenyOrgNotFound}, nil
		}
		return Decision{}, fmt.Errorf("failed to resolve organization: %w", err)
	}

	if org.OwnerUserID == userID {
		return Decision{Authorized: true, Role: RoleAdmin}, nil
	}

	role, hasRole, err := e.directory.GetOrgRole(ctx, orgID, userID)
	if err != nil {
		return Decision{}, err
	}

	if !hasRole {
		return Decision{Reason: DenyNoAccess}, nil
	}

	if !HasPermission(role, perm) {
		return Decision{Role: role, Reason: DenyInsufficientRole}, nil
	}

	return Decision{Authorized: true, Role: role}, nil
}

// recordDecision emits the decision counters with the permission and
// outcome as attributes.
func recordDecision(ctx context.Context, perm Permission, decision Decision) {
	m := telemetry.GetMetrics()
	m.AuthzDecisionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("permission", string(perm)),
		attribute.Bool("authorized", decision.Authorized),
	))
	if !decision.Authorized {
		m.AuthzDeniedTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("permission", string(perm)),
			attribute.String("reason", string(decision.Reason)),
		))
	}
}

// RequireGraph is AuthorizeGraph folded into an error, for handlers that
// only need pass/fail.
func (e *Engine) RequireGraph(ctx context.Context, userID uuid.UUID, appGraphID string, perm Permission) error {
	decision, err := e.AuthorizeGraph(ctx, userID, appGraphID, perm)
	if err != nil {
		return err
	}
	recordDecision(ctx, perm, decision)
	if !decision.Authorized {
		return &ErrDenied{Reason: decision.Reason}
	}
	return nil
}

// RequireOrg is AuthorizeOrg folded into an error.
func (e *Engine) RequireOrg(ctx context.Context, userID, orgID uuid.UUID, perm Permission) error {
	decision, err := e.AuthorizeOrg(ctx, userID, orgID, perm)
	if err != nil {
		return err
	}
	recordDecision(ctx, perm, decision)
	if !decision.Authorized {
		return &ErrDenied{Reason: decision.Reason}
	}
	return nil
}
