package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/auth"
	"github.com/graphgate/graphgate/internal/graphengine"
	"github.com/graphgate/graphgate/internal/membership"
	"github.com/graphgate/graphgate/internal/registry"
	"github.com/graphgate/graphgate/internal/schema"
	"github.com/graphgate/graphgate/internal/store/memory"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	mux    *http.ServeMux
	engine *graphengine.Memory
}

func newTestServer(t *testing.T, cfg schema.CatalogConfig) *testServer {
	t.Helper()

	orgs := memory.NewOrganizationStore()
	graphs := memory.NewGraphStore(orgs)
	memberships := memory.NewMembershipStore()
	schemaStore := memory.NewSchemaStore()
	users := memory.NewUserStore()
	engine := graphengine.NewMemory()

	reg := registry.New(orgs, graphs, memberships, schemaStore, engine)
	catalog := schema.NewCatalog(schemaStore, graphs, engine, cfg)
	directory := membership.NewDirectory(memberships, orgs, graphs)
	authz := auth.NewEngine(directory, orgs, graphs)

	srv := NewServer(reg, catalog, directory, authz, engine, users)

	return &testServer{mux: srv.Routes(), engine: engine}
}

// do issues a request as the given user, bypassing the JWT middleware
// the way an already-authenticated request would arrive.
func (ts *testServer) do(t *testing.T, userID uuid.UUID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(auth.WithPrincipal(req.Context(), userID))

	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)

	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into))
}

func TestServer_Healthz(t *testing.T) {
	ts := newTestServer(t, schema.CatalogConfig{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_GraphLifecycle(t *testing.T) {
	ts := newTestServer(t, schema.CatalogConfig{})
	owner := uuid.New()

	// Create org
	rec := ts.do(t, owner, http.MethodPost, "/v1/orgs", map[string]any{"name": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var org struct {
		OrgID string `json:"org_id"`
	}
	decodeBody(t, rec, &org)
	require.NotEmpty(t, org.OrgID)

	graphsPath := fmt.Sprintf("/v1/orgs/%s/graphs", org.OrgID)

	t.Run("create graph", func(t *testing.T) {
		rec := ts.do(t, owner, http.MethodPost, graphsPath, map[string]any{
			"app_graph_id": "risk_graph",
			"name":         "Risk Graph",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		// The storage-level identifier never appears in responses
		require.NotContains(t, rec.Body.String(), "storage_graph_id")
	})

	t.Run("duplicate graph id conflicts", func(t *testing.T) {
		rec := ts.do(t, owner, http.MethodPost, graphsPath, map[string]any{
			"app_graph_id": "risk_graph",
			"name":         "Again",
		})
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid graph id is a bad request", func(t *testing.T) {
		rec := ts.do(t, owner, http.MethodPost, graphsPath, map[string]any{
			"app_graph_id": "9starts-with-digit",
			"name":         "Nope",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get and list", func(t *testing.T) {
		rec := ts.do(t, owner, http.MethodGet, "/v1/graphs/risk_graph", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = ts.do(t, owner, http.MethodGet, graphsPath, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown graph is not found", func(t *testing.T) {
		rec := ts.do(t, owner, http.MethodGet, "/v1/graphs/missing", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		rec := ts.do(t, owner, http.MethodDelete, "/v1/graphs/risk_graph", nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		// Second delete: the graph no longer resolves, which the
		// authorization layer reports as not found.
		rec = ts.do(t, owner, http.MethodDelete, "/v1/graphs/risk_graph", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

// TestServer_AccessScenario walks the membership story end to end: an
// owner provisions an org, graph and schema; a second user starts with
// nothing, is granted org-wide read, then graph-scoped write.
func TestServer_AccessScenario(t *testing.T) {
	ts := newTestServer(t, schema.CatalogConfig{})
	owner := uuid.New()
	analyst := uuid.New()

	// Owner sets up the tenancy
	rec := ts.do(t, owner, http.MethodPost, "/v1/orgs", map[string]any{"name": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var org struct {
		OrgID string `json:"org_id"`
	}
	decodeBody(t, rec, &org)

	rec = ts.do(t, owner, http.MethodPost, fmt.Sprintf("/v1/orgs/%s/graphs", org.OrgID), map[string]any{
		"app_graph_id": "risk_graph",
		"name":         "Risk Graph",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, owner, http.MethodPost, "/v1/graphs/risk_graph/types", map[string]any{
		"name": "Risk",
		"attributes": []map[string]any{
			{"name": "name", "data_type": "string", "required": true},
			{"name": "likelihood", "data_type": "integer", "required": true},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var defined struct {
		NodeType struct {
			TypeID string `json:"type_id"`
		} `json:"node_type"`
	}
	decodeBody(t, rec, &defined)
	typeID := defined.NodeType.TypeID

	// The analyst has no membership yet
	rec = ts.do(t, analyst, http.MethodGet, "/v1/graphs/risk_graph", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Org-wide viewer: read works on every graph, writes stay denied
	rec = ts.do(t, owner, http.MethodPut, fmt.Sprintf("/v1/orgs/%s/members/%s", org.OrgID, analyst), map[string]any{
		"role": "viewer",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, analyst, http.MethodGet, "/v1/graphs/risk_graph", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	vertex := map[string]any{
		"type_id":    typeID,
		"properties": map[string]any{"name": "data breach", "likelihood": 30},
	}
	rec = ts.do(t, analyst, http.MethodPost, "/v1/graphs/risk_graph/vertices", vertex)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Graph-scoped editor overrides the org-wide viewer on this graph
	rec = ts.do(t, owner, http.MethodPut, fmt.Sprintf("/v1/graphs/risk_graph/members/%s", analyst), map[string]any{
		"role": "editor",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, analyst, http.MethodPost, "/v1/graphs/risk_graph/vertices", vertex)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Schema validation rejects bad payloads before the engine sees them
	rec = ts.do(t, analyst, http.MethodPost, "/v1/graphs/risk_graph/vertices", map[string]any{
		"type_id":    typeID,
		"properties": map[string]any{"name": "data breach"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "likelihood")

	rec = ts.do(t, analyst, http.MethodPost, "/v1/graphs/risk_graph/vertices", map[string]any{
		"type_id":    typeID,
		"properties": map[string]any{"name": "data breach", "likelihood": "thirty"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Revoking the graph grant drops the analyst back to org-wide viewer
	rec = ts.do(t, owner, http.MethodDelete, fmt.Sprintf("/v1/graphs/risk_graph/members/%s", analyst), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, analyst, http.MethodPost, "/v1/graphs/risk_graph/vertices", vertex)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Revoke is idempotent
	rec = ts.do(t, owner, http.MethodDelete, fmt.Sprintf("/v1/graphs/risk_graph/members/%s", analyst), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServer_SchemaRoutes(t *testing.T) {
	ts := newTestServer(t, schema.CatalogConfig{})
	owner := uuid.New()

	rec := ts.do(t, owner, http.MethodPost, "/v1/orgs", map[string]any{"name": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var org struct {
		OrgID string `json:"org_id"`
	}
	decodeBody(t, rec, &org)

	rec = ts.do(t, owner, http.MethodPost, fmt.Sprintf("/v1/orgs/%s/graphs", org.OrgID), map[string]any{
		"app_graph_id": "risk_graph",
		"name":         "Risk Graph",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, owner, http.MethodPost, "/v1/graphs/risk_graph/types", map[string]any{"name": "Risk"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var defined struct {
		NodeType struct {
			TypeID string `json:"type_id"`
		} `json:"node_type"`
	}
	decodeBody(t, rec, &defined)

	t.Run("duplicate type name conflicts", func(t *testing.T) {
		rec := ts.do(t, owner, http.MethodPost, "/v1/graphs/risk_graph/types", map[string]any{"name": "  RISK "})
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("type name outside identifier syntax is a bad request", func(t *testing.T) {
		rec := ts.do(t, owner, http.MethodPost, "/v1/graphs/risk_graph/types", map[string]any{"name": "Data Breach"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("attribute name outside identifier syntax is a bad request", func(t *testing.T) {
		rec := ts.do(t, owner, http.MethodPost, "/v1/types/"+defined.NodeType.TypeID+"/attributes", map[string]any{
			"name":      "bad name",
			"data_type": "string",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("attribute with unknown data type is a bad request", func(t *testing.T) {
		rec := ts.do(t, owner, http.MethodPost, "/v1/types/"+defined.NodeType.TypeID+"/attributes", map[string]any{
			"name":      "likelihood",
			"data_type": "decimal",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("add and list attributes", func(t *testing.T) {
		rec := ts.do(t, owner, http.MethodPost, "/v1/types/"+defined.NodeType.TypeID+"/attributes", map[string]any{
			"name":      "likelihood",
			"data_type": "integer",
			"required":  true,
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = ts.do(t, owner, http.MethodGet, "/v1/types/"+defined.NodeType.TypeID+"/attributes", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "likelihood")
	})

	t.Run("list node types", func(t *testing.T) {
		rec := ts.do(t, owner, http.MethodGet, "/v1/graphs/risk_graph/types", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "Risk")
	})

	t.Run("edge types", func(t *testing.T) {
		rec := ts.do(t, owner, http.MethodPost, "/v1/graphs/risk_graph/edge-types", map[string]any{
			"name":        "depends on",
			"description": "dependency between assets",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var et struct {
			Name  string `json:"name"`
			Label string `json:"label"`
		}
		decodeBody(t, rec, &et)
		require.Equal(t, "depends on", et.Name)
		require.Equal(t, "DEPENDS_ON", et.Label)

		// Different spelling, same normalized label
		rec = ts.do(t, owner, http.MethodPost, "/v1/graphs/risk_graph/edge-types", map[string]any{
			"name": "Depends On",
		})
		require.Equal(t, http.StatusConflict, rec.Code)

		rec = ts.do(t, owner, http.MethodPost, "/v1/graphs/risk_graph/edge-types", map[string]any{
			"name": "depends_on2",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		rec = ts.do(t, owner, http.MethodGet, "/v1/graphs/risk_graph/edge-types", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "DEPENDS_ON")
	})

	t.Run("vertex with type from another graph is not found", func(t *testing.T) {
		rec := ts.do(t, owner, http.MethodPost, fmt.Sprintf("/v1/orgs/%s/graphs", org.OrgID), map[string]any{
			"app_graph_id": "other_graph",
			"name":         "Other",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = ts.do(t, owner, http.MethodPost, "/v1/graphs/other_graph/vertices", map[string]any{
			"type_id":    defined.NodeType.TypeID,
			"properties": map[string]any{},
		})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("vertex property name outside identifier syntax is a bad request", func(t *testing.T) {
		rec := ts.do(t, owner, http.MethodPost, "/v1/graphs/risk_graph/vertices", map[string]any{
			"type_id":    defined.NodeType.TypeID,
			"properties": map[string]any{"bad name": "x"},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// TestServer_GraphCreateRequiresAdmin pins graph provisioning to the
// org-admin role: schema and vertex write rights are not enough.
func TestServer_GraphCreateRequiresAdmin(t *testing.T) {
	ts := newTestServer(t, schema.CatalogConfig{})
	owner := uuid.New()
	editor := uuid.New()
	admin := uuid.New()

	rec := ts.do(t, owner, http.MethodPost, "/v1/orgs", map[string]any{"name": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var org struct {
		OrgID string `json:"org_id"`
	}
	decodeBody(t, rec, &org)

	graphsPath := fmt.Sprintf("/v1/orgs/%s/graphs", org.OrgID)

	rec = ts.do(t, owner, http.MethodPut, fmt.Sprintf("/v1/orgs/%s/members/%s", org.OrgID, editor), map[string]any{
		"role": "editor",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, editor, http.MethodPost, graphsPath, map[string]any{
		"app_graph_id": "editor_graph",
		"name":         "Editor Graph",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, owner, http.MethodPut, fmt.Sprintf("/v1/orgs/%s/members/%s", org.OrgID, admin), map[string]any{
		"role": "admin",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, admin, http.MethodPost, graphsPath, map[string]any{
		"app_graph_id": "admin_graph",
		"name":         "Admin Graph",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestServer_UserSync(t *testing.T) {
	ts := newTestServer(t, schema.CatalogConfig{})
	userID := uuid.New()

	rec := ts.do(t, userID, http.MethodPut, "/v1/users/me", map[string]any{
		"email":      "ana@example.com",
		"first_name": "Ana",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ana@example.com")

	rec = ts.do(t, userID, http.MethodPut, "/v1/users/me", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
