// Package server exposes the registry, schema catalog, membership
// directory and authorization engine over a thin JSON API. Every handler
// wraps exactly one core operation; no business rules live here.
package server

import (
	"net/http"

	"github.com/graphgate/graphgate/internal/auth"
	"github.com/graphgate/graphgate/internal/graphengine"
	"github.com/graphgate/graphgate/internal/logger"
	"github.com/graphgate/graphgate/internal/membership"
	"github.com/graphgate/graphgate/internal/registry"
	"github.com/graphgate/graphgate/internal/schema"
	"github.com/graphgate/graphgate/internal/store"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Server wires the core services into HTTP handlers.
type Server struct {
	registry  *registry.Registry
	catalog   *schema.Catalog
	directory *membership.Directory
	authz     *auth.Engine
	engine    graphengine.Engine
	users     store.UserStore
}

// NewServer creates a server over the core services.
func NewServer(
	reg *registry.Registry,
	catalog *schema.Catalog,
	directory *membership.Directory,
	authz *auth.Engine,
	engine graphengine.Engine,
	users store.UserStore,
) *Server {
	return &Server{
		registry:  reg,
		catalog:   catalog,
		directory: directory,
		authz:     authz,
		engine:    engine,
		users:     users,
	}
}

// Routes returns the bare mux with every API route registered, without
// any middleware. Exposed separately so tests can drive handlers with a
// pre-authenticated context.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoint for load balancer
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("PUT /v1/users/me", s.handleSyncUser)
	mux.HandleFunc("DELETE /v1/users/me", s.handleDeactivateUser)

	mux.HandleFunc("POST /v1/orgs", s.handleCreateOrg)
	mux.HandleFunc("GET /v1/orgs", s.handleListOrgs)
	mux.HandleFunc("GET /v1/orgs/{orgID}", s.handleGetOrg)
	mux.HandleFunc("DELETE /v1/orgs/{orgID}", s.handleDeleteOrg)
	mux.HandleFunc("GET /v1/orgs/{orgID}/members", s.handleListOrgMembers)
	mux.HandleFunc("PUT /v1/orgs/{orgID}/members/{userID}", s.handleGrantOrgRole)
	mux.HandleFunc("DELETE /v1/orgs/{orgID}/members/{userID}", s.handleRevokeOrgRole)

	mux.HandleFunc("POST /v1/orgs/{orgID}/graphs", s.handleCreateGraph)
	mux.HandleFunc("GET /v1/orgs/{orgID}/graphs", s.handleListGraphs)
	mux.HandleFunc("GET /v1/graphs/{appGraphID}", s.handleGetGraph)
	mux.HandleFunc("DELETE /v1/graphs/{appGraphID}", s.handleDeleteGraph)
	mux.HandleFunc("GET /v1/graphs/{appGraphID}/members", s.handleListGraphMembers)
	mux.HandleFunc("PUT /v1/graphs/{appGraphID}/members/{userID}", s.handleGrantGraphRole)
	mux.HandleFunc("DELETE /v1/graphs/{appGraphID}/members/{userID}", s.handleRevokeGraphRole)

	mux.HandleFunc("POST /v1/graphs/{appGraphID}/types", s.handleDefineNodeType)
	mux.HandleFunc("GET /v1/graphs/{appGraphID}/types", s.handleListNodeTypes)
	mux.HandleFunc("POST /v1/graphs/{appGraphID}/edge-types", s.handleDefineEdgeType)
	mux.HandleFunc("GET /v1/graphs/{appGraphID}/edge-types", s.handleListEdgeTypes)
	mux.HandleFunc("POST /v1/types/{typeID}/attributes", s.handleAddAttribute)
	mux.HandleFunc("GET /v1/types/{typeID}/attributes", s.handleListAttributes)

	mux.HandleFunc("POST /v1/graphs/{appGraphID}/vertices", s.handleCreateVertex)

	return mux
}

// Handler returns the full HTTP handler: routes wrapped in request
// logging, CORS and JWT authentication.
func (s *Server) Handler(log zerolog.Logger, verifier *auth.Verifier, corsOrigins []string) http.Handler {
	var handler http.Handler = s.Routes()

	handler = verifier.Middleware()(handler)
	handler = cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(handler)
	handler = logger.Requests(log)(handler)

	return handler
}
