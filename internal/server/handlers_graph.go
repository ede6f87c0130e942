package server

import (
	"net/http"
	"time"

	"github.com/graphgate/graphgate/internal/auth"
	"github.com/graphgate/graphgate/internal/models"
)

// graphResponse deliberately omits the storage-level identifier: clients
// only ever see the app-level one.
type graphResponse struct {
	AppGraphID  string    `json:"app_graph_id"`
	OrgID       string    `json:"org_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toGraphResponse(graph *models.Graph) graphResponse {
	return graphResponse{
		AppGraphID:  graph.AppGraphID,
		OrgID:       graph.OrgID.String(),
		Name:        graph.Name,
		Description: graph.Description,
		CreatedBy:   graph.CreatedBy.String(),
		CreatedAt:   graph.CreatedAt,
		UpdatedAt:   graph.UpdatedAt,
	}
}

func (s *Server) handleCreateGraph(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	orgID, ok := pathUUID(w, r, "orgID")
	if !ok {
		return
	}

	var req struct {
		AppGraphID  string `json:"app_graph_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	// Creating a graph is an org-admin action, not a schema edit: it
	// provisions engine storage and seeds memberships.
	if err := s.authz.RequireOrg(r.Context(), userID, orgID, auth.PermGraphCreate); err != nil {
		writeError(w, r, err)
		return
	}

	graph, err := s.registry.CreateGraph(r.Context(), orgID, req.AppGraphID, req.Name, req.Description, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toGraphResponse(graph))
}

func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	orgID, ok := pathUUID(w, r, "orgID")
	if !ok {
		return
	}

	if err := s.authz.RequireOrg(r.Context(), userID, orgID, auth.PermGraphRead); err != nil {
		writeError(w, r, err)
		return
	}

	graphs, err := s.registry.ListGraphsForOrg(r.Context(), orgID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]graphResponse, 0, len(graphs))
	for _, graph := range graphs {
		out = append(out, toGraphResponse(graph))
	}

	writeJSON(w, http.StatusOK, map[string]any{"graphs": out})
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	appGraphID := r.PathValue("appGraphID")

	if err := s.authz.RequireGraph(r.Context(), userID, appGraphID, auth.PermGraphRead); err != nil {
		writeError(w, r, err)
		return
	}

	graph, err := s.registry.GetGraph(r.Context(), appGraphID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toGraphResponse(graph))
}

func (s *Server) handleDeleteGraph(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	appGraphID := r.PathValue("appGraphID")

	if err := s.authz.RequireGraph(r.Context(), userID, appGraphID, auth.PermGraphDelete); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.registry.DeleteGraph(r.Context(), appGraphID); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListGraphMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	appGraphID := r.PathValue("appGraphID")

	if err := s.authz.RequireGraph(r.Context(), userID, appGraphID, auth.PermGraphRead); err != nil {
		writeError(w, r, err)
		return
	}

	members, err := s.directory.ListGraphMembers(r.Context(), appGraphID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, memberResponse{
			UserID:    m.UserID.String(),
			Role:      m.Role,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"members": out})
}

func (s *Server) handleGrantGraphRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	appGraphID := r.PathValue("appGraphID")
	memberID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := s.authz.RequireGraph(r.Context(), userID, appGraphID, auth.PermMembersManage); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.directory.GrantGraphRole(r.Context(), appGraphID, memberID, req.Role); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRevokeGraphRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	appGraphID := r.PathValue("appGraphID")
	memberID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	if err := s.authz.RequireGraph(r.Context(), userID, appGraphID, auth.PermMembersManage); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.directory.RevokeGraphRole(r.Context(), appGraphID, memberID); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
