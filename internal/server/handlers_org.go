package server

import (
	"net/http"
	"time"

	"github.com/graphgate/graphgate/internal/auth"
	"github.com/graphgate/graphgate/internal/models"
)

type orgResponse struct {
	OrgID       string    `json:"org_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerUserID string    `json:"owner_user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toOrgResponse(org *models.Organization) orgResponse {
	return orgResponse{
		OrgID:       org.OrgID.String(),
		Name:        org.Name,
		Description: org.Description,
		OwnerUserID: org.OwnerUserID.String(),
		CreatedAt:   org.CreatedAt,
		UpdatedAt:   org.UpdatedAt,
	}
}

type memberResponse struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Server) handleCreateOrg(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	org, err := s.registry.CreateOrganization(r.Context(), req.Name, req.Description, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrgResponse(org))
}

func (s *Server) handleListOrgs(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	orgs, err := s.registry.ListOrganizationsForUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]orgResponse, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, toOrgResponse(org))
	}

	writeJSON(w, http.StatusOK, map[string]any{"organizations": out})
}

func (s *Server) handleGetOrg(w http.ResponseWriter, r *http.Request) {
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

	org, err := s.registry.GetOrganization(r.Context(), orgID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrgResponse(org))
}

func (s *Server) handleDeleteOrg(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	orgID, ok := pathUUID(w, r, "orgID")
	if !ok {
		return
	}

	if err := s.authz.RequireOrg(r.Context(), userID, orgID, auth.PermOrgManage); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.registry.DeleteOrganization(r.Context(), orgID); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListOrgMembers(w http.ResponseWriter, r *http.Request) {
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

	members, err := s.directory.ListOrgMembers(r.Context(), orgID)
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

func (s *Server) handleGrantOrgRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	orgID, ok := pathUUID(w, r, "orgID")
	if !ok {
		return
	}
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

	if err := s.authz.RequireOrg(r.Context(), userID, orgID, auth.PermMembersManage); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.directory.GrantOrgRole(r.Context(), orgID, memberID, req.Role); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRevokeOrgRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	orgID, ok := pathUUID(w, r, "orgID")
	if !ok {
		return
	}
	memberID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	if err := s.authz.RequireOrg(r.Context(), userID, orgID, auth.PermMembersManage); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.directory.RevokeOrgRole(r.Context(), orgID, memberID); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
