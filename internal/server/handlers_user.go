package server

import (
	"net/http"
	"time"

	"github.com/graphgate/graphgate/internal/models"
)

// handleDeactivateUser marks the authenticated user inactive. The record
// is kept so memberships and audit history stay resolvable.
func (s *Server) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	if err := s.users.SetActive(r.Context(), userID, false); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type userResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// handleSyncUser upserts the authenticated user's profile. The identity
// provider owns authentication; this keeps the local user record current
// so membership listings can be joined against names and emails.
func (s *Server) handleSyncUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	var req struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email must not be empty"})
		return
	}

	now := time.Now()
	user := &models.User{
		UserID:    userID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.users.Upsert(r.Context(), user); err != nil {
		writeError(w, r, err)
		return
	}

	stored, err := s.users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		UserID:    stored.UserID.String(),
		Email:     stored.Email,
		FirstName: stored.FirstName,
		LastName:  stored.LastName,
		Active:    stored.Active,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
	})
}
