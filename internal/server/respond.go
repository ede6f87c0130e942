package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/auth"
	"github.com/graphgate/graphgate/internal/graphengine"
	"github.com/graphgate/graphgate/internal/membership"
	"github.com/graphgate/graphgate/internal/registry"
	"github.com/graphgate/graphgate/internal/schema"
	"github.com/graphgate/graphgate/internal/store"
	"github.com/rs/zerolog"
)

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, into any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(into)
}

// writeError maps core errors onto the HTTP status taxonomy: validation
// failures are 400, duplicates 409, missing resources 404, authorization
// denials 403 or 404, dependency outages 503. Anything unmapped is a 500
// with the detail kept out of the response body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var denied *auth.ErrDenied
	if errors.As(err, &denied) {
		switch denied.Reason {
		case auth.DenyGraphNotFound, auth.DenyOrgNotFound:
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found", Reason: string(denied.Reason)})
		default:
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "access denied", Reason: string(denied.Reason)})
		}
		return
	}

	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Reason: "invalid_payload"})
		return
	}

	switch {
	case errors.Is(err, registry.ErrInvalidIdentifier),
		errors.Is(err, registry.ErrEmptyName),
		errors.Is(err, schema.ErrEmptyName),
		errors.Is(err, schema.ErrInvalidName),
		errors.Is(err, schema.ErrUnknownDataType),
		errors.Is(err, graphengine.ErrInvalidLabel),
		errors.Is(err, graphengine.ErrInvalidPropertyName),
		errors.Is(err, membership.ErrEmptyRole):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})

	case errors.Is(err, registry.ErrDuplicateIdentifier),
		errors.Is(err, schema.ErrDuplicateType),
		errors.Is(err, schema.ErrDuplicateEdgeType),
		errors.Is(err, schema.ErrDuplicateAttribute):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})

	case errors.Is(err, registry.ErrOrgNotFound),
		errors.Is(err, registry.ErrGraphNotFound),
		errors.Is(err, schema.ErrGraphNotFound),
		errors.Is(err, schema.ErrTypeNotFound),
		errors.Is(err, membership.ErrOrgNotFound),
		errors.Is(err, membership.ErrGraphNotFound),
		errors.Is(err, store.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})

	case errors.Is(err, registry.ErrStoreUnavailable),
		errors.Is(err, graphengine.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "graph store unavailable"})

	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// principal extracts the authenticated user id or fails the request.
func principal(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return uuid.Nil, false
	}
	return userID, true
}

// pathUUID parses a UUID path segment or fails the request with a 400.
func pathUUID(w http.ResponseWriter, r *http.Request, segment string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(segment))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid " + segment})
		return uuid.Nil, false
	}
	return id, true
}
