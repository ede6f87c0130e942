package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/auth"
	"github.com/graphgate/graphgate/internal/models"
	"github.com/graphgate/graphgate/internal/schema"
	"github.com/graphgate/graphgate/internal/telemetry"
)

type nodeTypeResponse struct {
	TypeID      string    `json:"type_id"`
	AppGraphID  string    `json:"app_graph_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func toNodeTypeResponse(nt *models.NodeType) nodeTypeResponse {
	return nodeTypeResponse{
		TypeID:      nt.TypeID.String(),
		AppGraphID:  nt.AppGraphID,
		Name:        nt.Name,
		Description: nt.Description,
		CreatedBy:   nt.CreatedBy.String(),
		CreatedAt:   nt.CreatedAt,
	}
}

type attributeResponse struct {
	AttributeID string    `json:"attribute_id"`
	TypeID      string    `json:"type_id"`
	Name        string    `json:"name"`
	DataType    string    `json:"data_type"`
	Required    bool      `json:"required"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAttributeResponse(attr *models.NodeTypeAttribute) attributeResponse {
	return attributeResponse{
		AttributeID: attr.AttributeID.String(),
		TypeID:      attr.TypeID.String(),
		Name:        attr.Name,
		DataType:    attr.DataType,
		Required:    attr.Required,
		Description: attr.Description,
		CreatedAt:   attr.CreatedAt,
	}
}

type attributeRequest struct {
	Name        string `json:"name"`
	DataType    string `json:"data_type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

func (s *Server) handleDefineNodeType(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	appGraphID := r.PathValue("appGraphID")

	var req struct {
		Name        string             `json:"name"`
		Description string             `json:"description"`
		Attributes  []attributeRequest `json:"attributes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := s.authz.RequireGraph(r.Context(), userID, appGraphID, auth.PermSchemaWrite); err != nil {
		writeError(w, r, err)
		return
	}

	nt, err := s.catalog.DefineNodeType(r.Context(), appGraphID, req.Name, req.Description, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	attrs := make([]attributeResponse, 0, len(req.Attributes))
	for _, a := range req.Attributes {
		attr, err := s.catalog.AddAttribute(r.Context(), nt.TypeID, a.Name, a.DataType, a.Required, a.Description)
		if err != nil {
			writeError(w, r, err)
			return
		}
		attrs = append(attrs, toAttributeResponse(attr))
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"node_type":  toNodeTypeResponse(nt),
		"attributes": attrs,
	})
}

func (s *Server) handleListNodeTypes(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	appGraphID := r.PathValue("appGraphID")

	if err := s.authz.RequireGraph(r.Context(), userID, appGraphID, auth.PermGraphRead); err != nil {
		writeError(w, r, err)
		return
	}

	types, err := s.catalog.ListNodeTypes(r.Context(), appGraphID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]nodeTypeResponse, 0, len(types))
	for _, nt := range types {
		out = append(out, toNodeTypeResponse(nt))
	}

	writeJSON(w, http.StatusOK, map[string]any{"node_types": out})
}

type edgeTypeResponse struct {
	EdgeTypeID  string    `json:"edge_type_id"`
	AppGraphID  string    `json:"app_graph_id"`
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func toEdgeTypeResponse(et *models.EdgeType) edgeTypeResponse {
	return edgeTypeResponse{
		EdgeTypeID:  et.EdgeTypeID.String(),
		AppGraphID:  et.AppGraphID,
		Name:        et.Name,
		Label:       et.NormalizedName,
		Description: et.Description,
		CreatedBy:   et.CreatedBy.String(),
		CreatedAt:   et.CreatedAt,
	}
}

func (s *Server) handleDefineEdgeType(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	appGraphID := r.PathValue("appGraphID")

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := s.authz.RequireGraph(r.Context(), userID, appGraphID, auth.PermSchemaWrite); err != nil {
		writeError(w, r, err)
		return
	}

	et, err := s.catalog.DefineEdgeType(r.Context(), appGraphID, req.Name, req.Description, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEdgeTypeResponse(et))
}

func (s *Server) handleListEdgeTypes(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	appGraphID := r.PathValue("appGraphID")

	if err := s.authz.RequireGraph(r.Context(), userID, appGraphID, auth.PermGraphRead); err != nil {
		writeError(w, r, err)
		return
	}

	edgeTypes, err := s.catalog.ListEdgeTypes(r.Context(), appGraphID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]edgeTypeResponse, 0, len(edgeTypes))
	for _, et := range edgeTypes {
		out = append(out, toEdgeTypeResponse(et))
	}

	writeJSON(w, http.StatusOK, map[string]any{"edge_types": out})
}

// resolveTypeGraph loads a node type and authorizes the caller against
// its owning graph. Type-scoped routes have no graph segment so the
// graph comes from the type itself.
func (s *Server) resolveTypeGraph(w http.ResponseWriter, r *http.Request, perm auth.Permission) (*models.NodeType, bool) {
	userID, ok := principal(w, r)
	if !ok {
		return nil, false
	}
	typeID, ok := pathUUID(w, r, "typeID")
	if !ok {
		return nil, false
	}

	nt, err := s.catalog.GetNodeType(r.Context(), typeID)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}

	if err := s.authz.RequireGraph(r.Context(), userID, nt.AppGraphID, perm); err != nil {
		writeError(w, r, err)
		return nil, false
	}

	return nt, true
}

func (s *Server) handleAddAttribute(w http.ResponseWriter, r *http.Request) {
	var req attributeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	nt, ok := s.resolveTypeGraph(w, r, auth.PermSchemaWrite)
	if !ok {
		return
	}

	attr, err := s.catalog.AddAttribute(r.Context(), nt.TypeID, req.Name, req.DataType, req.Required, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAttributeResponse(attr))
}

func (s *Server) handleListAttributes(w http.ResponseWriter, r *http.Request) {
	nt, ok := s.resolveTypeGraph(w, r, auth.PermGraphRead)
	if !ok {
		return
	}

	attrs, err := s.catalog.ListAttributes(r.Context(), nt.TypeID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]attributeResponse, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, toAttributeResponse(attr))
	}

	writeJSON(w, http.StatusOK, map[string]any{"attributes": out})
}

func (s *Server) handleCreateVertex(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	appGraphID := r.PathValue("appGraphID")

	var req struct {
		TypeID     string         `json:"type_id"`
		Properties map[string]any `json:"properties"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	typeID, err := uuid.Parse(req.TypeID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid type_id"})
		return
	}

	if err := s.authz.RequireGraph(r.Context(), userID, appGraphID, auth.PermVertexWrite); err != nil {
		writeError(w, r, err)
		return
	}

	nt, err := s.catalog.GetNodeType(r.Context(), typeID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// A type id from another graph must not leak data across tenants.
	if nt.AppGraphID != appGraphID {
		writeError(w, r, schema.ErrTypeNotFound)
		return
	}

	if err := s.catalog.ValidateVertexPayload(r.Context(), typeID, req.Properties); err != nil {
		writeError(w, r, err)
		return
	}

	storageGraphID, err := s.registry.ResolveStorageID(r.Context(), appGraphID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	started := time.Now()
	if err := s.engine.CreateVertex(r.Context(), storageGraphID, nt.Name, req.Properties); err != nil {
		writeError(w, r, err)
		return
	}

	m := telemetry.GetMetrics()
	m.VerticesCreatedTotal.Add(r.Context(), 1)
	m.VertexWriteDuration.Record(r.Context(), float64(time.Since(started).Milliseconds()))

	writeJSON(w, http.StatusCreated, map[string]any{
		"app_graph_id": appGraphID,
		"type_id":      typeID.String(),
	})
}
