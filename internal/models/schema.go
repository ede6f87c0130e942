package models

import (
	"time"

	"github.com/google/uuid"
)

// NodeType is a typed vertex definition scoped to a graph. NormalizedName
// is the canonical (case and whitespace folded) form used solely for
// uniqueness within the graph; Name keeps the author's original casing
// for display.
type NodeType struct {
	TypeID         uuid.UUID // UUIDv7
	AppGraphID     string
	Name           string
	NormalizedName string
	Description    string
	CreatedBy      uuid.UUID

	CreatedAt time.Time
}

// EdgeType is a typed relationship definition scoped to a graph. The
// normalized form (upper snake case) is unique per graph and doubles as
// the engine edge label; Name keeps the author's original spelling.
type EdgeType struct {
	EdgeTypeID     uuid.UUID // UUIDv7
	AppGraphID     string
	Name           string
	NormalizedName string
	Description    string
	CreatedBy      uuid.UUID

	CreatedAt time.Time
}

// NodeTypeAttribute declares a typed attribute on a node type. Unique per
// (type, normalized name). Required attributes must be present in every
// vertex payload validated against the type.
type NodeTypeAttribute struct {
	AttributeID    uuid.UUID // UUIDv7
	TypeID         uuid.UUID
	Name           string
	NormalizedName string
	DataType       string // one of the schema package's closed set
	Required       bool
	Description    string

	CreatedAt time.Time
}
