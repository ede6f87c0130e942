// Package graphengine is the boundary to the underlying property-graph
// store. The core addresses the engine by storage-level graph id only and
// never issues traversal or query calls of its own.
package graphengine

import (
	"context"
	"errors"
)

// Sentinel errors for engine operations
var (
	// ErrUnavailable indicates the engine could not be reached or refused
	// the call. It is surfaced to the caller, never retried here.
	ErrUnavailable = errors.New("graph engine unavailable")

	// ErrLabelExists indicates the vertex or edge label is already
	// provisioned on the graph.
	ErrLabelExists = errors.New("label already exists")

	// ErrGraphExists indicates the storage-level graph name is taken.
	ErrGraphExists = errors.New("graph already exists in engine")

	// ErrInvalidLabel indicates a label that is not legal identifier
	// syntax. Labels are interpolated into cypher text, so anything
	// outside the identifier alphabet is refused here as the last line
	// of defense.
	ErrInvalidLabel = errors.New("invalid graph label")

	// ErrInvalidPropertyName indicates a property name outside the
	// identifier alphabet. Same rationale as ErrInvalidLabel.
	ErrInvalidPropertyName = errors.New("invalid property name")
)

// Engine abstracts the property-graph store. Implementations allocate
// storage-level graph identifiers; the registry owns the mapping from
// app-level identifiers onto them.
type Engine interface {
	// CreateGraph allocates a new graph and returns the storage-level
	// identifier the engine assigned.
	CreateGraph(ctx context.Context) (string, error)

	// DropGraph destroys a graph and everything in it. Dropping an
	// unknown graph is a no-op so registry deletion stays idempotent.
	DropGraph(ctx context.Context, storageGraphID string) error

	// CreateVertexLabel provisions a vertex label on a graph.
	CreateVertexLabel(ctx context.Context, storageGraphID, label string) error

	// CreateEdgeLabel provisions an edge label on a graph.
	CreateEdgeLabel(ctx context.Context, storageGraphID, label string) error

	// CreateVertex inserts a vertex with the given label and properties.
	// Callers must run schema validation first; the engine itself is
	// untyped.
	CreateVertex(ctx context.Context, storageGraphID, label string, properties map[string]any) error
}
