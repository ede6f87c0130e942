package graphengine

import (
	"context"
	"fmt"
	"sync"
)

// Memory implements Engine with in-process state. This implementation is
// for testing only. It can be told to fail specific calls so the
// registry's compensation path is testable.
type Memory struct {
	mu sync.Mutex

	seq    int
	graphs map[string]*memoryGraph

	// FailCreate makes the next CreateGraph call fail.
	FailCreate bool
	// FailDrop makes DropGraph calls fail.
	FailDrop bool

	// Dropped records every storage id handed to DropGraph, in order.
	Dropped []string
}

type memoryGraph struct {
	vertexLabels map[string]struct{}
	edgeLabels   map[string]struct{}
	vertices     int
}

// NewMemory creates a new in-memory graph engine.
func NewMemory() *Memory {
	return &Memory{
		graphs: make(map[string]*memoryGraph),
	}
}

// CreateGraph allocates a new in-memory graph.
func (e *Memory) CreateGraph(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.FailCreate {
		e.FailCreate = false
		return "", ErrUnavailable
	}

	e.seq++
	storageGraphID := fmt.Sprintf("g%08d", e.seq)
	e.graphs[storageGraphID] = &memoryGraph{
		vertexLabels: make(map[string]struct{}),
		edgeLabels:   make(map[string]struct{}),
	}

	return storageGraphID, nil
}

// DropGraph destroys an in-memory graph. Unknown graphs are a no-op.
func (e *Memory) DropGraph(ctx context.Context, storageGraphID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.FailDrop {
		return ErrUnavailable
	}

	delete(e.graphs, storageGraphID)
	e.Dropped = append(e.Dropped, storageGraphID)

	return nil
}

// CreateVertexLabel provisions a vertex label.
func (e *Memory) CreateVertexLabel(ctx context.Context, storageGraphID, label string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, ok := e.graphs[storageGraphID]
	if !ok {
		return ErrUnavailable
	}

	if _, exists := g.vertexLabels[label]; exists {
		return ErrLabelExists
	}
	g.vertexLabels[label] = struct{}{}

	return nil
}

// CreateEdgeLabel provisions an edge label.
func (e *Memory) CreateEdgeLabel(ctx context.Context, storageGraphID, label string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, ok := e.graphs[storageGraphID]
	if !ok {
		return ErrUnavailable
	}

	if _, exists := g.edgeLabels[label]; exists {
		return ErrLabelExists
	}
	g.edgeLabels[label] = struct{}{}

	return nil
}

// CreateVertex inserts a vertex. Label and property name syntax is
// checked the same way the AGE engine checks it so tests exercise the
// same rejections.
func (e *Memory) CreateVertex(ctx context.Context, storageGraphID, label string, properties map[string]any) error {
	if !labelPattern.MatchString(label) {
		return fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	for name := range properties {
		if !propertyNamePattern.MatchString(name) {
			return fmt.Errorf("%w: %q", ErrInvalidPropertyName, name)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	g, ok := e.graphs[storageGraphID]
	if !ok {
		return ErrUnavailable
	}

	g.vertices++
	return nil
}

// HasEdgeLabel reports whether an edge label is provisioned on a graph.
func (e *Memory) HasEdgeLabel(storageGraphID, label string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, ok := e.graphs[storageGraphID]
	if !ok {
		return false
	}
	_, ok = g.edgeLabels[label]
	return ok
}

// HasGraph reports whether the storage id is currently allocated.
func (e *Memory) HasGraph(storageGraphID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.graphs[storageGraphID]
	return ok
}

// VertexCount returns the number of vertices created on a graph.
func (e *Memory) VertexCount(storageGraphID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if g, ok := e.graphs[storageGraphID]; ok {
		return g.vertices
	}
	return 0
}
