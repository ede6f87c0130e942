package graphengine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// The cypher body handed to ag_catalog.cypher is an opaque string, so
// everything interpolated into it is either constrained to the
// identifier alphabet or carried inside a dollar-quoted region with a
// delimiter the input cannot contain.
var (
	labelPattern        = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,49}$`)
	propertyNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,49}$`)
)

// AGE implements Engine on top of the Apache AGE extension for
// PostgreSQL. Storage-level graph ids are the internal AGE graph names;
// they are generated here with a leading letter because AGE rejects names
// starting with anything else.
type AGE struct {
	pool *pgxpool.Pool
}

// NewAGE creates an engine backed by Apache AGE. The pool may be shared
// with the metadata stores; AGE catalogs live in the same database.
func NewAGE(pool *pgxpool.Pool) *AGE {
	return &AGE{
		pool: pool,
	}
}

// newStorageGraphID generates a random internal graph name, "g" plus
// 16 hex characters.
func newStorageGraphID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return "g" + hex.EncodeToString(buf)
}

// CreateGraph allocates a new AGE graph and returns its internal name.
func (e *AGE) CreateGraph(ctx context.Context) (string, error) {
	storageGraphID := newStorageGraphID()

	_, err := e.pool.Exec(ctx, `SELECT ag_catalog.create_graph($1)`, storageGraphID)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return "", ErrGraphExists
		}
		return "", fmt.Errorf("%w: create_graph: %s", ErrUnavailable, err)
	}

	log.Debug().
		Str("storage_graph_id", storageGraphID).
		Msg("Created AGE graph")

	return storageGraphID, nil
}

// DropGraph destroys an AGE graph and everything in it.
func (e *AGE) DropGraph(ctx context.Context, storageGraphID string) error {
	_, err := e.pool.Exec(ctx, `SELECT ag_catalog.drop_graph($1, true)`, storageGraphID)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			return nil
		}
		return fmt.Errorf("%w: drop_graph: %s", ErrUnavailable, err)
	}

	log.Info().
		Str("storage_graph_id", storageGraphID).
		Msg("Dropped AGE graph")

	return nil
}

// CreateVertexLabel provisions a vertex label on an AGE graph.
func (e *AGE) CreateVertexLabel(ctx context.Context, storageGraphID, label string) error {
	_, err := e.pool.Exec(ctx, `SELECT ag_catalog.create_vlabel($1, $2)`, storageGraphID, label)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return ErrLabelExists
		}
		return fmt.Errorf("%w: create_vlabel: %s", ErrUnavailable, err)
	}

	return nil
}

// CreateEdgeLabel provisions an edge label on an AGE graph.
func (e *AGE) CreateEdgeLabel(ctx context.Context, storageGraphID, label string) error {
	_, err := e.pool.Exec(ctx, `SELECT ag_catalog.create_elabel($1, $2)`, storageGraphID, label)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return ErrLabelExists
		}
		return fmt.Errorf("%w: create_elabel: %s", ErrUnavailable, err)
	}

	return nil
}

// CreateVertex inserts a vertex through an AGE cypher CREATE. The cypher
// body cannot be parameterized, so the label and property names are held
// to identifier syntax and property values are JSON-encoded inside a
// randomly tagged dollar quote that the values cannot terminate.
func (e *AGE) CreateVertex(ctx context.Context, storageGraphID, label string, properties map[string]any) error {
	query, err := buildCreateVertexQuery(storageGraphID, label, properties)
	if err != nil {
		return err
	}

	if _, err := e.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("%w: cypher create: %s", ErrUnavailable, err)
	}

	return nil
}

// buildCreateVertexQuery renders the full SQL statement for a vertex
// CREATE. Labels and property names must match the identifier patterns;
// the cypher body is wrapped in a dollar quote whose tag is chosen to
// not occur anywhere in the body.
func buildCreateVertexQuery(storageGraphID, label string, properties map[string]any) (string, error) {
	if !labelPattern.MatchString(label) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}

	props, err := renderProperties(properties)
	if err != nil {
		return "", fmt.Errorf("failed to render vertex properties: %w", err)
	}

	body := fmt.Sprintf("CREATE (n:%s %s)", label, props)
	tag := quoteTag(body)

	return fmt.Sprintf(
		`SELECT * FROM ag_catalog.cypher(%s, %s%s%s) AS (v ag_catalog.agtype)`,
		quoteLiteral(storageGraphID), tag, body, tag,
	), nil
}

// quoteTag picks a dollar-quote delimiter absent from the body, so no
// property value can close the quoted region early.
func quoteTag(body string) string {
	for {
		buf := make([]byte, 4)
		_, _ = rand.Read(buf)
		tag := "$q" + hex.EncodeToString(buf) + "$"
		if !strings.Contains(body, tag) {
			return tag
		}
	}
}

// renderProperties renders a property map as a cypher map literal.
// Property names must be identifiers; values are JSON-encoded, which
// agtype accepts for scalars.
func renderProperties(properties map[string]any) (string, error) {
	if len(properties) == 0 {
		return "{}", nil
	}

	var b strings.Builder
	b.WriteString("{")

	first := true
	for name, value := range properties {
		if !propertyNamePattern.MatchString(name) {
			return "", fmt.Errorf("%w: %q", ErrInvalidPropertyName, name)
		}

		encoded, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("property %q: %w", name, err)
		}

		if !first {
			b.WriteString(", ")
		}
		first = false

		b.WriteString(name)
		b.WriteString(": ")
		b.Write(encoded)
	}

	b.WriteString("}")
	return b.String(), nil
}

// quoteLiteral quotes a string as a SQL literal. Storage graph ids are
// generated internally but quoting keeps the query well formed anyway.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
