package schema

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func setupRiskType(t *testing.T, cfg CatalogConfig) (*Catalog, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	catalog, graphs, engine := newCatalog(t, cfg)
	seedGraph(t, graphs, engine, "risk_graph")

	nt, err := catalog.DefineNodeType(ctx, "risk_graph", "Risk", "", uuid.New())
	require.NoError(t, err)

	_, err = catalog.AddAttribute(ctx, nt.TypeID, "name", DataTypeString, true, "")
	require.NoError(t, err)
	_, err = catalog.AddAttribute(ctx, nt.TypeID, "likelihood", DataTypeInteger, true, "")
	require.NoError(t, err)
	_, err = catalog.AddAttribute(ctx, nt.TypeID, "severity", DataTypeFloat, false, "")
	require.NoError(t, err)
	_, err = catalog.AddAttribute(ctx, nt.TypeID, "accepted", DataTypeBoolean, false, "")
	require.NoError(t, err)
	_, err = catalog.AddAttribute(ctx, nt.TypeID, "reviewed_at", DataTypeTimestamp, false, "")
	require.NoError(t, err)

	return catalog, nt.TypeID
}

func TestValidateVertexPayload(t *testing.T) {
	ctx := context.Background()

	t.Run("valid payload passes", func(t *testing.T) {
		catalog, typeID := setupRiskType(t, CatalogConfig{})

		err := catalog.ValidateVertexPayload(ctx, typeID, map[string]any{
			"name":        "data breach",
			"likelihood":  30,
			"severity":    0.8,
			"accepted":    false,
			"reviewed_at": time.Now(),
		})
		require.NoError(t, err)
	})

	t.Run("missing required attribute is reported", func(t *testing.T) {
		catalog, typeID := setupRiskType(t, CatalogConfig{})

		err := catalog.ValidateVertexPayload(ctx, typeID, map[string]any{
			"name": "data breach",
		})
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, []string{"likelihood"}, verr.MissingRequired)
	})

	t.Run("type mismatch is reported", func(t *testing.T) {
		catalog, typeID := setupRiskType(t, CatalogConfig{})

		err := catalog.ValidateVertexPayload(ctx, typeID, map[string]any{
			"name":       "data breach",
			"likelihood": "thirty",
		})
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, map[string]string{"likelihood": DataTypeInteger}, verr.TypeMismatches)
	})

	t.Run("all violations are collected in one pass", func(t *testing.T) {
		catalog, typeID := setupRiskType(t, CatalogConfig{})

		err := catalog.ValidateVertexPayload(ctx, typeID, map[string]any{
			"likelihood": "thirty",
			"accepted":   "yes",
		})
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, []string{"name"}, verr.MissingRequired)
		require.Len(t, verr.TypeMismatches, 2)
	})

	t.Run("integral JSON number is accepted as integer", func(t *testing.T) {
		catalog, typeID := setupRiskType(t, CatalogConfig{})

		// encoding/json hands numbers over as float64
		err := catalog.ValidateVertexPayload(ctx, typeID, map[string]any{
			"name":       "data breach",
			"likelihood": float64(30),
		})
		require.NoError(t, err)

		err = catalog.ValidateVertexPayload(ctx, typeID, map[string]any{
			"name":       "data breach",
			"likelihood": 30.5,
		})
		require.Error(t, err)
	})

	t.Run("timestamp accepts RFC3339 string", func(t *testing.T) {
		catalog, typeID := setupRiskType(t, CatalogConfig{})

		err := catalog.ValidateVertexPayload(ctx, typeID, map[string]any{
			"name":        "data breach",
			"likelihood":  1,
			"reviewed_at": "2026-08-25T10:00:00Z",
		})
		require.NoError(t, err)

		err = catalog.ValidateVertexPayload(ctx, typeID, map[string]any{
			"name":        "data breach",
			"likelihood":  1,
			"reviewed_at": "yesterday",
		})
		require.Error(t, err)
	})

	t.Run("unknown attributes pass in open mode", func(t *testing.T) {
		catalog, typeID := setupRiskType(t, CatalogConfig{})

		err := catalog.ValidateVertexPayload(ctx, typeID, map[string]any{
			"name":       "data breach",
			"likelihood": 1,
			"notes":      "free form",
		})
		require.NoError(t, err)
	})

	t.Run("unknown attributes are rejected in closed mode", func(t *testing.T) {
		catalog, typeID := setupRiskType(t, CatalogConfig{ClosedSchema: true})

		err := catalog.ValidateVertexPayload(ctx, typeID, map[string]any{
			"name":       "data breach",
			"likelihood": 1,
			"notes":      "free form",
		})
		require.Error(t, err)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, []string{"notes"}, verr.UnknownAttributes)
	})

	t.Run("empty payload against type without attributes passes", func(t *testing.T) {
		ctx := context.Background()
		catalog, graphs, engine := newCatalog(t, CatalogConfig{})
		seedGraph(t, graphs, engine, "risk_graph")

		nt, err := catalog.DefineNodeType(ctx, "risk_graph", "Note", "", uuid.New())
		require.NoError(t, err)

		require.NoError(t, catalog.ValidateVertexPayload(ctx, nt.TypeID, map[string]any{}))
	})
}
