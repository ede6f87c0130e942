package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/models"
	"github.com/graphgate/graphgate/internal/store"
	"github.com/stretchr/testify/require"
)

func newNodeType(appGraphID, name, normalized string) *models.NodeType {
	return &models.NodeType{
		TypeID:         uuid.New(),
		AppGraphID:     appGraphID,
		Name:           name,
		NormalizedName: normalized,
		CreatedBy:      uuid.New(),
		CreatedAt:      time.Now(),
	}
}

func TestSchemaStore_CreateNodeType(t *testing.T) {
	ctx := context.Background()

	t.Run("same normalized name in one graph collides", func(t *testing.T) {
		st := NewSchemaStore()

		require.NoError(t, st.CreateNodeType(ctx, newNodeType("risk_graph", "Risk", "risk")))

		err := st.CreateNodeType(ctx, newNodeType("risk_graph", "RISK", "risk"))
		require.ErrorIs(t, err, store.ErrNodeTypeAlreadyExists)
	})

	t.Run("same normalized name in different graphs is fine", func(t *testing.T) {
		st := NewSchemaStore()

		require.NoError(t, st.CreateNodeType(ctx, newNodeType("risk_graph", "Risk", "risk")))
		require.NoError(t, st.CreateNodeType(ctx, newNodeType("other_graph", "Risk", "risk")))
	})
}

func TestSchemaStore_Attributes(t *testing.T) {
	ctx := context.Background()

	t.Run("attribute requires existing node type", func(t *testing.T) {
		st := NewSchemaStore()

		err := st.CreateAttribute(ctx, &models.NodeTypeAttribute{
			AttributeID:    uuid.New(),
			TypeID:         uuid.New(),
			Name:           "likelihood",
			NormalizedName: "likelihood",
			DataType:       "integer",
		})
		require.ErrorIs(t, err, store.ErrNodeTypeNotFound)
	})

	t.Run("duplicate normalized attribute name collides", func(t *testing.T) {
		st := NewSchemaStore()
		nt := newNodeType("risk_graph", "Risk", "risk")
		require.NoError(t, st.CreateNodeType(ctx, nt))

		attr := &models.NodeTypeAttribute{
			AttributeID:    uuid.New(),
			TypeID:         nt.TypeID,
			Name:           "Likelihood",
			NormalizedName: "likelihood",
			DataType:       "integer",
		}
		require.NoError(t, st.CreateAttribute(ctx, attr))

		dup := *attr
		dup.AttributeID = uuid.New()
		dup.Name = "LIKELIHOOD"
		err := st.CreateAttribute(ctx, &dup)
		require.ErrorIs(t, err, store.ErrAttributeAlreadyExists)
	})
}

func newEdgeType(appGraphID, name, normalized string) *models.EdgeType {
	return &models.EdgeType{
		EdgeTypeID:     uuid.New(),
		AppGraphID:     appGraphID,
		Name:           name,
		NormalizedName: normalized,
		CreatedBy:      uuid.New(),
		CreatedAt:      time.Now(),
	}
}

func TestSchemaStore_CreateEdgeType(t *testing.T) {
	ctx := context.Background()

	t.Run("same normalized name in one graph collides", func(t *testing.T) {
		st := NewSchemaStore()

		require.NoError(t, st.CreateEdgeType(ctx, newEdgeType("risk_graph", "depends on", "DEPENDS_ON")))

		err := st.CreateEdgeType(ctx, newEdgeType("risk_graph", "Depends On", "DEPENDS_ON"))
		require.ErrorIs(t, err, store.ErrEdgeTypeAlreadyExists)
	})

	t.Run("same normalized name in different graphs is fine", func(t *testing.T) {
		st := NewSchemaStore()

		require.NoError(t, st.CreateEdgeType(ctx, newEdgeType("risk_graph", "depends on", "DEPENDS_ON")))
		require.NoError(t, st.CreateEdgeType(ctx, newEdgeType("other_graph", "depends on", "DEPENDS_ON")))
	})

	t.Run("list is scoped to the graph", func(t *testing.T) {
		st := NewSchemaStore()

		require.NoError(t, st.CreateEdgeType(ctx, newEdgeType("risk_graph", "depends on", "DEPENDS_ON")))
		require.NoError(t, st.CreateEdgeType(ctx, newEdgeType("other_graph", "mitigates", "MITIGATES")))

		edgeTypes, err := st.ListEdgeTypes(ctx, "risk_graph")
		require.NoError(t, err)
		require.Len(t, edgeTypes, 1)
		require.Equal(t, "DEPENDS_ON", edgeTypes[0].NormalizedName)
	})
}

func TestSchemaStore_DeleteByGraph(t *testing.T) {
	ctx := context.Background()
	st := NewSchemaStore()

	nt := newNodeType("risk_graph", "Risk", "risk")
	require.NoError(t, st.CreateNodeType(ctx, nt))
	require.NoError(t, st.CreateAttribute(ctx, &models.NodeTypeAttribute{
		AttributeID:    uuid.New(),
		TypeID:         nt.TypeID,
		Name:           "likelihood",
		NormalizedName: "likelihood",
		DataType:       "integer",
	}))

	require.NoError(t, st.CreateEdgeType(ctx, newEdgeType("risk_graph", "depends on", "DEPENDS_ON")))

	keep := newNodeType("other_graph", "Asset", "asset")
	require.NoError(t, st.CreateNodeType(ctx, keep))

	require.NoError(t, st.DeleteByGraph(ctx, "risk_graph"))

	_, err := st.GetNodeType(ctx, nt.TypeID)
	require.ErrorIs(t, err, store.ErrNodeTypeNotFound)

	edgeTypes, err := st.ListEdgeTypes(ctx, "risk_graph")
	require.NoError(t, err)
	require.Empty(t, edgeTypes)

	// Names and attribute slots are reusable after the cascade
	require.NoError(t, st.CreateNodeType(ctx, newNodeType("risk_graph", "Risk", "risk")))
	require.NoError(t, st.CreateEdgeType(ctx, newEdgeType("risk_graph", "depends on", "DEPENDS_ON")))

	_, err = st.GetNodeType(ctx, keep.TypeID)
	require.NoError(t, err)
}
