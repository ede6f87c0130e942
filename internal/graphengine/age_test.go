package graphengine

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStorageGraphID(t *testing.T) {
	pattern := regexp.MustCompile(`^g[0-9a-f]{16}$`)

	seen := make(map[string]struct{})
	for range 100 {
		id := newStorageGraphID()
		require.Regexp(t, pattern, id)

		_, dup := seen[id]
		require.False(t, dup, "storage id %s generated twice", id)
		seen[id] = struct{}{}
	}
}

func TestRenderProperties(t *testing.T) {
	t.Run("empty map", func(t *testing.T) {
		props, err := renderProperties(nil)
		require.NoError(t, err)
		require.Equal(t, "{}", props)
	})

	t.Run("values are JSON encoded", func(t *testing.T) {
		props, err := renderProperties(map[string]any{"name": `brea"ch`})
		require.NoError(t, err)
		require.Equal(t, `{name: "brea\"ch"}`, props)
	})

	t.Run("numbers and booleans", func(t *testing.T) {
		props, err := renderProperties(map[string]any{"likelihood": 30})
		require.NoError(t, err)
		require.Equal(t, "{likelihood: 30}", props)

		props, err = renderProperties(map[string]any{"accepted": true})
		require.NoError(t, err)
		require.Equal(t, "{accepted: true}", props)
	})

	t.Run("unencodable value fails", func(t *testing.T) {
		_, err := renderProperties(map[string]any{"ch": make(chan int)})
		require.Error(t, err)
	})

	t.Run("non-identifier property names are rejected", func(t *testing.T) {
		for _, name := range []string{"bad name", "note;--", "1note", "", `no"te`} {
			_, err := renderProperties(map[string]any{name: "v"})
			require.ErrorIs(t, err, ErrInvalidPropertyName, "name %q", name)
		}
	})
}

func TestBuildCreateVertexQuery(t *testing.T) {
	tagPattern := regexp.MustCompile(`\$q[0-9a-f]{8}\$`)

	t.Run("body is dollar quoted with a random tag", func(t *testing.T) {
		query, err := buildCreateVertexQuery("g01", "Risk", map[string]any{"name": "breach"})
		require.NoError(t, err)

		tags := tagPattern.FindAllString(query, -1)
		require.Len(t, tags, 2)
		require.Equal(t, tags[0], tags[1])
		require.Contains(t, query, `CREATE (n:Risk {name: "breach"})`)
		require.Contains(t, query, "'g01'")
	})

	t.Run("dollar signs in values cannot close the quoted body", func(t *testing.T) {
		query, err := buildCreateVertexQuery("g01", "Risk", map[string]any{
			"note": `x $) AS (v ag_catalog.agtype); DROP TABLE graphs; --`,
		})
		require.NoError(t, err)

		// The whole statement must hold exactly one dollar-quoted
		// region: the opening tag, then the body with the hostile value
		// inside it, then the closing tag, then nothing executable.
		tags := tagPattern.FindAllStringIndex(query, -1)
		require.Len(t, tags, 2)
		opening, closing := tags[0], tags[1]
		body := query[opening[1]:closing[0]]
		require.Contains(t, body, "DROP TABLE graphs")
		require.Equal(t, ") AS (v ag_catalog.agtype)", query[closing[1]:])
	})

	t.Run("labels are held to identifier syntax", func(t *testing.T) {
		for _, label := range []string{"Data Breach", "1Risk", "Risk;--", "", "_Risk"} {
			_, err := buildCreateVertexQuery("g01", label, nil)
			require.ErrorIs(t, err, ErrInvalidLabel, "label %q", label)
		}
	})
}

func TestQuoteLiteral(t *testing.T) {
	require.Equal(t, "'g01'", quoteLiteral("g01"))
	require.Equal(t, "'it''s'", quoteLiteral("it's"))
}
