package graph

import (
	"bytes"
	"context"
	"encoding/xml"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnomegl/iceslurp/internal/models"
	"github.com/gnomegl/iceslurp/internal/store"
)

func newState(handles map[string]string, followers map[string][]string, order ...string) *store.State {
	s := store.NewState()
	for _, id := range order {
		s.Relationships.Add(models.AccountID(id))
		for _, f := range followers[id] {
			s.Relationships.Append(models.AccountID(id), models.AccountID(f))
		}
		if h, ok := handles[id]; ok {
			s.Identities.Set(models.AccountID(id), h)
		}
	}
	return s
}

// 1 and 2 follow each other (2 lists 1 twice), 3 is under the threshold and
// 4 has no known handle.
func sampleState() *store.State {
	return newState(
		map[string]string{"1": "anna", "2": "bjorn", "3": "gudrun"},
		map[string][]string{
			"1": {"2", "3", "4"},
			"2": {"1", "1"},
			"3": {"1"},
			"4": {"1", "2", "3"},
		},
		"1", "2", "3", "4",
	)
}

func TestBuild(t *testing.T) {
	g := Build(sampleState(), Filters{MinFollowers: 1})

	require.Equal(t, 2, g.NodeCount())
	assert.Equal(t, models.AccountID("1"), g.Nodes[0].ID)
	assert.Equal(t, "anna", g.Nodes[0].Handle)
	assert.Equal(t, 3, g.Nodes[0].Followers)
	assert.Equal(t, models.AccountID("2"), g.Nodes[1].ID)
	assert.False(t, g.HasNode("3"))
	assert.False(t, g.HasNode("4"))

	require.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, Edge{Source: "2", Target: "1", Weight: 1}, *g.Edges[0])
	assert.Equal(t, Edge{Source: "1", Target: "2", Weight: 2}, *g.Edges[1])
}

func TestBuildThresholdIsExclusive(t *testing.T) {
	many := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = "f"
		}
		return out
	}
	s := newState(
		map[string]string{"10": "ten", "11": "eleven"},
		map[string][]string{"10": many(10), "11": many(11)},
		"10", "11",
	)

	g := Build(s, DefaultFilters())
	require.Equal(t, 1, g.NodeCount())
	assert.Equal(t, models.AccountID("11"), g.Nodes[0].ID)
	assert.Zero(t, g.EdgeCount())
}

func TestBuildMaxNodesKeepsMostFollowed(t *testing.T) {
	s := newState(
		map[string]string{"1": "a", "2": "b", "3": "c"},
		map[string][]string{
			"1": {"2"},
			"2": {"1", "3", "x"},
			"3": {"1", "2"},
		},
		"1", "2", "3",
	)

	g := Build(s, Filters{MinFollowers: 0, MaxNodes: 2})
	require.Equal(t, 2, g.NodeCount())
	assert.Equal(t, models.AccountID("2"), g.Nodes[0].ID)
	assert.Equal(t, models.AccountID("3"), g.Nodes[1].ID)
	assert.Equal(t, Edge{Source: "3", Target: "2", Weight: 1}, *g.Edges[0])
	assert.Equal(t, Edge{Source: "2", Target: "3", Weight: 1}, *g.Edges[1])
}

func TestBuildEmptyState(t *testing.T) {
	g := Build(store.NewState(), DefaultFilters())
	assert.Zero(t, g.NodeCount())
	assert.Zero(t, g.EdgeCount())
}

func TestWriteDOT(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, Build(sampleState(), Filters{MinFollowers: 1})))

	want := "digraph iceland {\n" +
		"\t\"1\" [label=\"anna\"];\n" +
		"\t\"2\" [label=\"bjorn\"];\n" +
		"\t\"2\" -> \"1\";\n" +
		"\t\"1\" -> \"2\" [weight=2];\n" +
		"}\n"
	assert.Equal(t, want, buf.String())
}

func TestDotQuote(t *testing.T) {
	assert.Equal(t, `"plain"`, dotQuote("plain"))
	assert.Equal(t, `"say \"hi\" \\o/"`, dotQuote(`say "hi" \o/`))
	assert.Equal(t, `"Þóra"`, dotQuote("Þóra"))
}

func TestWriteGEXF(t *testing.T) {
	var buf bytes.Buffer
	modified := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)
	require.NoError(t, WriteGEXF(&buf, Build(sampleState(), Filters{MinFollowers: 1}), modified))

	out := buf.String()
	assert.Contains(t, out, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, out, `xmlns="http://gexf.net/1.3"`)
	assert.Contains(t, out, `defaultedgetype="directed"`)
	assert.Contains(t, out, `lastmodifieddate="2024-05-17"`)

	var doc gexfFile
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Graph.Nodes.Nodes, 2)
	assert.Equal(t, "1", doc.Graph.Nodes.Nodes[0].ID)
	assert.Equal(t, "anna", doc.Graph.Nodes.Nodes[0].Label)
	assert.Equal(t, "3", doc.Graph.Nodes.Nodes[0].AttValues.AttValues[0].Value)
	require.Len(t, doc.Graph.Edges.Edges, 2)
	assert.Equal(t, gexfEdge{ID: "e1", Source: "1", Target: "2", Weight: "2"}, doc.Graph.Edges.Edges[1])
}

func TestRenderWithoutDot(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	err := Render(context.Background(), NewGraph(), filepath.Join(t.TempDir(), "g.svg"))
	assert.ErrorIs(t, err, ErrDotNotFound)
}

func TestRender(t *testing.T) {
	if _, err := exec.LookPath("dot"); err != nil {
		t.Skip("graphviz not installed")
	}
	path := filepath.Join(t.TempDir(), "pics", "g1.svg")
	require.NoError(t, Render(context.Background(), Build(sampleState(), Filters{MinFollowers: 1}), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
	assert.Contains(t, string(data), "anna")
}
