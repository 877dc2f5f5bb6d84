package graph

import (
	"context"
	"os"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportParams(t *testing.T) {
	g := Build(sampleState(), Filters{MinFollowers: 1})

	assert.Equal(t, []map[string]any{
		{"id": "1", "handle": "anna", "followers": int64(3)},
		{"id": "2", "handle": "bjorn", "followers": int64(2)},
	}, accountParams(g))
	assert.Equal(t, []map[string]any{
		{"source": "2", "target": "1", "weight": int64(1)},
		{"source": "1", "target": "2", "weight": int64(2)},
	}, followParams(g))
}

// Requires a running Neo4j; set NEO4J_URI, NEO4J_USER and NEO4J_PASSWORD.
func TestNeo4jExport(t *testing.T) {
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set")
	}
	ctx := context.Background()
	driver, err := Connect(ctx, uri, os.Getenv("NEO4J_USER"), os.Getenv("NEO4J_PASSWORD"))
	require.NoError(t, err)
	defer driver.Close(ctx)

	cleanup := func() {
		session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
		defer session.Close(ctx)
		_, _ = session.Run(ctx, "MATCH (a:Account) WHERE a.id IN ['1', '2'] DETACH DELETE a", nil)
	}
	cleanup()
	defer cleanup()

	exporter := NewNeo4jExporter(driver, "")
	g := Build(sampleState(), Filters{MinFollowers: 1})
	require.NoError(t, exporter.Export(ctx, g))
	require.NoError(t, exporter.Export(ctx, g))

	result, err := neo4j.ExecuteQuery(ctx, driver,
		"MATCH (:Account {id: '1'})-[r:FOLLOWS]->(:Account {id: '2'}) RETURN count(r) AS n, max(r.weight) AS w",
		nil, neo4j.EagerResultTransformer)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	n, _ := result.Records[0].Get("n")
	w, _ := result.Records[0].Get("w")
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(2), w)
}
