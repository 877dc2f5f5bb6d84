package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnomegl/iceslurp/internal/graph"
	"github.com/gnomegl/iceslurp/internal/models"
	"github.com/gnomegl/iceslurp/internal/store"
)

func sampleState() *store.State {
	s := store.NewState()
	s.Relationships.Add("1")
	s.Relationships.Append("1", "2", "3")
	s.Relationships.Add("2")
	s.Relationships.Append("2", "1")
	s.Relationships.Add("3")
	s.Identities.Set("1", "anna")
	s.Identities.Set("2", "bjorn")
	s.Foreigners.Insert("9")
	return s
}

func TestWriteMarkdown(t *testing.T) {
	state := sampleState()
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, state, graph.Build(state, graph.Filters{MinFollowers: 0})))

	out := buf.String()
	assert.Contains(t, out, "# Iceland Social Graph")
	assert.Contains(t, out, "Local accounts")
	assert.Contains(t, out, "```mermaid")
	assert.Contains(t, out, "## Most Followed")
	assert.Contains(t, out, "anna")
	assert.Contains(t, out, "## Drawn Graph")
	assert.NotContains(t, out, "both local and foreign")

	assert.Less(t, bytes.Index(buf.Bytes(), []byte("anna")), bytes.Index(buf.Bytes(), []byte("bjorn")),
		"accounts are ranked by follower count")
}

func TestWriteMarkdownEmptyState(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, store.NewState(), nil))

	out := buf.String()
	assert.Contains(t, out, "No follower lists recorded yet.")
	assert.NotContains(t, out, "mermaid")
	assert.NotContains(t, out, "## Drawn Graph")
}

func TestWriteMarkdownReportsConflicts(t *testing.T) {
	state := sampleState()
	state.Foreigners.Insert(models.AccountID("3"))

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, state, nil))
	assert.Contains(t, buf.String(), "1 account(s) are recorded as both local and foreign.")
}
