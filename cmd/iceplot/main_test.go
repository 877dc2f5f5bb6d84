package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcli "github.com/gnomegl/iceslurp/internal/cli"
	"github.com/gnomegl/iceslurp/internal/store"
)

func seedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	s := store.NewState()
	s.Relationships.Append("1", "2")
	s.Relationships.Append("2", "1")
	s.Identities.Set("1", "anna")
	s.Identities.Set("2", "bjorn")
	require.NoError(t, store.NewFileBackend(dir).Save(context.Background(), s))
	return dir
}

func runPlot(t *testing.T, args ...string) {
	t.Helper()
	app := appcli.NewPlotApp(drawCommand(), gexfCommand(), reportCommand(), neo4jCommand())
	require.NoError(t, app.Run(append([]string{"iceplot"}, args...)))
}

func TestDrawWritesDOTSource(t *testing.T) {
	dir := seedDir(t)
	out := filepath.Join(t.TempDir(), "g1.dot")

	runPlot(t, "--data-dir", dir, "draw", "--min-followers", "0", "-o", out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"2" -> "1";`)
	assert.Contains(t, string(data), `"1" -> "2";`)
}

func TestGEXFAndReport(t *testing.T) {
	dir := seedDir(t)
	outDir := t.TempDir()

	runPlot(t, "--data-dir", dir, "gexf", "--min-followers", "0", "-o", filepath.Join(outDir, "g.gexf"))
	runPlot(t, "--data-dir", dir, "report", "-o", filepath.Join(outDir, "report.md"))

	gexf, err := os.ReadFile(filepath.Join(outDir, "g.gexf"))
	require.NoError(t, err)
	assert.Contains(t, string(gexf), `label="bjorn"`)

	md, err := os.ReadFile(filepath.Join(outDir, "report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Iceland Social Graph")
}
