package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcli "github.com/gnomegl/iceslurp/internal/cli"
	"github.com/gnomegl/iceslurp/internal/models"
	"github.com/gnomegl/iceslurp/internal/store"
)

// githubStub answers the few endpoints a zero-budget crawl touches and
// records every request path in order.
type githubStub struct {
	mu    sync.Mutex
	paths []string
}

func (g *githubStub) requests() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.paths...)
}

func (g *githubStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	g.paths = append(g.paths, r.URL.Path)
	g.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/user":
		fmt.Fprint(w, `{"id":1,"login":"me"}`)
	case "/search/users":
		fmt.Fprint(w, `{"total_count":2,"items":[{"id":2,"login":"anna"},{"id":3,"login":"bob"}]}`)
	case "/user/2":
		fmt.Fprint(w, `{"id":2,"login":"anna","location":"Reykjavík"}`)
	case "/user/3":
		fmt.Fprint(w, `{"id":3,"login":"bob","location":"Berlin"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	}
}

func crawlArgs(t *testing.T, apiURL, dataDir string, extra ...string) []string {
	t.Helper()
	tmp := t.TempDir()
	configFile := filepath.Join(tmp, "config.yaml")
	tokenFile := filepath.Join(tmp, "tokens")
	require.NoError(t, os.WriteFile(configFile, nil, 0600))
	require.NoError(t, os.WriteFile(tokenFile, []byte("tok\n"), 0600))

	args := []string{"iceslurp",
		"--config", configFile,
		"--data-dir", dataDir,
		"--token-file", tokenFile,
		"--api-url", apiURL,
		"--budget", "0s",
		"--request-interval", "0s",
		"--retry-interval", "0s",
	}
	return append(args, extra...)
}

func TestCrawlPersistsSeeds(t *testing.T) {
	stub := &githubStub{}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	dataDir := t.TempDir()
	metricsFile := filepath.Join(t.TempDir(), "iceslurp.prom")

	err := appcli.NewApp(runCrawl).Run(crawlArgs(t, srv.URL, dataDir, "--metrics-file", metricsFile))
	require.NoError(t, err)

	state, err := store.NewFileBackend(dataDir).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.AccountID{"2"}, state.Relationships.IDs())
	handle, ok := state.Identities.Handle("2")
	require.True(t, ok)
	assert.Equal(t, "anna", handle)

	assert.Equal(t, []string{"/user", "/search/users", "/user/2", "/user/3"}, stub.requests(),
		"seed ingest reuses the profiles fetched by the search")

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "iceslurp_seeds_found_total 1")
}

func TestCrawlCorruptStateMakesNoRequests(t *testing.T) {
	stub := &githubStub{}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	dataDir := t.TempDir()
	relationships := filepath.Join(dataDir, store.RelationshipsFile)
	require.NoError(t, os.WriteFile(relationships, []byte("{not json"), 0644))

	err := appcli.NewApp(runCrawl).Run(crawlArgs(t, srv.URL, dataDir))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrCorruptState)
	assert.Empty(t, stub.requests())

	data, err := os.ReadFile(relationships)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}
