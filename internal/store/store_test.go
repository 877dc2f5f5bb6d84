package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnomegl/iceslurp/internal/models"
)

func sampleState() *State {
	s := NewState()
	s.Relationships.Append("10", "20", "30")
	s.Relationships.Add("20")
	s.Relationships.Add("30")
	s.Relationships.Append("5", "10")
	s.Identities.Set("10", "gunna")
	s.Identities.Set("20", "siggi")
	s.Identities.Set("30", "bjork")
	s.Identities.Set("5", "jon")
	s.Foreigners.Insert("99")
	s.Foreigners.Insert("7")
	return s
}

func TestRelationships(t *testing.T) {
	r := NewRelationships()

	assert.True(t, r.Add("1"))
	assert.False(t, r.Add("1"))
	assert.True(t, r.Has("1"))
	assert.Empty(t, r.Followers("1"))

	r.Append("1", "2", "3")
	r.Append("1", "2")
	assert.Equal(t, []models.AccountID{"2", "3", "2"}, r.Followers("1"))

	r.Add("4")
	r.Append("5")
	assert.Equal(t, []models.AccountID{"1", "4", "5"}, r.IDs())
	assert.Equal(t, []models.AccountID{"4", "5"}, r.Unexpanded())
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 3, r.EdgeCount())
}

func TestUnexpandedEmptyWhenEveryListFilled(t *testing.T) {
	r := NewRelationships()
	r.Append("1", "2")
	r.Append("2", "1")
	assert.Empty(t, r.Unexpanded())
}

func TestForeignersWriteOnce(t *testing.T) {
	f := NewForeigners()
	assert.True(t, f.Insert("3"))
	assert.False(t, f.Insert("3"))
	assert.True(t, f.Contains("3"))
	assert.False(t, f.Contains("4"))
	assert.Equal(t, 1, f.Len())
}

func TestIdentitiesLatestHandleWins(t *testing.T) {
	m := NewIdentities()
	m.Set("1", "alice")
	m.Set("2", "bob")
	m.Set("1", "alice2")

	h, ok := m.Handle("1")
	assert.True(t, ok)
	assert.Equal(t, "alice2", h)
	assert.Equal(t, []models.AccountID{"1", "2"}, m.IDs())

	_, ok = m.Handle("3")
	assert.False(t, ok)
}

func TestStateKnownAndConflicts(t *testing.T) {
	s := sampleState()
	assert.True(t, s.Known("10"))
	assert.True(t, s.Known("99"))
	assert.False(t, s.Known("1000"))
	assert.Empty(t, s.Conflicts())

	s.Foreigners.Insert("10")
	assert.Equal(t, []models.AccountID{"10"}, s.Conflicts())
}

func TestRelationshipsJSONPreservesOrder(t *testing.T) {
	data := []byte(`{"9": [], "1": ["2", 3], "2": []}`)

	r := NewRelationships()
	require.NoError(t, json.Unmarshal(data, r))
	assert.Equal(t, []models.AccountID{"9", "1", "2"}, r.IDs())
	assert.Equal(t, []models.AccountID{"2", "3"}, r.Followers("1"))

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"9": [], "1": ["2", "3"], "2": []}`, string(out))
	assert.Equal(t, `{"9":[],"1":["2","3"],"2":[]}`, string(out))
}

func TestForeignersJSONAcceptsNumbers(t *testing.T) {
	f := NewForeigners()
	require.NoError(t, json.Unmarshal([]byte(`{"foreigners": [3, "4"]}`), f))
	assert.Equal(t, []models.AccountID{"3", "4"}, f.IDs())

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, `{"foreigners":["3","4"]}`, string(out))
}

func TestFileBackendBootstrapsMissingFiles(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "state"))

	s, err := b.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Relationships.Len())
	assert.Equal(t, 0, s.Foreigners.Len())
	assert.Equal(t, 0, s.Identities.Len())
}

func TestFileBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := NewFileBackend(dir)

	require.NoError(t, b.Save(ctx, sampleState()))
	first := readFiles(t, b)

	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Save(ctx, loaded))
	assert.Equal(t, first, readFiles(t, b))

	assert.Equal(t, []models.AccountID{"10", "20", "30", "5"}, loaded.Relationships.IDs())
	assert.Equal(t, []models.AccountID{"20", "30"}, loaded.Relationships.Followers("10"))
	assert.Equal(t, []models.AccountID{"99", "7"}, loaded.Foreigners.IDs())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "temp files must not be left behind")
}

func TestFileBackendWritesOriginalLayout(t *testing.T) {
	ctx := context.Background()
	b := NewFileBackend(t.TempDir())

	s := NewState()
	s.Relationships.Append("1", "2")
	s.Relationships.Add("2")
	s.Identities.Set("1", "alice")
	s.Foreigners.Insert("3")
	require.NoError(t, b.Save(ctx, s))

	rel, err := os.ReadFile(b.RelationshipsPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1": ["2"], "2": []}`, string(rel))
	assert.Contains(t, string(rel), "\n    \"1\": [\n        \"2\"\n    ]")

	ids, err := os.ReadFile(b.IdentitiesPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1": "alice"}`, string(ids))

	foreign, err := os.ReadFile(b.ForeignersPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"foreigners": ["3"]}`, string(foreign))
}

func TestFileBackendCorruptState(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{"relationships not an object", RelationshipsFile, `["1"]`},
		{"relationships truncated", RelationshipsFile, `{"1": [`},
		{"relationships wrong value", RelationshipsFile, `{"1": "2"}`},
		{"relationships float id", RelationshipsFile, `{"1": [2.5]}`},
		{"relationships empty file", RelationshipsFile, ``},
		{"identities wrong value", IdentitiesFile, `{"1": 5}`},
		{"foreigners missing field", ForeignersFile, `{"others": []}`},
		{"foreigners not array", ForeignersFile, `{"foreigners": "3"}`},
		{"trailing garbage", IdentitiesFile, `{} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.data), 0644))

			_, err := NewFileBackend(dir).Load(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCorruptState)
		})
	}
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b, err := OpenSQLite(dir)
	require.NoError(t, err)
	defer b.Close()

	empty, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Relationships.Len())

	want := sampleState()
	require.NoError(t, b.Save(ctx, want))

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assertSameState(t, want, got)

	// A second save replaces rather than accumulates.
	got.Relationships.Append("20", "30")
	require.NoError(t, b.Save(ctx, got))
	again, err := b.Load(ctx)
	require.NoError(t, err)
	assertSameState(t, got, again)
	assert.Equal(t, []models.AccountID{"30"}, again.Relationships.Followers("20"))
}

func TestSQLiteAndFileBackendsAgree(t *testing.T) {
	ctx := context.Background()
	sqlite, err := OpenSQLite(t.TempDir())
	require.NoError(t, err)
	defer sqlite.Close()

	require.NoError(t, sqlite.Save(ctx, sampleState()))
	fromDB, err := sqlite.Load(ctx)
	require.NoError(t, err)

	files := NewFileBackend(t.TempDir())
	require.NoError(t, files.Save(ctx, fromDB))
	direct := NewFileBackend(t.TempDir())
	require.NoError(t, direct.Save(ctx, sampleState()))

	assert.Equal(t, readFiles(t, direct), readFiles(t, files))
}

func assertSameState(t *testing.T, want, got *State) {
	t.Helper()
	wantJSON, err := json.Marshal(want.Relationships)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(got.Relationships)
	require.NoError(t, err)
	assert.Equal(t, string(wantJSON), string(gotJSON))
	assert.Equal(t, want.Foreigners.IDs(), got.Foreigners.IDs())
	assert.Equal(t, want.Identities.IDs(), got.Identities.IDs())
	for _, id := range want.Identities.IDs() {
		w, _ := want.Identities.Handle(id)
		g, _ := got.Identities.Handle(id)
		assert.Equal(t, w, g)
	}
}

func readFiles(t *testing.T, b *FileBackend) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, p := range []string{b.RelationshipsPath, b.IdentitiesPath, b.ForeignersPath} {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		out[filepath.Base(p)] = string(data)
	}
	return out
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	b, closeFn, err := Open("json", dir)
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, b)
	assert.NoError(t, closeFn())

	b, closeFn, err = Open("sqlite", dir)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteBackend{}, b)
	assert.NoError(t, closeFn())
	assert.FileExists(t, filepath.Join(dir, SQLiteFile))

	_, _, err = Open("badger", dir)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestRelationshipsDuplicateKeysLastWins(t *testing.T) {
	r := NewRelationships()
	require.NoError(t, json.Unmarshal([]byte(`{"1": ["2"], "4": [], "1": ["3"]}`), r))

	assert.Equal(t, []models.AccountID{"1", "4"}, r.IDs())
	assert.Equal(t, []models.AccountID{"3"}, r.Followers("1"))
	assert.Equal(t, 1, r.EdgeCount())
}
