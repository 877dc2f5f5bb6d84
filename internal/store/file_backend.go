package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File names of the legacy state layout, kept so existing state
// directories load unchanged.
const (
	RelationshipsFile = "relationships_by_id.json"
	IdentitiesFile    = "ids_to_names.json"
	ForeignersFile    = "foreigners.json"
)

// FileBackend keeps each store in its own JSON file.
type FileBackend struct {
	RelationshipsPath string
	IdentitiesPath    string
	ForeignersPath    string
}

func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{
		RelationshipsPath: filepath.Join(dir, RelationshipsFile),
		IdentitiesPath:    filepath.Join(dir, IdentitiesFile),
		ForeignersPath:    filepath.Join(dir, ForeignersFile),
	}
}

func (b *FileBackend) String() string {
	return "json:" + filepath.Dir(b.RelationshipsPath)
}

func (b *FileBackend) Load(_ context.Context) (*State, error) {
	state := NewState()

	if err := loadJSON(b.RelationshipsPath, state.Relationships); err != nil {
		return nil, err
	}
	if err := loadJSON(b.IdentitiesPath, state.Identities); err != nil {
		return nil, err
	}
	if err := loadJSON(b.ForeignersPath, state.Foreigners); err != nil {
		return nil, err
	}
	return state, nil
}

// Save marshals every store before touching disk, then replaces the files
// one by one. Relationships go last: if the process dies in between, the
// older relationship file only causes some accounts to be classified again.
func (b *FileBackend) Save(_ context.Context, state *State) error {
	foreigners, err := marshalIndent(state.Foreigners)
	if err != nil {
		return fmt.Errorf("marshal foreigners: %w", err)
	}
	identities, err := marshalIndent(state.Identities)
	if err != nil {
		return fmt.Errorf("marshal identities: %w", err)
	}
	relationships, err := marshalIndent(state.Relationships)
	if err != nil {
		return fmt.Errorf("marshal relationships: %w", err)
	}

	if err := writeFileAtomic(b.ForeignersPath, foreigners); err != nil {
		return err
	}
	if err := writeFileAtomic(b.IdentitiesPath, identities); err != nil {
		return err
	}
	return writeFileAtomic(b.RelationshipsPath, relationships)
}

// loadJSON leaves v empty when path does not exist yet.
func loadJSON(path string, v json.Unmarshaler) error {
	data, err := os.ReadFile(path) //nolint:gosec // state paths come from configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptState, path, err)
	}
	return nil
}
