package store

import (
	"context"
	"errors"

	"github.com/gnomegl/iceslurp/internal/models"
)

// ErrCorruptState is returned by Load when persisted data exists but cannot
// be parsed into the expected shape.
var ErrCorruptState = errors.New("corrupt crawl state")

// State is the in-memory crawl snapshot owned by the crawl driver.
type State struct {
	Relationships *Relationships
	Foreigners    *Foreigners
	Identities    *Identities
}

func NewState() *State {
	return &State{
		Relationships: NewRelationships(),
		Foreigners:    NewForeigners(),
		Identities:    NewIdentities(),
	}
}

// Known reports whether id has already been classified either way.
func (s *State) Known(id models.AccountID) bool {
	return s.Relationships.Has(id) || s.Foreigners.Contains(id)
}

// Conflicts returns ids recorded as both local and foreign. A healthy state
// has none.
func (s *State) Conflicts() []models.AccountID {
	var out []models.AccountID
	for _, id := range s.Relationships.IDs() {
		if s.Foreigners.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

// Backend persists whole snapshots. Save never writes a partial state.
type Backend interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
	String() string
}
