package spider

import (
	"context"
	"fmt"

	"github.com/gnomegl/iceslurp/internal/classify"
	"github.com/gnomegl/iceslurp/internal/models"
)

// DefaultSeedLimit is the size of the single search page used for seeds.
const DefaultSeedLimit = 100

type SeedDiscoverer struct {
	source  Source
	retrier *Retrier
	geoTag  string
	limit   int
}

func NewSeedDiscoverer(source Source, retrier *Retrier, geoTag string, limit int) *SeedDiscoverer {
	if limit <= 0 {
		limit = DefaultSeedLimit
	}
	return &SeedDiscoverer{
		source:  source,
		retrier: retrier,
		geoTag:  geoTag,
		limit:   limit,
	}
}

// Discover runs one search for recent posts tagged with the geo tag and
// returns the authors that look local and are not yet known. Seeds only
// bootstrap the crawl, so there is no pagination here.
func (d *SeedDiscoverer) Discover(ctx context.Context, known func(models.AccountID) bool) ([]models.AccountID, error) {
	var posts []models.Post
	err := d.retrier.Do(ctx, "search", func() error {
		var err error
		posts, err = d.source.SearchRecentPosts(ctx, d.geoTag, d.limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("search for %q: %w", d.geoTag, err)
	}

	seen := make(map[models.AccountID]struct{})
	var seeds []models.AccountID
	for _, post := range posts {
		author := post.Author
		if author.ID == "" || !classify.IsLocal(author.Location) || known(author.ID) {
			continue
		}
		if _, dup := seen[author.ID]; dup {
			continue
		}
		seen[author.ID] = struct{}{}
		seeds = append(seeds, author.ID)
	}
	return seeds, nil
}
