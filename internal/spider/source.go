package spider

import (
	"context"

	"github.com/gnomegl/iceslurp/internal/models"
)

// Source is the remote social network as the crawl engine sees it. Errors
// are expected to wrap one of the models fault sentinels.
type Source interface {
	SearchRecentPosts(ctx context.Context, geoTag string, limit int) ([]models.Post, error)
	LookupAccounts(ctx context.Context, ids []models.AccountID) ([]models.Account, error)
	Followers(ctx context.Context, id models.AccountID) FollowerPages
}

// FollowerPages iterates an account's followers one remote page at a time.
// NextPage returns io.EOF once the listing is exhausted.
type FollowerPages interface {
	NextPage(ctx context.Context) ([]models.Account, error)
}
