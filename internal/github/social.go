package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	gh "github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gnomegl/iceslurp/internal/models"
	"github.com/gnomegl/iceslurp/internal/spider"
)

// Social serves the crawl from the GitHub REST API. Users stand in for
// accounts, a user's profile location for the account location, and a
// location search for recent geo-tagged posts.
type Social struct {
	pool    *ClientPool
	cfg     Config
	limiter *rate.Limiter
	log     *zap.Logger

	now   func() time.Time
	sleep func(context.Context, time.Duration) error

	// hydrated holds the profiles fetched for the last search, nil for ids
	// that did not resolve, so the seed ingest that follows does not fetch
	// them again. Each entry is served once.
	mu       sync.Mutex
	hydrated map[models.AccountID]*models.Account
}

var _ spider.Source = (*Social)(nil)

func NewSocial(pool *ClientPool, cfg Config, log *zap.Logger) *Social {
	if cfg.PerPage <= 0 || cfg.PerPage > 100 {
		cfg.PerPage = 100
	}
	limit := rate.Inf
	if cfg.RequestInterval > 0 {
		limit = rate.Every(cfg.RequestInterval)
	}
	return &Social{
		pool:    pool,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// call runs one API request on the best client of the pool. Rate limit
// responses block until the window resets and then retry; anything else
// is classified and returned.
func (s *Social) call(ctx context.Context, what string, fn func(*gh.Client) (*gh.Response, error)) error {
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		mc := s.pool.GetClient()
		resp, err := fn(mc.Client)
		mc.observe(resp)
		if err == nil {
			return nil
		}

		if wait, limited := rateLimitWait(err, s.now(), s.cfg.MinRateLimitWait); limited {
			s.log.Warn("rate limited, waiting for reset",
				zap.String("call", what),
				zap.Duration("wait", wait))
			if err := s.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}
		return classifyError(resp, err)
	}
}

func locationQuery(geoTag string) string {
	if strings.ContainsAny(geoTag, " \t") {
		return `location:"` + geoTag + `"`
	}
	return "location:" + geoTag
}

// SearchRecentPosts returns one post per user who most recently joined with
// a profile location matching geoTag. Search hits carry no location, so the
// authors are hydrated through LookupAccounts.
func (s *Social) SearchRecentPosts(ctx context.Context, geoTag string, limit int) ([]models.Post, error) {
	opts := &gh.SearchOptions{
		Sort:        "joined",
		Order:       "desc",
		ListOptions: gh.ListOptions{PerPage: min(max(limit, 1), 100)},
	}

	var result *gh.UsersSearchResult
	err := s.call(ctx, "search", func(c *gh.Client) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		result, resp, err = c.Search.Users(ctx, locationQuery(geoTag), opts)
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	ids := make([]models.AccountID, 0, len(result.Users))
	for _, u := range result.Users {
		if len(ids) == limit && limit > 0 {
			break
		}
		ids = append(ids, models.AccountIDFromInt(u.GetID()))
	}

	s.mu.Lock()
	s.hydrated = nil
	s.mu.Unlock()
	accounts, err := s.LookupAccounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	hydrated := make(map[models.AccountID]*models.Account, len(ids))
	for _, id := range ids {
		hydrated[id] = nil
	}
	posts := make([]models.Post, 0, len(accounts))
	for _, acct := range accounts {
		hydrated[acct.ID] = &acct
		posts = append(posts, models.Post{Author: acct})
	}
	s.mu.Lock()
	s.hydrated = hydrated
	s.mu.Unlock()
	return posts, nil
}

// takeHydrated returns the search profile for id, if the last search
// fetched one, and forgets it.
func (s *Social) takeHydrated(id models.AccountID) (acct *models.Account, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok = s.hydrated[id]
	if ok {
		delete(s.hydrated, id)
	}
	return acct, ok
}

// LookupAccounts fetches each id's profile. Ids that do not resolve to a
// user are left out of the result.
func (s *Social) LookupAccounts(ctx context.Context, ids []models.AccountID) ([]models.Account, error) {
	accounts := make([]models.Account, 0, len(ids))
	for _, id := range ids {
		if acct, ok := s.takeHydrated(id); ok {
			if acct != nil {
				accounts = append(accounts, *acct)
			}
			continue
		}
		user, err := s.userByID(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				s.log.Debug("account not found", zap.String("id", id.String()))
				continue
			}
			return nil, err
		}
		accounts = append(accounts, toAccount(user))
	}
	return accounts, nil
}

func (s *Social) userByID(ctx context.Context, id models.AccountID) (*gh.User, error) {
	n, err := id.Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a user id", models.ErrNotFound, id)
	}
	var user *gh.User
	err = s.call(ctx, "lookup", func(c *gh.Client) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		user, resp, err = c.Users.GetByID(ctx, n)
		return resp, err
	})
	return user, err
}

func (s *Social) Followers(_ context.Context, id models.AccountID) spider.FollowerPages {
	return &followerPages{social: s, id: id, page: 1}
}

type followerPages struct {
	social *Social
	id     models.AccountID
	login  string
	page   int
}

// NextPage resolves the account's login on first use, since the followers
// endpoint is keyed by login, then walks the listing page by page.
func (p *followerPages) NextPage(ctx context.Context) ([]models.Account, error) {
	if p.page == 0 {
		return nil, io.EOF
	}
	if p.login == "" {
		user, err := p.social.userByID(ctx, p.id)
		if err != nil {
			return nil, err
		}
		p.login = user.GetLogin()
	}

	opts := &gh.ListOptions{Page: p.page, PerPage: p.social.cfg.PerPage}
	var users []*gh.User
	var next int
	err := p.social.call(ctx, "followers", func(c *gh.Client) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		users, resp, err = c.Users.ListFollowers(ctx, p.login, opts)
		if resp != nil {
			next = resp.NextPage
		}
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	p.page = next
	if len(users) == 0 && next == 0 {
		return nil, io.EOF
	}
	accounts := make([]models.Account, 0, len(users))
	for _, u := range users {
		accounts = append(accounts, toAccount(u))
	}
	return accounts, nil
}

func toAccount(u *gh.User) models.Account {
	return models.Account{
		ID:       models.AccountIDFromInt(u.GetID()),
		Handle:   u.GetLogin(),
		Location: u.GetLocation(),
	}
}
