// Package spidertest provides an in-memory spider.Source for tests.
package spidertest

import (
	"context"
	"io"
	"sync"

	"github.com/gnomegl/iceslurp/internal/models"
	"github.com/gnomegl/iceslurp/internal/spider"
)

// Source serves accounts, posts and follower pages from memory. Queued
// errors are returned (and consumed) before the call is served normally.
type Source struct {
	mu sync.Mutex

	Accounts map[models.AccountID]models.Account
	Posts    []models.Post
	// Pages holds follower ids per account, one slice per remote page.
	Pages map[models.AccountID][][]models.AccountID
	// PageErrs fails the listing of an account once the given number of
	// pages has been served.
	PageErrs map[models.AccountID]PageErr

	SearchErrs []error
	LookupErrs []error

	SearchCalls   int
	LookupCalls   [][]models.AccountID
	FollowerCalls []models.AccountID
}

type PageErr struct {
	After int
	Err   error
}

var _ spider.Source = (*Source)(nil)

func New() *Source {
	return &Source{
		Accounts: make(map[models.AccountID]models.Account),
		Pages:    make(map[models.AccountID][][]models.AccountID),
		PageErrs: make(map[models.AccountID]PageErr),
	}
}

// AddAccount registers an account for lookups and returns its id.
func (s *Source) AddAccount(id models.AccountID, handle, location string) models.AccountID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Accounts[id] = models.Account{ID: id, Handle: handle, Location: location}
	return id
}

func (s *Source) AddPost(id models.AccountID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Posts = append(s.Posts, models.Post{Author: s.Accounts[id]})
}

func (s *Source) SetFollowers(id models.AccountID, pages ...[]models.AccountID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Pages[id] = pages
}

func (s *Source) LookupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.LookupCalls)
}

func (s *Source) SearchRecentPosts(_ context.Context, _ string, limit int) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SearchCalls++
	if len(s.SearchErrs) > 0 {
		err := s.SearchErrs[0]
		s.SearchErrs = s.SearchErrs[1:]
		return nil, err
	}
	posts := s.Posts
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return append([]models.Post(nil), posts...), nil
}

func (s *Source) LookupAccounts(_ context.Context, ids []models.AccountID) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LookupCalls = append(s.LookupCalls, append([]models.AccountID(nil), ids...))
	if len(s.LookupErrs) > 0 {
		err := s.LookupErrs[0]
		s.LookupErrs = s.LookupErrs[1:]
		return nil, err
	}
	var out []models.Account
	for _, id := range ids {
		if acct, ok := s.Accounts[id]; ok {
			out = append(out, acct)
		}
	}
	return out, nil
}

func (s *Source) Followers(_ context.Context, id models.AccountID) spider.FollowerPages {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FollowerCalls = append(s.FollowerCalls, id)
	return &pages{src: s, id: id}
}

type pages struct {
	src  *Source
	id   models.AccountID
	next int
}

func (p *pages) NextPage(_ context.Context) ([]models.Account, error) {
	p.src.mu.Lock()
	defer p.src.mu.Unlock()

	if fail, ok := p.src.PageErrs[p.id]; ok && p.next >= fail.After {
		return nil, fail.Err
	}
	all := p.src.Pages[p.id]
	if p.next >= len(all) {
		return nil, io.EOF
	}
	page := all[p.next]
	p.next++

	out := make([]models.Account, 0, len(page))
	for _, id := range page {
		// Listings carry ids only; location comes from lookups.
		out = append(out, models.Account{ID: id})
	}
	return out, nil
}
