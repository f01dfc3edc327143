// Package service provides the cache-aware query layer between callers and
// the GitHub API client.
package service

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/spiffcs/ghissues/internal/cache"
	"github.com/spiffcs/ghissues/internal/ghclient"
	"github.com/spiffcs/ghissues/internal/log"
	"github.com/spiffcs/ghissues/internal/model"
	"golang.org/x/sync/errgroup"
)

// IssueService wraps reads with "return cached value if fresh, else fetch
// and store" and writes with "perform, then invalidate affected keys".
type IssueService struct {
	mu    sync.RWMutex
	api   ghclient.IssueAPI
	cache cache.Cacher
}

// New creates an IssueService. A nil cache disables caching.
func New(api ghclient.IssueAPI, c cache.Cacher) *IssueService {
	return &IssueService{
		api:   api,
		cache: c,
	}
}

// SetAPI swaps the underlying client, for example after the user supplies
// a token. Cached entries are kept.
func (s *IssueService) SetAPI(api ghclient.IssueAPI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.api = api
}

func (s *IssueService) client() ghclient.IssueAPI {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.api
}

// HasToken reports whether write operations can be attempted.
func (s *IssueService) HasToken() bool {
	return s.client().HasToken()
}

// ListIssues returns one page of issues for owner/repo.
func (s *IssueService) ListIssues(ctx context.Context, owner, repo string, q ghclient.IssueQuery) ([]model.Issue, error) {
	issues, _, err := cachedFetch(ctx, s.cache, issuesKey(owner, repo, q), func(ctx context.Context) ([]model.Issue, error) {
		return s.client().ListIssues(ctx, owner, repo, q)
	})
	return slices.Clone(issues), err
}

// GetIssue returns a single issue.
func (s *IssueService) GetIssue(ctx context.Context, owner, repo string, number int) (model.Issue, error) {
	issue, _, err := cachedFetch(ctx, s.cache, issueKey(owner, repo, number), func(ctx context.Context) (model.Issue, error) {
		return s.client().GetIssue(ctx, owner, repo, number)
	})
	return issue, err
}

// ListComments returns every comment on an issue.
func (s *IssueService) ListComments(ctx context.Context, owner, repo string, number int) ([]model.Comment, error) {
	comments, _, err := cachedFetch(ctx, s.cache, commentsKey(owner, repo, number), func(ctx context.Context) ([]model.Comment, error) {
		return s.client().ListComments(ctx, owner, repo, number)
	})
	return slices.Clone(comments), err
}

// IssueDetails fetches an issue and its comments concurrently. Either both
// are returned or neither is.
func (s *IssueService) IssueDetails(ctx context.Context, owner, repo string, number int) (model.Issue, []model.Comment, error) {
	var (
		issue    model.Issue
		comments []model.Comment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		issue, err = s.GetIssue(gctx, owner, repo, number)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = s.ListComments(gctx, owner, repo, number)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Issue{}, nil, err
	}
	return issue, comments, nil
}

// SearchIssues runs a free-text search within owner/repo. Results are never
// cached.
func (s *IssueService) SearchIssues(ctx context.Context, owner, repo, term string, perPage int) ([]model.Issue, error) {
	query := SearchQuery(owner, repo, strings.TrimSpace(term))
	log.Debug("searching issues", "query", query)
	return s.client().SearchIssues(ctx, query, perPage)
}

// RateLimits always fetches a fresh quota snapshot.
func (s *IssueService) RateLimits(ctx context.Context) (model.RateLimitSnapshot, error) {
	return s.client().RateLimits(ctx)
}

// CreateIssue opens an issue and drops every cached issue list page for
// owner/repo.
func (s *IssueService) CreateIssue(ctx context.Context, owner, repo, title, body string) (model.Issue, error) {
	issue, err := s.client().CreateIssue(ctx, owner, repo, title, body)
	if err != nil {
		return model.Issue{}, err
	}
	if s.cache != nil {
		removed := s.cache.InvalidatePrefix(issuesPrefix(owner, repo))
		log.Debug("invalidated issue lists", "owner", owner, "repo", repo, "entries", removed, "issue", issue.Number)
	}
	return issue, nil
}

// CreateComment adds a comment and drops the cached comment list and issue
// (whose comment count changed).
func (s *IssueService) CreateComment(ctx context.Context, owner, repo string, number int, body string) (model.Comment, error) {
	comment, err := s.client().CreateComment(ctx, owner, repo, number, body)
	if err != nil {
		return model.Comment{}, err
	}
	if s.cache != nil {
		s.cache.InvalidateOne(commentsKey(owner, repo, number))
		s.cache.InvalidateOne(issueKey(owner, repo, number))
	}
	return comment, nil
}

// ClearCache drops every cached response.
func (s *IssueService) ClearCache() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

// CacheStats reports cache occupancy. ok is false when caching is disabled.
func (s *IssueService) CacheStats() (stats cache.Stats, ok bool) {
	if s.cache == nil {
		return cache.Stats{}, false
	}
	return s.cache.Stats(), true
}

// cachedFetch returns the fresh cached value for key or calls fetch and
// stores its result. The bool reports whether the value came from cache.
// A result is not stored if the cache was invalidated while fetch ran.
func cachedFetch[T any](ctx context.Context, c cache.Cacher, key string, fetch func(context.Context) (T, error)) (T, bool, error) {
	var gen uint64
	if c != nil {
		if v, ok := cache.GetAs[T](c, key); ok {
			log.Debug("served from cache", "key", key)
			return v, true, nil
		}
		gen = c.Generation()
	}

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}

	if c != nil {
		c.SetIfGeneration(key, v, gen)
	}
	return v, false, nil
}
