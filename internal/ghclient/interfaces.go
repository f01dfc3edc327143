// Package ghclient provides GitHub API client functionality.
package ghclient

import (
	"context"

	"github.com/spiffcs/ghissues/internal/model"
)

// IssueAPI defines the raw GitHub operations used by ghissues.
// Implementations perform no caching; see service.IssueService for the
// cache-aware layer.
type IssueAPI interface {
	ListIssues(ctx context.Context, owner, repo string, q IssueQuery) ([]model.Issue, error)
	GetIssue(ctx context.Context, owner, repo string, number int) (model.Issue, error)
	ListComments(ctx context.Context, owner, repo string, number int) ([]model.Comment, error)
	CreateIssue(ctx context.Context, owner, repo, title, body string) (model.Issue, error)
	CreateComment(ctx context.Context, owner, repo string, number int, body string) (model.Comment, error)
	SearchIssues(ctx context.Context, query string, perPage int) ([]model.Issue, error)
	RateLimits(ctx context.Context) (model.RateLimitSnapshot, error)
	HasToken() bool
}

// Ensure Client implements IssueAPI interface.
var _ IssueAPI = (*Client)(nil)
