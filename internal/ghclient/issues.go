package ghclient

import (
	"context"

	gh "github.com/google/go-github/v57/github"
	"github.com/spiffcs/ghissues/internal/model"
)

// IssueQuery selects one page of a repository's issues.
type IssueQuery struct {
	State   model.IssueState
	Page    int
	PerPage int
}

// ListIssues fetches one page of issues, most recently updated first.
// Pull requests returned by the issues endpoint are dropped.
func (c *Client) ListIssues(ctx context.Context, owner, repo string, q IssueQuery) ([]model.Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:     string(q.State),
		Sort:      "updated",
		Direction: "desc",
		ListOptions: gh.ListOptions{
			Page:    q.Page,
			PerPage: q.PerPage,
		},
	}

	var issues []*gh.Issue
	err := c.do(ctx, "list issues", func() error {
		var err error
		issues, _, err = c.client.Issues.ListByRepo(ctx, owner, repo, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	items := make([]model.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		items = append(items, toIssue(issue))
	}
	return items, nil
}

// GetIssue fetches a single issue.
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (model.Issue, error) {
	var issue *gh.Issue
	err := c.do(ctx, "get issue", func() error {
		var err error
		issue, _, err = c.client.Issues.Get(ctx, owner, repo, number)
		return err
	})
	if err != nil {
		return model.Issue{}, err
	}
	return toIssue(issue), nil
}

// ListComments fetches every comment on an issue in creation order.
func (c *Client) ListComments(ctx context.Context, owner, repo string, number int) ([]model.Comment, error) {
	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	comments := []model.Comment{}
	for {
		var (
			page []*gh.IssueComment
			resp *gh.Response
		)
		err := c.do(ctx, "list comments", func() error {
			var err error
			page, resp, err = c.client.Issues.ListComments(ctx, owner, repo, number, opts)
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, comment := range page {
			comments = append(comments, toComment(comment))
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return comments, nil
}

// CreateIssue opens a new issue. It requires a token.
func (c *Client) CreateIssue(ctx context.Context, owner, repo, title, body string) (model.Issue, error) {
	const op = "create issue"
	if !c.HasToken() {
		return model.Issue{}, NewAuthRequired(op)
	}

	req := &gh.IssueRequest{
		Title: gh.String(title),
		Body:  gh.String(body),
	}

	var issue *gh.Issue
	err := c.do(ctx, op, func() error {
		var err error
		issue, _, err = c.client.Issues.Create(ctx, owner, repo, req)
		return err
	})
	if err != nil {
		return model.Issue{}, err
	}
	return toIssue(issue), nil
}

// CreateComment adds a comment to an issue. It requires a token.
func (c *Client) CreateComment(ctx context.Context, owner, repo string, number int, body string) (model.Comment, error) {
	const op = "create comment"
	if !c.HasToken() {
		return model.Comment{}, NewAuthRequired(op)
	}

	req := &gh.IssueComment{Body: gh.String(body)}

	var comment *gh.IssueComment
	err := c.do(ctx, op, func() error {
		var err error
		comment, _, err = c.client.Issues.CreateComment(ctx, owner, repo, number, req)
		return err
	})
	if err != nil {
		return model.Comment{}, err
	}
	return toComment(comment), nil
}

// SearchIssues runs an issue search query, most recently updated first.
func (c *Client) SearchIssues(ctx context.Context, query string, perPage int) ([]model.Issue, error) {
	opts := &gh.SearchOptions{
		Sort:  "updated",
		Order: "desc",
		ListOptions: gh.ListOptions{
			PerPage: perPage,
		},
	}

	var result *gh.IssuesSearchResult
	err := c.do(ctx, "search issues", func() error {
		var err error
		result, _, err = c.client.Search.Issues(ctx, query, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	items := make([]model.Issue, 0, len(result.Issues))
	for _, issue := range result.Issues {
		items = append(items, toIssue(issue))
	}
	return items, nil
}

// RateLimits fetches the current API quota.
func (c *Client) RateLimits(ctx context.Context) (model.RateLimitSnapshot, error) {
	var limits *gh.RateLimits
	err := c.do(ctx, "get rate limits", func() error {
		var err error
		limits, _, err = c.client.RateLimit.Get(ctx)
		return err
	})
	if err != nil {
		return model.RateLimitSnapshot{}, err
	}

	snap := model.RateLimitSnapshot{
		Authenticated: c.HasToken(),
		Resources:     map[string]model.ResourceLimit{},
	}
	for name, rate := range map[string]*gh.Rate{
		"core":    limits.GetCore(),
		"search":  limits.GetSearch(),
		"graphql": limits.GetGraphQL(),
	} {
		if rate == nil {
			continue
		}
		snap.Resources[name] = toResourceLimit(rate)
	}
	if core, ok := snap.Resources["core"]; ok {
		snap.Limit = core.Limit
		snap.Remaining = core.Remaining
		snap.ResetAt = core.ResetAt
	}
	return snap, nil
}

func toIssue(issue *gh.Issue) model.Issue {
	labels := make([]model.Label, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labels = append(labels, model.Label{
			Name:  label.GetName(),
			Color: label.GetColor(),
		})
	}

	return model.Issue{
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		State:     issue.GetState(),
		Body:      issue.GetBody(),
		User:      model.User{Login: issue.GetUser().GetLogin()},
		Labels:    labels,
		Comments:  issue.GetComments(),
		HTMLURL:   issue.GetHTMLURL(),
		CreatedAt: issue.GetCreatedAt().Time,
		UpdatedAt: issue.GetUpdatedAt().Time,
	}
}

func toComment(comment *gh.IssueComment) model.Comment {
	return model.Comment{
		ID:        comment.GetID(),
		Body:      comment.GetBody(),
		User:      model.User{Login: comment.GetUser().GetLogin()},
		HTMLURL:   comment.GetHTMLURL(),
		CreatedAt: comment.GetCreatedAt().Time,
		UpdatedAt: comment.GetUpdatedAt().Time,
	}
}

func toResourceLimit(rate *gh.Rate) model.ResourceLimit {
	return model.ResourceLimit{
		Limit:     rate.Limit,
		Remaining: rate.Remaining,
		ResetAt:   rate.Reset.Time,
	}
}
