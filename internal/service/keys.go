package service

import (
	"fmt"

	"github.com/spiffcs/ghissues/internal/ghclient"
)

// Cache keys are built from the operation name and every parameter that
// changes the response, so equal requests always share an entry.

func issuesKey(owner, repo string, q ghclient.IssueQuery) string {
	return fmt.Sprintf("%s%s:%d:%d", issuesPrefix(owner, repo), q.State, q.Page, q.PerPage)
}

// issuesPrefix matches every cached issue list page for owner/repo. The
// trailing separator keeps "o/r" from matching "o/r2".
func issuesPrefix(owner, repo string) string {
	return fmt.Sprintf("issues:%s:%s:", owner, repo)
}

func issueKey(owner, repo string, number int) string {
	return fmt.Sprintf("issue:%s:%s:%d", owner, repo, number)
}

func commentsKey(owner, repo string, number int) string {
	return fmt.Sprintf("comments:%s:%s:%d", owner, repo, number)
}

// SearchQuery builds the search expression for a free-text term scoped to
// one repository.
func SearchQuery(owner, repo, term string) string {
	return fmt.Sprintf("repo:%s/%s %s in:title,body", owner, repo, term)
}
