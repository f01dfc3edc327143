package output

import (
	"encoding/json"
	"io"

	"github.com/spiffcs/ghissues/internal/model"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

// IssueListOutput is the JSON document for an issue list.
type IssueListOutput struct {
	Repository string        `json:"repository"`
	Count      int           `json:"count"`
	Issues     []model.Issue `json:"issues"`
}

// IssueOutput is the JSON document for a single issue.
type IssueOutput struct {
	Issue    model.Issue     `json:"issue"`
	Comments []model.Comment `json:"comments"`
}

func (f *JSONFormatter) encode(v any, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

// FormatIssues outputs an issue list with its repository
func (f *JSONFormatter) FormatIssues(repo model.Repository, issues []model.Issue, w io.Writer) error {
	if issues == nil {
		issues = []model.Issue{}
	}
	return f.encode(IssueListOutput{Repository: repo.FullName(), Count: len(issues), Issues: issues}, w)
}

// FormatIssue outputs an issue and its comments
func (f *JSONFormatter) FormatIssue(issue model.Issue, comments []model.Comment, w io.Writer) error {
	if comments == nil {
		comments = []model.Comment{}
	}
	return f.encode(IssueOutput{Issue: issue, Comments: comments}, w)
}

// FormatRateLimits outputs the rate limit snapshot
func (f *JSONFormatter) FormatRateLimits(snapshot model.RateLimitSnapshot, w io.Writer) error {
	return f.encode(snapshot, w)
}
