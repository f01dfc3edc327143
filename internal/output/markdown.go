package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spiffcs/ghissues/internal/format"
	"github.com/spiffcs/ghissues/internal/model"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct {
	Now func() time.Time
}

func (f *MarkdownFormatter) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

// escapeCell keeps pipes and newlines from breaking a table row.
func escapeCell(s string) string {
	return strings.ReplaceAll(format.SingleLine(s), "|", `\|`)
}

// FormatIssues outputs issues as a Markdown table
func (f *MarkdownFormatter) FormatIssues(repo model.Repository, issues []model.Issue, w io.Writer) error {
	fmt.Fprintf(w, "# Issues in %s\n\n", repo.FullName())
	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return nil
	}

	fmt.Fprintln(w, "| # | State | Title | Labels | Author | Comments | Updated |")
	fmt.Fprintln(w, "|---|-------|-------|--------|--------|----------|---------|")
	now := f.now()
	for _, issue := range issues {
		title := escapeCell(issue.Title)
		if issue.HTMLURL != "" {
			title = fmt.Sprintf("[%s](%s)", title, issue.HTMLURL)
		}
		fmt.Fprintf(w, "| %d | %s | %s | %s | @%s | %d | %s |\n",
			issue.Number,
			issue.State,
			title,
			escapeCell(format.Labels(issue.LabelNames())),
			issue.User.Login,
			issue.Comments,
			format.Age(issue.UpdatedAt, now),
		)
	}
	return nil
}

// FormatIssue outputs one issue and its comments as Markdown
func (f *MarkdownFormatter) FormatIssue(issue model.Issue, comments []model.Comment, w io.Writer) error {
	fmt.Fprintf(w, "# #%d %s\n\n", issue.Number, issue.Title)
	fmt.Fprintf(w, "**State:** %s | **Author:** @%s | **Created:** %s\n",
		issue.State, issue.User.Login, format.Timestamp(issue.CreatedAt))
	if labels := issue.LabelNames(); len(labels) > 0 {
		fmt.Fprintf(w, "**Labels:** %s\n", format.Labels(labels))
	}
	if issue.HTMLURL != "" {
		fmt.Fprintf(w, "\n%s\n", issue.HTMLURL)
	}

	if strings.TrimSpace(issue.Body) != "" {
		fmt.Fprintf(w, "\n%s\n", strings.TrimSpace(issue.Body))
	}

	if len(comments) > 0 {
		fmt.Fprintf(w, "\n## Comments (%d)\n", len(comments))
	}
	for _, c := range comments {
		fmt.Fprintf(w, "\n### @%s, %s\n\n%s\n", c.User.Login, format.Timestamp(c.CreatedAt), strings.TrimSpace(c.Body))
	}
	return nil
}

// FormatRateLimits outputs the rate limits as a Markdown table
func (f *MarkdownFormatter) FormatRateLimits(snapshot model.RateLimitSnapshot, w io.Writer) error {
	fmt.Fprintln(w, "# GitHub API Rate Limits")
	fmt.Fprintf(w, "\n*Authenticated: %t*\n\n", snapshot.Authenticated)
	fmt.Fprintln(w, "| Resource | Remaining | Limit | Resets |")
	fmt.Fprintln(w, "|----------|-----------|-------|--------|")
	for _, name := range snapshot.ResourceNames() {
		r := snapshot.Resources[name]
		fmt.Fprintf(w, "| %s | %d | %d | %s |\n", name, r.Remaining, r.Limit, format.Timestamp(r.ResetAt))
	}
	return nil
}
