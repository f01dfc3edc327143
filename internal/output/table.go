package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/spiffcs/ghissues/internal/constants"
	"github.com/spiffcs/ghissues/internal/format"
	"github.com/spiffcs/ghissues/internal/model"
)

// TableFormatter formats output as a terminal table
type TableFormatter struct {
	Now func() time.Time
}

// Column widths
const (
	colNumber   = 6
	colState    = 6
	colTitle    = 50
	colLabels   = 20
	colAuthor   = 15
	colComments = 4
)

// hyperlink creates a clickable terminal hyperlink using OSC 8
func hyperlink(text, url string) string {
	if url == "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

func (f *TableFormatter) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

func colorState(state string) string {
	if state == constants.StateClosed {
		return color.MagentaString(state)
	}
	return color.GreenString(state)
}

// FormatIssues outputs issues as a table
func (f *TableFormatter) FormatIssues(repo model.Repository, issues []model.Issue, w io.Writer) error {
	if len(issues) == 0 {
		fmt.Fprintf(w, "No issues found in %s.\n", repo.FullName())
		return nil
	}

	fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s  %s\n",
		format.PadRight("#", colNumber),
		format.PadRight("State", colState),
		format.PadRight("Title", colTitle),
		format.PadRight("Labels", colLabels),
		format.PadRight("Author", colAuthor),
		format.PadRight("Cmts", colComments),
		"Updated")
	fmt.Fprintln(w, strings.Repeat("-", colNumber+colState+colTitle+colLabels+colAuthor+colComments+7+12))

	now := f.now()
	for _, issue := range issues {
		title := format.Fit(format.SingleLine(issue.Title), colTitle)
		fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s  %s\n",
			format.PadRight(fmt.Sprintf("#%d", issue.Number), colNumber),
			format.PadRight(colorState(issue.State), colState),
			hyperlink(title, issue.HTMLURL),
			format.Fit(format.Labels(issue.LabelNames()), colLabels),
			format.Fit(issue.User.Login, colAuthor),
			format.PadRight(fmt.Sprintf("%d", issue.Comments), colComments),
			format.Age(issue.UpdatedAt, now),
		)
	}

	fmt.Fprintf(w, "\n%d issues in %s\n", len(issues), color.CyanString(repo.FullName()))
	return nil
}

// FormatIssue outputs one issue with its comments
func (f *TableFormatter) FormatIssue(issue model.Issue, comments []model.Comment, w io.Writer) error {
	width := format.TerminalWidth(80)
	now := f.now()

	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s %s\n", bold(fmt.Sprintf("#%d", issue.Number)), bold(issue.Title))
	fmt.Fprintf(w, "%s  opened by %s  %s ago  %d comments\n",
		colorState(issue.State), issue.User.Login, format.Age(issue.CreatedAt, now), issue.Comments)
	if labels := issue.LabelNames(); len(labels) > 0 {
		fmt.Fprintf(w, "Labels: %s\n", color.YellowString(format.Labels(labels)))
	}
	if issue.HTMLURL != "" {
		fmt.Fprintln(w, color.HiBlackString(issue.HTMLURL))
	}

	fmt.Fprintln(w)
	if body := format.RenderMarkdown(issue.Body, width); body != "" {
		fmt.Fprintln(w, body)
	} else {
		fmt.Fprintln(w, color.HiBlackString("No description provided."))
	}

	for _, c := range comments {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", color.CyanString(c.User.Login), color.HiBlackString("commented %s ago", format.Age(c.CreatedAt, now)))
		fmt.Fprintln(w, format.RenderMarkdown(c.Body, width))
	}
	return nil
}

// FormatRateLimits outputs one row per API resource
func (f *TableFormatter) FormatRateLimits(snapshot model.RateLimitSnapshot, w io.Writer) error {
	mode := "authenticated"
	if !snapshot.Authenticated {
		mode = "unauthenticated"
	}
	fmt.Fprintf(w, "GitHub API rate limits (%s)\n\n", mode)
	fmt.Fprintf(w, "%-10s %9s %9s  %s\n", "Resource", "Remaining", "Limit", "Resets")

	now := f.now()
	for _, name := range snapshot.ResourceNames() {
		r := snapshot.Resources[name]
		remaining := fmt.Sprintf("%9d", r.Remaining)
		low := model.RateLimitSnapshot{Limit: r.Limit, Remaining: r.Remaining}
		if low.Low(constants.RateLimitWarnRemaining, constants.RateLimitWarnFraction) {
			remaining = color.RedString(remaining)
		}
		fmt.Fprintf(w, "%-10s %s %9d  in %s\n", name, remaining, r.Limit, format.FormatAge(r.ResetAt.Sub(now)))
	}

	if !snapshot.Authenticated {
		fmt.Fprintf(w, "\nSet GITHUB_TOKEN to raise the core limit from %d to %d requests per hour.\n",
			constants.AnonymousRateLimit, constants.AuthenticatedRateLimit)
	}
	return nil
}
