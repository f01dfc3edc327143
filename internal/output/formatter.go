// Package output renders issues, comments and rate limits for the
// non-interactive commands.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/spiffcs/ghissues/internal/model"
)

// Format represents the output format
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON, FormatMarkdown:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("invalid format %q (must be table, json or markdown)", s)
	}
}

// Formatter defines the interface for output formatters
type Formatter interface {
	FormatIssues(repo model.Repository, issues []model.Issue, w io.Writer) error
	FormatIssue(issue model.Issue, comments []model.Comment, w io.Writer) error
	FormatRateLimits(snapshot model.RateLimitSnapshot, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatMarkdown:
		return &MarkdownFormatter{Now: time.Now}
	default:
		return &TableFormatter{Now: time.Now}
	}
}
