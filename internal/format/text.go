// Package format provides shared text formatting for terminal output.
package format

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Ellipsis marks truncated text.
const Ellipsis = "..."

// StripAnsi removes ANSI escape sequences from a string.
func StripAnsi(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// DisplayWidth returns the visible width of s in terminal columns,
// ignoring ANSI escape sequences.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(StripAnsi(s))
}

// Truncate shortens s to at most maxWidth columns, ending in an ellipsis
// when anything was cut. Styled input loses its styling when truncated.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if DisplayWidth(s) <= maxWidth {
		return s
	}
	plain := StripAnsi(s)
	if maxWidth <= len(Ellipsis) {
		return runewidth.Truncate(plain, maxWidth, "")
	}
	return runewidth.Truncate(plain, maxWidth, Ellipsis)
}

// PadRight pads s with spaces to width visible columns.
func PadRight(s string, width int) string {
	w := DisplayWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// Fit truncates or pads s to exactly width columns.
func Fit(s string, width int) string {
	return PadRight(Truncate(s, width), width)
}

// SingleLine collapses runs of whitespace, including newlines, into one
// space so titles and previews stay on one row.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Labels joins label names for a table cell.
func Labels(names []string) string {
	return strings.Join(names, ", ")
}
