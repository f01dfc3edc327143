// Package model contains domain types for ghissues.
// These types are independent of any external GitHub library.
package model

import (
	"fmt"
	"strings"
	"time"
)

// IssueState is the open/closed filter applied to issue lists.
type IssueState string

const (
	StateOpen   IssueState = "open"
	StateClosed IssueState = "closed"
)

// ParseIssueState converts user input into an IssueState.
func ParseIssueState(s string) (IssueState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open":
		return StateOpen, nil
	case "closed":
		return StateClosed, nil
	default:
		return "", fmt.Errorf("invalid issue state %q (must be open or closed)", s)
	}
}

// User is the author of an issue or comment.
type User struct {
	Login string `json:"login"`
}

// Label is a repository label attached to an issue.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Issue is a GitHub issue as displayed by ghissues.
// Values are treated as immutable once returned by the client.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	Body      string    `json:"body,omitempty"`
	User      User      `json:"user"`
	Labels    []Label   `json:"labels,omitempty"`
	Comments  int       `json:"comments"`
	HTMLURL   string    `json:"html_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LabelNames returns the names of the issue's labels in order.
func (i Issue) LabelNames() []string {
	names := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		names = append(names, l.Name)
	}
	return names
}

// IsOpen reports whether the issue is open.
func (i Issue) IsOpen() bool {
	return i.State == string(StateOpen)
}

// Comment is a single issue comment.
type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	User      User      `json:"user"`
	HTMLURL   string    `json:"html_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository identifies an owner/repo pair.
type Repository struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// ParseRepository parses "owner/repo".
func ParseRepository(s string) (Repository, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repository{}, fmt.Errorf("invalid repository %q (expected owner/repo)", s)
	}
	return Repository{Owner: parts[0], Name: parts[1]}, nil
}

// FullName returns "owner/repo".
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// IsZero reports whether either half of the pair is missing.
func (r Repository) IsZero() bool {
	return r.Owner == "" || r.Name == ""
}
