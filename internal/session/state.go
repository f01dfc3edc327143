// Package session holds the mutable record of what the user is looking at.
// It performs no I/O; the controller decides when a transition needs a fetch.
package session

import (
	"slices"

	"github.com/spiffcs/ghissues/internal/constants"
	"github.com/spiffcs/ghissues/internal/ghclient"
	"github.com/spiffcs/ghissues/internal/model"
)

// ErrorInfo is the last failure shown to the user.
type ErrorInfo struct {
	Action  string // action class that failed
	Kind    ghclient.Kind
	Message string
	Err     error
}

// NewErrorInfo builds an ErrorInfo from a classified or plain error.
func NewErrorInfo(action string, err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	return &ErrorInfo{
		Action:  action,
		Kind:    ghclient.KindOf(err),
		Message: ghclient.UserMessage(err),
		Err:     err,
	}
}

// ClearError drops the stored error if it was raised by action.
func (s *State) ClearError(action string) {
	if s.Error != nil && s.Error.Action == action {
		s.Error = nil
	}
}

// State is the view of a single session. It is not safe for concurrent use;
// the controller serializes access.
type State struct {
	Owner      string
	Repo       string
	Filter     model.IssueState
	Page       int
	PerPage    int
	SearchTerm string

	Items         []model.Issue
	SelectedIndex int          // -1 when nothing is selected
	SelectedIssue *model.Issue // the issue at Items[SelectedIndex], or nil

	// Detail and Comments are the last issue loaded in full. They are set
	// together and may name an issue outside Items when no list is loaded.
	Detail   *model.Issue
	Comments []model.Comment

	Loading   bool
	Error     *ErrorInfo
	NeedsAuth bool
	AuthToken string

	RateLimits *model.RateLimitSnapshot
}

// New creates the initial state for owner/repo.
func New(owner, repo string, perPage int) *State {
	if perPage <= 0 {
		perPage = constants.DefaultPerPage
	}
	if perPage > constants.MaxPerPage {
		perPage = constants.MaxPerPage
	}
	return &State{
		Owner:         owner,
		Repo:          repo,
		Filter:        model.StateOpen,
		Page:          1,
		PerPage:       perPage,
		SelectedIndex: -1,
	}
}

// Searching reports whether a search term is active.
func (s *State) Searching() bool {
	return s.SearchTerm != ""
}

// SetItems replaces the list and selects the first item, or nothing when
// the list is empty. Details of a previous selection are dropped.
func (s *State) SetItems(items []model.Issue) {
	s.Items = items
	s.clearDetails()
	if len(items) == 0 {
		s.SelectedIndex = -1
		s.SelectedIssue = nil
		return
	}
	s.SelectedIndex = 0
	first := items[0]
	s.SelectedIssue = &first
}

// Select moves the selection to index i. It returns false if i is out of range.
func (s *State) Select(i int) bool {
	if i < 0 || i >= len(s.Items) {
		return false
	}
	if i != s.SelectedIndex {
		s.clearDetails()
	}
	s.SelectedIndex = i
	issue := s.Items[i]
	s.SelectedIssue = &issue
	return true
}

// MoveSelection moves the selection by delta, clamped to the list.
func (s *State) MoveSelection(delta int) bool {
	if len(s.Items) == 0 {
		return false
	}
	i := s.SelectedIndex + delta
	i = max(0, min(i, len(s.Items)-1))
	return s.Select(i)
}

// SetDetails records a fetched issue and its comments together. If the
// issue is in the list, the selection follows it. When a list is loaded
// that no longer contains the issue, nothing changes and SetDetails
// returns false.
func (s *State) SetDetails(issue model.Issue, comments []model.Comment) bool {
	i := slices.IndexFunc(s.Items, func(it model.Issue) bool { return it.Number == issue.Number })
	if i < 0 && len(s.Items) > 0 {
		return false
	}
	if i >= 0 {
		s.SelectedIndex = i
		selected := issue
		s.SelectedIssue = &selected
	}
	s.Detail = &issue
	s.Comments = comments
	return true
}

// Target is the issue an action on "the current issue" applies to: the
// selected row, or the loaded detail when no list is shown.
func (s *State) Target() *model.Issue {
	if s.SelectedIssue != nil || len(s.Items) > 0 {
		return s.SelectedIssue
	}
	return s.Detail
}

func (s *State) clearDetails() {
	s.Detail = nil
	s.Comments = nil
}

// SetFilter changes the open/closed filter and returns to page 1.
func (s *State) SetFilter(f model.IssueState) {
	s.Filter = f
	s.Page = 1
}

// SetSearch sets the search term and returns to page 1. An empty term
// clears the search.
func (s *State) SetSearch(term string) {
	s.SearchTerm = term
	s.Page = 1
}

// ClearSearch removes the search term.
func (s *State) ClearSearch() {
	s.SetSearch("")
}

// NextPage advances one page.
func (s *State) NextPage() {
	s.Page++
}

// PrevPage goes back one page. It returns false on the first page.
func (s *State) PrevPage() bool {
	if s.Page <= 1 {
		return false
	}
	s.Page--
	return true
}

// Reset clears the search, returns to page 1 and drops the selection.
func (s *State) Reset() {
	s.SearchTerm = ""
	s.Page = 1
	s.SelectedIndex = -1
	s.SelectedIssue = nil
	s.clearDetails()
	s.Error = nil
}

// SetRepo switches to a different repository and resets the view.
func (s *State) SetRepo(owner, repo string) {
	s.Owner = owner
	s.Repo = repo
	s.Items = nil
	s.Reset()
}

// Snapshot returns a copy that can be read without holding the
// controller's lock.
func (s *State) Snapshot() State {
	c := *s
	c.Items = slices.Clone(s.Items)
	c.Comments = slices.Clone(s.Comments)
	if s.SelectedIssue != nil {
		issue := *s.SelectedIssue
		c.SelectedIssue = &issue
	}
	if s.Detail != nil {
		detail := *s.Detail
		c.Detail = &detail
	}
	if s.Error != nil {
		e := *s.Error
		c.Error = &e
	}
	if s.RateLimits != nil {
		rl := *s.RateLimits
		c.RateLimits = &rl
	}
	return c
}
