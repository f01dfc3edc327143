// Package controller turns user intents into cached queries, session state
// changes and UI effects. It is the only writer of the session state.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spiffcs/ghissues/internal/constants"
	"github.com/spiffcs/ghissues/internal/ghclient"
	"github.com/spiffcs/ghissues/internal/log"
	"github.com/spiffcs/ghissues/internal/model"
	"github.com/spiffcs/ghissues/internal/service"
	"github.com/spiffcs/ghissues/internal/session"
)

// ActionClass names a group of intents that may have at most one request
// in flight.
type ActionClass string

const (
	ClassList       ActionClass = "list"
	ClassSearch     ActionClass = "search"
	ClassDetails    ActionClass = "details"
	ClassCreate     ActionClass = "create"
	ClassComment    ActionClass = "comment"
	ClassRateLimits ActionClass = "rateLimits"
)

var (
	// ErrInFlight is returned when an intent is dropped because another
	// request of the same class has not completed.
	ErrInFlight = errors.New("request already in progress")

	// ErrEmptyTitle is returned when an issue is created without a title.
	ErrEmptyTitle = errors.New("issue title is required")

	// ErrEmptyBody is returned when a comment has no text.
	ErrEmptyBody = errors.New("comment body is required")
)

// Queries is the cache-aware query surface the controller needs.
type Queries interface {
	ListIssues(ctx context.Context, owner, repo string, q ghclient.IssueQuery) ([]model.Issue, error)
	IssueDetails(ctx context.Context, owner, repo string, number int) (model.Issue, []model.Comment, error)
	SearchIssues(ctx context.Context, owner, repo, term string, perPage int) ([]model.Issue, error)
	CreateIssue(ctx context.Context, owner, repo, title, body string) (model.Issue, error)
	CreateComment(ctx context.Context, owner, repo string, number int, body string) (model.Comment, error)
	RateLimits(ctx context.Context) (model.RateLimitSnapshot, error)
	HasToken() bool
	ClearCache()
}

// Ensure IssueService implements Queries interface.
var _ Queries = (*service.IssueService)(nil)

// Authenticator installs a token for the rest of the session.
type Authenticator func(ctx context.Context, token string) error

// Option configures a Controller.
type Option func(*Controller)

// WithAuthenticator enables token prompts.
func WithAuthenticator(a Authenticator) Option {
	return func(c *Controller) {
		c.auth = a
	}
}

// Controller serializes intents per action class and keeps the session
// state consistent across concurrent completions.
type Controller struct {
	mu       sync.Mutex
	state    *session.State
	inFlight map[ActionClass]chan struct{} // closed when the request ends

	queries Queries
	view    View
	auth    Authenticator
}

// New creates a controller that owns state.
func New(q Queries, v View, state *session.State, opts ...Option) *Controller {
	c := &Controller{
		state:    state,
		inFlight: make(map[ActionClass]chan struct{}),
		queries:  q,
		view:     v,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current session state.
func (c *Controller) State() session.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot()
}

// InFlight reports whether a request of class is running.
func (c *Controller) InFlight(class ActionClass) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight[class] != nil
}

// begin admits a request of class, or reports false if one is running.
func (c *Controller) begin(class ActionClass) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.admitLocked(class)
}

func (c *Controller) admitLocked(class ActionClass) bool {
	if c.inFlight[class] != nil {
		log.Debug("dropping duplicate request", "class", class)
		return false
	}
	c.inFlight[class] = make(chan struct{})
	c.state.Loading = true
	c.state.ClearError(string(class))
	return true
}

// end releases class. It runs deferred so loading always resolves.
func (c *Controller) end(class ActionClass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if done := c.inFlight[class]; done != nil {
		close(done)
	}
	delete(c.inFlight, class)
	c.state.Loading = len(c.inFlight) > 0
}

// awaitList blocks until no list or search request is running.
func (c *Controller) awaitList(ctx context.Context) error {
	for {
		c.mu.Lock()
		done := c.inFlight[ClassList]
		if done == nil {
			done = c.inFlight[ClassSearch]
		}
		c.mu.Unlock()
		if done == nil {
			return nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// fail records err against class and reports it. Items and the selected
// issue are left as they were.
func (c *Controller) fail(class ActionClass, action string, err error) {
	info := session.NewErrorInfo(string(class), err)

	c.mu.Lock()
	c.state.Error = info
	if info.Kind == ghclient.KindRateLimited || info.Kind == ghclient.KindAuthFailed {
		c.state.NeedsAuth = true
	}
	c.mu.Unlock()

	log.Debug("action failed", "class", class, "kind", info.Kind, "error", err)
	c.view.RenderStatus(fmt.Sprintf("%s: %s", action, info.Message), SeverityError)
}

// Refresh reloads the current page, or reruns the search when a search
// term is set.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.reload(ctx, false, nil)
}

// HardRefresh drops every cached response and reloads.
func (c *Controller) HardRefresh(ctx context.Context) error {
	return c.reload(ctx, true, nil)
}

// NextPage advances one page and reloads.
func (c *Controller) NextPage(ctx context.Context) error {
	return c.reload(ctx, false, func(s *session.State) bool {
		s.NextPage()
		return true
	})
}

// PrevPage goes back one page and reloads. On the first page it does nothing.
func (c *Controller) PrevPage(ctx context.Context) error {
	return c.reload(ctx, false, func(s *session.State) bool {
		return s.PrevPage()
	})
}

// SetFilter switches between open and closed issues, leaving search mode.
func (c *Controller) SetFilter(ctx context.Context, filter model.IssueState) error {
	return c.reload(ctx, false, func(s *session.State) bool {
		s.ClearSearch()
		s.SetFilter(filter)
		return true
	})
}

// Search runs a free-text search. An empty term returns to the issue list.
func (c *Controller) Search(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	return c.reload(ctx, false, func(s *session.State) bool {
		s.SetSearch(term)
		return true
	})
}

// ResetView clears the search and selection and reloads page 1.
func (c *Controller) ResetView(ctx context.Context) error {
	return c.reload(ctx, false, func(s *session.State) bool {
		s.Reset()
		return true
	})
}

// reload applies transition and fetches the list it describes, dropping the
// whole cache first when clearCache is set. List and search both replace the
// items, so a transition is refused while either is in flight.
func (c *Controller) reload(ctx context.Context, clearCache bool, transition func(*session.State) bool) error {
	c.mu.Lock()
	if c.inFlight[ClassList] != nil || c.inFlight[ClassSearch] != nil {
		c.mu.Unlock()
		log.Debug("dropping list transition while a list request is running")
		return ErrInFlight
	}
	if transition != nil && !transition(c.state) {
		c.mu.Unlock()
		return nil
	}
	class := ClassList
	if c.state.Searching() {
		class = ClassSearch
	}
	c.admitLocked(class)
	if c.state.NeedsAuth && !c.queries.HasToken() && c.auth != nil {
		c.state.NeedsAuth = false
		c.mu.Unlock()
		c.ensureToken(ctx)
		c.mu.Lock()
	}
	params := c.state.Snapshot()
	c.mu.Unlock()
	defer c.end(class)

	if clearCache {
		c.queries.ClearCache()
	}

	var (
		items []model.Issue
		err   error
	)
	if class == ClassSearch {
		c.view.RenderStatus(fmt.Sprintf("Searching for %q...", params.SearchTerm), SeverityProgress)
		items, err = c.queries.SearchIssues(ctx, params.Owner, params.Repo, params.SearchTerm, params.PerPage)
	} else {
		c.view.RenderStatus(fmt.Sprintf("Loading %s issues...", params.Filter), SeverityProgress)
		items, err = c.queries.ListIssues(ctx, params.Owner, params.Repo, ghclient.IssueQuery{
			State:   params.Filter,
			Page:    params.Page,
			PerPage: params.PerPage,
		})
	}
	if err != nil {
		action := "Failed to load issues"
		if class == ClassSearch {
			action = "Search failed"
		}
		c.fail(class, action, err)
		return err
	}

	c.mu.Lock()
	c.state.SetItems(items)
	snap := c.state.Snapshot()
	c.mu.Unlock()

	c.view.RenderList(snap)
	if class == ClassSearch {
		c.view.RenderStatus(fmt.Sprintf("Found %d issues matching %q", len(items), params.SearchTerm), SeverityInfo)
	} else {
		c.view.RenderStatus(fmt.Sprintf("Loaded %d %s issues (page %d)", len(items), params.Filter, params.Page), SeverityInfo)
	}
	return nil
}

// Select moves the selection to index i without fetching.
func (c *Controller) Select(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Select(i)
}

// ViewSelected loads details for the selected issue.
func (c *Controller) ViewSelected(ctx context.Context) error {
	c.mu.Lock()
	selected := c.state.SelectedIssue
	c.mu.Unlock()

	if selected == nil {
		c.view.RenderStatus("No issue selected", SeverityWarning)
		return nil
	}
	return c.ViewDetails(ctx, selected.Number)
}

// ViewDetails fetches an issue and its comments and shows them together.
// On failure the previous view is left intact.
func (c *Controller) ViewDetails(ctx context.Context, number int) error {
	if !c.begin(ClassDetails) {
		return ErrInFlight
	}
	defer c.end(ClassDetails)

	params := c.State()
	c.view.RenderStatus(fmt.Sprintf("Loading issue #%d...", number), SeverityProgress)

	issue, comments, err := c.queries.IssueDetails(ctx, params.Owner, params.Repo, number)
	if err != nil {
		if ghclient.IsKind(err, ghclient.KindNotFound) {
			c.fail(ClassDetails, fmt.Sprintf("Issue #%d", number), err)
			return err
		}
		c.fail(ClassDetails, fmt.Sprintf("Failed to load issue #%d", number), err)
		return err
	}

	c.mu.Lock()
	current := c.state.SetDetails(issue, comments)
	c.mu.Unlock()

	if !current {
		log.Debug("dropping details for an issue no longer listed", "issue", number)
		return nil
	}
	c.view.RenderDetails(issue, comments)
	c.view.RenderStatus(fmt.Sprintf("Issue #%d: %d comments", issue.Number, len(comments)), SeverityInfo)
	return nil
}

// CreateIssue opens a new issue and reloads the list. Without a token the
// user is prompted; if none is given the request never reaches the network.
func (c *Controller) CreateIssue(ctx context.Context, title, body string) (model.Issue, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		c.view.RenderStatus(ErrEmptyTitle.Error(), SeverityWarning)
		return model.Issue{}, ErrEmptyTitle
	}

	issue, err := c.createIssue(ctx, title, body)
	if err != nil {
		return model.Issue{}, err
	}

	// A list that was already loading may hold the page from before the
	// write, so wait for it and load again.
	if err := c.awaitList(ctx); err != nil {
		return issue, nil
	}
	err = c.Refresh(ctx)
	switch {
	case errors.Is(err, ErrInFlight):
		log.Debug("list request started after create is running")
	case err != nil:
		log.Debug("refresh after create failed", "error", err)
	}
	return issue, nil
}

func (c *Controller) createIssue(ctx context.Context, title, body string) (model.Issue, error) {
	const op = "create issue"
	if !c.begin(ClassCreate) {
		return model.Issue{}, ErrInFlight
	}
	defer c.end(ClassCreate)

	if !c.ensureToken(ctx) {
		err := ghclient.NewAuthRequired(op)
		c.fail(ClassCreate, "Cannot create issue", err)
		return model.Issue{}, err
	}

	params := c.State()
	c.view.RenderStatus("Creating issue...", SeverityProgress)
	issue, err := c.queries.CreateIssue(ctx, params.Owner, params.Repo, title, body)
	if err != nil {
		c.fail(ClassCreate, "Failed to create issue", err)
		return model.Issue{}, err
	}

	c.view.RenderStatus(fmt.Sprintf("Created issue #%d", issue.Number), SeveritySuccess)
	return issue, nil
}

// CreateComment comments on issue number and reloads its details.
func (c *Controller) CreateComment(ctx context.Context, number int, body string) (model.Comment, error) {
	if strings.TrimSpace(body) == "" {
		c.view.RenderStatus(ErrEmptyBody.Error(), SeverityWarning)
		return model.Comment{}, ErrEmptyBody
	}

	comment, err := c.createComment(ctx, number, body)
	if err != nil {
		return model.Comment{}, err
	}

	if err := c.ViewDetails(ctx, number); err != nil && !errors.Is(err, ErrInFlight) {
		log.Debug("reload after comment failed", "issue", number, "error", err)
	}
	return comment, nil
}

func (c *Controller) createComment(ctx context.Context, number int, body string) (model.Comment, error) {
	const op = "create comment"
	if !c.begin(ClassComment) {
		return model.Comment{}, ErrInFlight
	}
	defer c.end(ClassComment)

	if !c.ensureToken(ctx) {
		err := ghclient.NewAuthRequired(op)
		c.fail(ClassComment, "Cannot add comment", err)
		return model.Comment{}, err
	}

	params := c.State()
	c.view.RenderStatus(fmt.Sprintf("Commenting on #%d...", number), SeverityProgress)
	comment, err := c.queries.CreateComment(ctx, params.Owner, params.Repo, number, body)
	if err != nil {
		c.fail(ClassComment, "Failed to add comment", err)
		return model.Comment{}, err
	}

	c.view.RenderStatus(fmt.Sprintf("Comment added to #%d", number), SeveritySuccess)
	return comment, nil
}

// CheckRateLimits fetches a fresh quota snapshot. Low remaining quota is a
// warning, never an error.
func (c *Controller) CheckRateLimits(ctx context.Context) error {
	if !c.begin(ClassRateLimits) {
		return ErrInFlight
	}
	defer c.end(ClassRateLimits)

	c.view.RenderStatus("Checking API rate limits...", SeverityProgress)
	snap, err := c.queries.RateLimits(ctx)
	if err != nil {
		c.fail(ClassRateLimits, "Failed to check rate limits", err)
		return err
	}

	c.mu.Lock()
	c.state.RateLimits = &snap
	c.mu.Unlock()

	c.view.RenderRateLimits(snap)
	if snap.Low(constants.RateLimitWarnRemaining, constants.RateLimitWarnFraction) {
		c.view.RenderStatus(fmt.Sprintf("API rate limit low: %d/%d remaining, resets at %s",
			snap.Remaining, snap.Limit, snap.ResetAt.Local().Format("15:04:05")), SeverityWarning)
		return nil
	}
	c.view.RenderStatus(fmt.Sprintf("API: %d/%d requests remaining", snap.Remaining, snap.Limit), SeverityInfo)
	return nil
}

// SetToken installs token for the rest of the session.
func (c *Controller) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ghclient.NewAuthRequired("set token")
	}
	if c.auth == nil {
		return errors.New("token entry is not supported")
	}
	if err := c.auth(ctx, token); err != nil {
		return fmt.Errorf("failed to apply token: %w", err)
	}

	c.mu.Lock()
	c.state.AuthToken = token
	c.state.NeedsAuth = false
	c.mu.Unlock()

	c.view.RenderStatus("Token set for this session", SeveritySuccess)
	return nil
}

// ensureToken reports whether a token is available, prompting once if not.
func (c *Controller) ensureToken(ctx context.Context) bool {
	if c.queries.HasToken() {
		return true
	}
	if c.auth == nil {
		return false
	}
	token, ok := c.view.PromptForToken(ctx)
	if !ok || strings.TrimSpace(token) == "" {
		return false
	}
	if err := c.SetToken(ctx, token); err != nil {
		log.Debug("token rejected", "error", err)
		return false
	}
	return c.queries.HasToken()
}

// PromptCreateIssue asks for a title, body and confirmation, then creates
// the issue.
func (c *Controller) PromptCreateIssue(ctx context.Context) error {
	if !c.ensureToken(ctx) {
		err := ghclient.NewAuthRequired("create issue")
		c.fail(ClassCreate, "Cannot create issue", err)
		return err
	}

	title, ok := c.view.PromptForText(ctx, "Issue title", false)
	if !ok || strings.TrimSpace(title) == "" {
		c.view.RenderStatus("Issue creation cancelled", SeverityInfo)
		return nil
	}
	body, ok := c.view.PromptForText(ctx, "Issue body (markdown)", true)
	if !ok {
		c.view.RenderStatus("Issue creation cancelled", SeverityInfo)
		return nil
	}
	if !c.view.PromptForConfirmation(ctx, fmt.Sprintf("Create issue %q?", strings.TrimSpace(title))) {
		c.view.RenderStatus("Issue creation cancelled", SeverityInfo)
		return nil
	}

	_, err := c.CreateIssue(ctx, title, body)
	return err
}

// PromptComment asks for a comment on the selected issue and posts it.
func (c *Controller) PromptComment(ctx context.Context) error {
	c.mu.Lock()
	selected := c.state.Target()
	c.mu.Unlock()

	if selected == nil {
		c.view.RenderStatus("Select an issue to comment on", SeverityWarning)
		return nil
	}
	number := selected.Number

	if !c.ensureToken(ctx) {
		err := ghclient.NewAuthRequired("create comment")
		c.fail(ClassComment, "Cannot add comment", err)
		return err
	}

	body, ok := c.view.PromptForText(ctx, fmt.Sprintf("Comment on #%d (markdown)", number), true)
	if !ok || strings.TrimSpace(body) == "" {
		c.view.RenderStatus("Comment cancelled", SeverityInfo)
		return nil
	}
	if !c.view.PromptForConfirmation(ctx, fmt.Sprintf("Post comment on #%d?", number)) {
		c.view.RenderStatus("Comment cancelled", SeverityInfo)
		return nil
	}

	_, err := c.CreateComment(ctx, number, body)
	return err
}
