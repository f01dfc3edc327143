package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spiffcs/ghissues/internal/cache"
	"github.com/spiffcs/ghissues/internal/ghclient"
	"github.com/spiffcs/ghissues/internal/model"
	"github.com/spiffcs/ghissues/internal/service"
	"github.com/spiffcs/ghissues/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-memory ghclient.IssueAPI.
type fakeAPI struct {
	mu       sync.Mutex
	calls    map[string]int
	issues   []model.Issue
	comments map[int][]model.Comment
	errs     map[string]error
	token    bool
	limits   model.RateLimitSnapshot
	pages    map[int][]model.Issue // per-page results overriding issues

	// gate, when set, blocks ListIssues until closed; started is signalled
	// when a gated call begins. getGate and getStarted do the same for
	// GetIssue.
	gate       chan struct{}
	started    chan struct{}
	getGate    chan struct{}
	getStarted chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls:    map[string]int{},
		issues:   []model.Issue{{Number: 1, Title: "A"}, {Number: 2, Title: "B"}},
		comments: map[int][]model.Comment{},
		errs:     map[string]error{},
		limits:   model.RateLimitSnapshot{Limit: 5000, Remaining: 4000},
	}
}

func (f *fakeAPI) hit(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.errs[op]
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) setErr(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[op] = err
}

func wait(gate, started chan struct{}) {
	if gate == nil {
		return
	}
	select {
	case started <- struct{}{}:
	default:
	}
	<-gate
}

// ListIssues reads its page before blocking on the gate, like a response
// already on the wire.
func (f *fakeAPI) ListIssues(_ context.Context, _, _ string, q ghclient.IssueQuery) ([]model.Issue, error) {
	f.mu.Lock()
	out := append([]model.Issue{}, f.issues...)
	if page, ok := f.pages[q.Page]; ok {
		out = append([]model.Issue{}, page...)
	}
	f.mu.Unlock()

	wait(f.gate, f.started)
	if err := f.hit("list"); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeAPI) GetIssue(_ context.Context, _, _ string, number int) (model.Issue, error) {
	wait(f.getGate, f.getStarted)
	if err := f.hit("get"); err != nil {
		return model.Issue{}, err
	}
	return model.Issue{Number: number, Title: "detail"}, nil
}

func (f *fakeAPI) ListComments(_ context.Context, _, _ string, number int) ([]model.Comment, error) {
	if err := f.hit("comments"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Comment{}, f.comments[number]...), nil
}

func (f *fakeAPI) CreateIssue(_ context.Context, _, _, title, body string) (model.Issue, error) {
	if err := f.hit("create"); err != nil {
		return model.Issue{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	issue := model.Issue{Number: 99, Title: title, Body: body, State: "open"}
	f.issues = append([]model.Issue{issue}, f.issues...)
	return issue, nil
}

func (f *fakeAPI) CreateComment(_ context.Context, _, _ string, number int, body string) (model.Comment, error) {
	if err := f.hit("comment"); err != nil {
		return model.Comment{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	comment := model.Comment{ID: int64(len(f.comments[number]) + 1), Body: body}
	f.comments[number] = append(f.comments[number], comment)
	return comment, nil
}

func (f *fakeAPI) SearchIssues(_ context.Context, _ string, _ int) ([]model.Issue, error) {
	if err := f.hit("search"); err != nil {
		return nil, err
	}
	return []model.Issue{{Number: 7, Title: "found"}}, nil
}

func (f *fakeAPI) RateLimits(_ context.Context) (model.RateLimitSnapshot, error) {
	if err := f.hit("limits"); err != nil {
		return model.RateLimitSnapshot{}, err
	}
	return f.limits, nil
}

func (f *fakeAPI) HasToken() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

type status struct {
	message  string
	severity Severity
}

// fakeView records effects and answers prompts from canned values.
type fakeView struct {
	mu        sync.Mutex
	lists     []session.State
	details   []model.Issue
	statuses  []status
	limits    []model.RateLimitSnapshot
	token     string
	texts     []string
	confirm   bool
	tokenAsks int
}

func (v *fakeView) RenderList(state session.State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lists = append(v.lists, state)
}

func (v *fakeView) RenderDetails(issue model.Issue, _ []model.Comment) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.details = append(v.details, issue)
}

func (v *fakeView) RenderStatus(message string, severity Severity) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses = append(v.statuses, status{message, severity})
}

func (v *fakeView) RenderRateLimits(snapshot model.RateLimitSnapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.limits = append(v.limits, snapshot)
}

func (v *fakeView) PromptForToken(context.Context) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tokenAsks++
	return v.token, v.token != ""
}

func (v *fakeView) PromptForText(context.Context, string, bool) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.texts) == 0 {
		return "", false
	}
	t := v.texts[0]
	v.texts = v.texts[1:]
	return t, true
}

func (v *fakeView) PromptForConfirmation(context.Context, string) bool {
	return v.confirm
}

func (v *fakeView) lastStatus() status {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.statuses) == 0 {
		return status{}
	}
	return v.statuses[len(v.statuses)-1]
}

func newTestController(api *fakeAPI, view *fakeView, opts ...Option) *Controller {
	svc := service.New(api, cache.New(time.Minute))
	return New(svc, view, session.New("o", "r", 30), opts...)
}

func tokenAuth(api *fakeAPI) Option {
	return WithAuthenticator(func(_ context.Context, token string) error {
		api.mu.Lock()
		defer api.mu.Unlock()
		api.token = token != ""
		return nil
	})
}

func TestRefreshSelectsFirstItem(t *testing.T) {
	api := newFakeAPI()
	view := &fakeView{}
	c := newTestController(api, view)

	require.NoError(t, c.Refresh(context.Background()))

	st := c.State()
	require.Len(t, st.Items, 2)
	assert.Equal(t, 0, st.SelectedIndex)
	require.NotNil(t, st.SelectedIssue)
	assert.Equal(t, 1, st.SelectedIssue.Number)
	assert.False(t, st.Loading)
	assert.Len(t, view.lists, 1)
	assert.Equal(t, SeverityInfo, view.lastStatus().severity)
}

func TestRefreshEmptyClearsSelection(t *testing.T) {
	api := newFakeAPI()
	api.issues = nil
	c := newTestController(api, &fakeView{})

	require.NoError(t, c.Refresh(context.Background()))

	st := c.State()
	assert.Empty(t, st.Items)
	assert.Equal(t, -1, st.SelectedIndex)
	assert.Nil(t, st.SelectedIssue)
}

func TestRefreshUsesCache(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &fakeView{})

	require.NoError(t, c.Refresh(context.Background()))
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 1, api.count("list"))

	require.NoError(t, c.HardRefresh(context.Background()))
	assert.Equal(t, 2, api.count("list"))
}

func TestDuplicateRefreshIsDropped(t *testing.T) {
	api := newFakeAPI()
	api.gate = make(chan struct{})
	api.started = make(chan struct{}, 1)
	c := newTestController(api, &fakeView{})

	done := make(chan error, 1)
	go func() {
		done <- c.Refresh(context.Background())
	}()
	<-api.started

	assert.True(t, c.InFlight(ClassList))
	assert.True(t, c.State().Loading)
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrInFlight)
	assert.ErrorIs(t, c.NextPage(context.Background()), ErrInFlight)
	assert.Equal(t, 1, c.State().Page, "dropped transitions leave state alone")

	close(api.gate)
	require.NoError(t, <-done)

	assert.Equal(t, 1, api.count("list"))
	assert.False(t, c.InFlight(ClassList))
	assert.False(t, c.State().Loading)
}

func TestOtherClassesRunWhileListInFlight(t *testing.T) {
	api := newFakeAPI()
	api.gate = make(chan struct{})
	api.started = make(chan struct{}, 1)
	c := newTestController(api, &fakeView{})

	done := make(chan error, 1)
	go func() {
		done <- c.Refresh(context.Background())
	}()
	<-api.started

	require.NoError(t, c.CheckRateLimits(context.Background()))
	require.NoError(t, c.ViewDetails(context.Background(), 1))

	close(api.gate)
	require.NoError(t, <-done)
}

func TestRateLimitedRefreshKeepsItems(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &fakeView{})
	require.NoError(t, c.Refresh(context.Background()))

	api.setErr("list", &ghclient.Error{Kind: ghclient.KindRateLimited, Status: 403})
	err := c.NextPage(context.Background())
	require.Error(t, err)

	st := c.State()
	require.NotNil(t, st.Error)
	assert.Equal(t, ghclient.KindRateLimited, st.Error.Kind)
	assert.True(t, st.NeedsAuth)
	assert.False(t, st.Loading)
	assert.Len(t, st.Items, 2)
	assert.Equal(t, 1, st.SelectedIssue.Number)
}

func TestNeedsAuthPromptsBeforeNextAttempt(t *testing.T) {
	api := newFakeAPI()
	view := &fakeView{token: "tok"}
	c := newTestController(api, view, tokenAuth(api))

	api.setErr("list", &ghclient.Error{Kind: ghclient.KindRateLimited})
	require.Error(t, c.Refresh(context.Background()))
	assert.True(t, c.State().NeedsAuth)

	api.setErr("list", nil)
	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, 1, view.tokenAsks)
	assert.True(t, api.HasToken())
	st := c.State()
	assert.False(t, st.NeedsAuth)
	assert.Nil(t, st.Error, "a successful list clears the list error")
}

func TestViewDetailsNotFoundKeepsState(t *testing.T) {
	api := newFakeAPI()
	view := &fakeView{}
	c := newTestController(api, view)
	require.NoError(t, c.Refresh(context.Background()))

	api.setErr("get", &ghclient.Error{Kind: ghclient.KindNotFound, Status: 404})
	err := c.ViewDetails(context.Background(), 404)
	require.Error(t, err)

	st := c.State()
	assert.Equal(t, []model.Issue{{Number: 1, Title: "A"}, {Number: 2, Title: "B"}}, st.Items)
	require.NotNil(t, st.Error)
	assert.Equal(t, ghclient.KindNotFound, st.Error.Kind)
	assert.False(t, st.Loading)
	assert.Equal(t, 1, st.SelectedIssue.Number)
	assert.Empty(t, view.details)
	assert.Equal(t, SeverityError, view.lastStatus().severity)
}

func TestViewDetailsSetsIssueAndComments(t *testing.T) {
	api := newFakeAPI()
	api.comments[2] = []model.Comment{{ID: 1, Body: "first"}}
	view := &fakeView{}
	c := newTestController(api, view)
	require.NoError(t, c.Refresh(context.Background()))

	require.NoError(t, c.ViewDetails(context.Background(), 2))

	st := c.State()
	assert.Equal(t, 1, st.SelectedIndex)
	assert.Equal(t, "detail", st.SelectedIssue.Title)
	assert.Len(t, st.Comments, 1)
	require.Len(t, view.details, 1)
	assert.Equal(t, 2, view.details[0].Number)
}

func TestViewSelectedWithoutSelection(t *testing.T) {
	view := &fakeView{}
	c := newTestController(newFakeAPI(), view)

	require.NoError(t, c.ViewSelected(context.Background()))
	assert.Equal(t, SeverityWarning, view.lastStatus().severity)
}

func TestCreateIssueWithoutTokenNeverCallsNetwork(t *testing.T) {
	api := newFakeAPI()
	view := &fakeView{}
	c := newTestController(api, view, tokenAuth(api))

	_, err := c.CreateIssue(context.Background(), "Bug", "repro steps")
	require.Error(t, err)

	assert.True(t, ghclient.IsKind(err, ghclient.KindAuthRequired))
	assert.Equal(t, 1, view.tokenAsks)
	assert.Equal(t, 0, api.count("create"))
	assert.False(t, c.State().Loading)
}

func TestCreateIssueRefreshesList(t *testing.T) {
	api := newFakeAPI()
	api.token = true
	c := newTestController(api, &fakeView{})
	require.NoError(t, c.Refresh(context.Background()))

	issue, err := c.CreateIssue(context.Background(), "Bug", "repro steps")
	require.NoError(t, err)
	assert.Equal(t, 99, issue.Number)

	assert.Equal(t, 2, api.count("list"), "cached list was invalidated")
	st := c.State()
	require.Len(t, st.Items, 3)
	assert.Equal(t, 99, st.Items[0].Number)
}

func TestCreateIssueFailureLeavesItems(t *testing.T) {
	api := newFakeAPI()
	api.token = true
	c := newTestController(api, &fakeView{})
	require.NoError(t, c.Refresh(context.Background()))

	api.setErr("create", &ghclient.Error{Kind: ghclient.KindAuthFailed, Status: 401})
	_, err := c.CreateIssue(context.Background(), "Bug", "")
	require.Error(t, err)

	st := c.State()
	assert.Len(t, st.Items, 2)
	assert.Equal(t, ghclient.KindAuthFailed, st.Error.Kind)
	assert.Equal(t, 1, api.count("list"))
}

func TestCreateIssueRequiresTitle(t *testing.T) {
	api := newFakeAPI()
	api.token = true
	c := newTestController(api, &fakeView{})

	_, err := c.CreateIssue(context.Background(), "   ", "body")
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Equal(t, 0, api.count("create"))
}

func TestCreateCommentReloadsDetails(t *testing.T) {
	api := newFakeAPI()
	api.token = true
	view := &fakeView{}
	c := newTestController(api, view)

	require.NoError(t, c.ViewDetails(context.Background(), 1))
	_, err := c.CreateComment(context.Background(), 1, "thanks")
	require.NoError(t, err)

	assert.Equal(t, 2, api.count("comments"), "comment cache was invalidated")
	st := c.State()
	require.Len(t, st.Comments, 1)
	assert.Equal(t, "thanks", st.Comments[0].Body)
	assert.Equal(t, 1, st.Detail.Number)
	assert.Equal(t, 1, st.Target().Number)
	assert.Len(t, view.details, 2)
}

func TestPromptCreateIssue(t *testing.T) {
	api := newFakeAPI()
	view := &fakeView{token: "tok", texts: []string{"Bug", "repro steps"}, confirm: true}
	c := newTestController(api, view, tokenAuth(api))

	require.NoError(t, c.PromptCreateIssue(context.Background()))

	assert.Equal(t, 1, api.count("create"))
	assert.Equal(t, "tok", c.State().AuthToken)
}

func TestPromptCreateIssueDeclined(t *testing.T) {
	api := newFakeAPI()
	api.token = true
	view := &fakeView{texts: []string{"Bug", "body"}, confirm: false}
	c := newTestController(api, view)

	require.NoError(t, c.PromptCreateIssue(context.Background()))
	assert.Equal(t, 0, api.count("create"))
	assert.Equal(t, "Issue creation cancelled", view.lastStatus().message)
}

func TestPromptCommentNeedsSelection(t *testing.T) {
	api := newFakeAPI()
	api.token = true
	view := &fakeView{}
	c := newTestController(api, view)

	require.NoError(t, c.PromptComment(context.Background()))
	assert.Equal(t, SeverityWarning, view.lastStatus().severity)
	assert.Equal(t, 0, api.count("comment"))
}

func TestPromptComment(t *testing.T) {
	api := newFakeAPI()
	api.token = true
	view := &fakeView{texts: []string{"looks good"}, confirm: true}
	c := newTestController(api, view)
	require.NoError(t, c.Refresh(context.Background()))

	require.NoError(t, c.PromptComment(context.Background()))
	assert.Equal(t, 1, api.count("comment"))
	assert.Len(t, api.comments[1], 1)
}

func TestCheckRateLimits(t *testing.T) {
	tests := []struct {
		name     string
		limits   model.RateLimitSnapshot
		severity Severity
	}{
		{name: "plenty", limits: model.RateLimitSnapshot{Limit: 5000, Remaining: 4000}, severity: SeverityInfo},
		{name: "below ten percent", limits: model.RateLimitSnapshot{Limit: 5000, Remaining: 400}, severity: SeverityWarning},
		{name: "anonymous nearly out", limits: model.RateLimitSnapshot{Limit: 60, Remaining: 5}, severity: SeverityWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.limits = tt.limits
			view := &fakeView{}
			c := newTestController(api, view)

			require.NoError(t, c.CheckRateLimits(context.Background()))
			require.NoError(t, c.CheckRateLimits(context.Background()))

			assert.Equal(t, 2, api.count("limits"), "never cached")
			assert.Len(t, view.limits, 2)
			assert.Equal(t, tt.severity, view.lastStatus().severity)
			assert.Nil(t, c.State().Error)
		})
	}
}

func TestPrevPageOnFirstPageIsNoop(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &fakeView{})

	require.NoError(t, c.PrevPage(context.Background()))
	assert.Equal(t, 0, api.count("list"))
	assert.Equal(t, 1, c.State().Page)

	require.NoError(t, c.NextPage(context.Background()))
	assert.Equal(t, 2, c.State().Page)
	require.NoError(t, c.PrevPage(context.Background()))
	assert.Equal(t, 1, c.State().Page)
}

func TestSearchAndFilter(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &fakeView{})

	require.NoError(t, c.Search(context.Background(), "  crash "))
	st := c.State()
	assert.Equal(t, "crash", st.SearchTerm)
	assert.Equal(t, 7, st.SelectedIssue.Number)
	assert.Equal(t, 1, api.count("search"))

	require.NoError(t, c.SetFilter(context.Background(), model.StateClosed))
	st = c.State()
	assert.Equal(t, "", st.SearchTerm)
	assert.Equal(t, model.StateClosed, st.Filter)
	assert.Equal(t, 1, api.count("list"))

	require.NoError(t, c.Search(context.Background(), "crash"))
	require.NoError(t, c.ResetView(context.Background()))
	assert.Equal(t, "", c.State().SearchTerm)
}

func TestSearchErrorIsRecordedAgainstSearch(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &fakeView{})

	api.setErr("search", errors.New("boom"))
	require.Error(t, c.Search(context.Background(), "x"))

	st := c.State()
	assert.Equal(t, string(ClassSearch), st.Error.Action)
	assert.Equal(t, ghclient.KindUnknown, st.Error.Kind)
	assert.False(t, st.Loading)
}

func TestSetTokenWithoutAuthenticator(t *testing.T) {
	c := newTestController(newFakeAPI(), &fakeView{})
	assert.Error(t, c.SetToken(context.Background(), "tok"))
	assert.Error(t, c.SetToken(context.Background(), " "))
}

func gateList(api *fakeAPI) {
	api.gate = make(chan struct{})
	api.started = make(chan struct{}, 1)
}

func gateGet(api *fakeAPI) {
	api.getGate = make(chan struct{})
	api.getStarted = make(chan struct{}, 1)
}

func TestDetailsFinishingAfterListChangeAreDropped(t *testing.T) {
	api := newFakeAPI()
	api.token = true
	api.pages = map[int][]model.Issue{2: {{Number: 30, Title: "X"}, {Number: 31, Title: "Y"}}}
	view := &fakeView{texts: []string{"on the highlighted row"}, confirm: true}
	c := newTestController(api, view)
	ctx := context.Background()

	require.NoError(t, c.Refresh(ctx))
	require.True(t, c.Select(1))

	gateGet(api)
	done := make(chan error, 1)
	go func() {
		done <- c.ViewDetails(ctx, 2)
	}()
	<-api.getStarted

	require.NoError(t, c.NextPage(ctx))
	close(api.getGate)
	require.NoError(t, <-done)

	st := c.State()
	assert.Equal(t, []int{30, 31}, []int{st.Items[0].Number, st.Items[1].Number})
	assert.Equal(t, 0, st.SelectedIndex)
	require.NotNil(t, st.SelectedIssue)
	assert.Equal(t, 30, st.SelectedIssue.Number)
	assert.Nil(t, st.Detail)
	assert.Empty(t, view.details)
	assert.False(t, st.Loading)

	require.NoError(t, c.PromptComment(ctx))
	assert.Len(t, api.comments[30], 1)
	assert.Empty(t, api.comments[2])
}

func TestDetailsFinishingBeforeListChange(t *testing.T) {
	api := newFakeAPI()
	api.pages = map[int][]model.Issue{2: {{Number: 30}, {Number: 31}}}
	view := &fakeView{}
	c := newTestController(api, view)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))

	gateList(api)
	done := make(chan error, 1)
	go func() {
		done <- c.NextPage(ctx)
	}()
	<-api.started

	require.NoError(t, c.ViewDetails(ctx, 2))
	st := c.State()
	assert.Equal(t, 1, st.SelectedIndex)
	assert.Equal(t, 2, st.Detail.Number)

	close(api.gate)
	require.NoError(t, <-done)

	st = c.State()
	assert.Equal(t, 0, st.SelectedIndex)
	assert.Equal(t, 30, st.SelectedIssue.Number)
	assert.Nil(t, st.Detail, "a new list drops the old details")
	assert.Len(t, view.details, 1)
}

func TestCreateWhileListLoadingShowsNewIssue(t *testing.T) {
	api := newFakeAPI()
	api.token = true
	gateList(api)
	c := newTestController(api, &fakeView{})
	ctx := context.Background()

	listed := make(chan error, 1)
	go func() {
		listed <- c.Refresh(ctx)
	}()
	<-api.started

	created := make(chan model.Issue, 1)
	go func() {
		issue, err := c.CreateIssue(ctx, "Bug", "repro steps")
		assert.NoError(t, err)
		created <- issue
	}()
	require.Eventually(t, func() bool { return api.count("create") == 1 }, time.Second, time.Millisecond)

	close(api.gate)
	require.NoError(t, <-listed)
	issue := <-created
	assert.Equal(t, 99, issue.Number)

	st := c.State()
	require.Len(t, st.Items, 3)
	assert.Equal(t, 99, st.Items[0].Number)
	assert.Equal(t, 2, api.count("list"))

	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, 2, api.count("list"), "the page loaded after the create is cached")
	assert.Len(t, c.State().Items, 3)
}

func TestHardRefreshWhileListLoadingIsDropped(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &fakeView{})
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))

	gateList(api)
	done := make(chan error, 1)
	go func() {
		done <- c.NextPage(ctx)
	}()
	<-api.started

	assert.ErrorIs(t, c.HardRefresh(ctx), ErrInFlight)
	close(api.gate)
	require.NoError(t, <-done)

	require.NoError(t, c.PrevPage(ctx))
	assert.Equal(t, 2, api.count("list"), "page 1 is still cached")
}
