package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/spiffcs/ghissues/internal/controller"
	"github.com/spiffcs/ghissues/internal/model"
	"github.com/spiffcs/ghissues/internal/session"
)

// fakeActions records which controller actions the model dispatches.
type fakeActions struct {
	mu       sync.Mutex
	calls    []string
	selected []int
}

func (f *fakeActions) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeActions) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeActions) Refresh(context.Context) error     { return f.record("refresh") }
func (f *fakeActions) HardRefresh(context.Context) error { return f.record("hard-refresh") }
func (f *fakeActions) NextPage(context.Context) error    { return f.record("next") }
func (f *fakeActions) PrevPage(context.Context) error    { return f.record("prev") }
func (f *fakeActions) SetFilter(_ context.Context, s model.IssueState) error {
	return f.record("filter:" + string(s))
}
func (f *fakeActions) Search(_ context.Context, term string) error {
	return f.record("search:" + term)
}
func (f *fakeActions) ResetView(context.Context) error { return f.record("reset") }
func (f *fakeActions) Select(i int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = append(f.selected, i)
	return true
}
func (f *fakeActions) ViewSelected(context.Context) error      { return f.record("details") }
func (f *fakeActions) PromptCreateIssue(context.Context) error { return f.record("create") }
func (f *fakeActions) PromptComment(context.Context) error     { return f.record("comment") }
func (f *fakeActions) CheckRateLimits(context.Context) error   { return f.record("limits") }

func newTestModel(t *testing.T, opts ...Option) (Model, *fakeActions) {
	t.Helper()
	actions := &fakeActions{}
	m := NewModel(context.Background(), actions, make(chan Event), opts...)
	return m, actions
}

func makeIssue(n int, title string) model.Issue {
	return model.Issue{
		Number:    n,
		Title:     title,
		State:     "open",
		User:      model.User{Login: "octocat"},
		HTMLURL:   fmt.Sprintf("https://github.com/o/r/issues/%d", n),
		UpdatedAt: time.Now().Add(-time.Hour),
	}
}

func listState(items ...model.Issue) session.State {
	s := session.New("o", "r", 30)
	s.SetItems(items)
	return *s
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// update feeds msg to m and returns the new model and command.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

// dispatched runs a command returned for a dispatched action and feeds the
// completion back into the model.
func dispatched(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	msg := cmd()
	done, ok := msg.(actionDoneMsg)
	if !ok {
		t.Fatalf("expected actionDoneMsg, got %T", msg)
	}
	m, _ = update(t, m, done)
	return m
}

func TestKeysDispatchActions(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want string
	}{
		{runes("1"), "filter:open"},
		{runes("2"), "filter:closed"},
		{runes("4"), "create"},
		{runes("5"), "limits"},
		{runes("r"), "refresh"},
		{runes("R"), "hard-refresh"},
		{runes("n"), "next"},
		{tea.KeyMsg{Type: tea.KeyRight}, "next"},
		{runes("p"), "prev"},
		{tea.KeyMsg{Type: tea.KeyLeft}, "prev"},
		{runes("c"), "comment"},
		{tea.KeyMsg{Type: tea.KeyEsc}, "reset"},
	}

	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			m, actions := newTestModel(t)
			m, cmd := update(t, m, tt.key)
			if m.pending != 2 {
				t.Errorf("pending = %d, want 2 while the action runs", m.pending)
			}
			m = dispatched(t, m, cmd)

			calls := actions.called()
			if len(calls) != 1 || calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", calls, tt.want)
			}
			if m.pending != 1 {
				t.Errorf("pending = %d after completion, want 1", m.pending)
			}
		})
	}
}

func TestTabKeysSwitchTabs(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, runes("2"))
	if m.tab != TabClosed {
		t.Errorf("tab = %v, want TabClosed", m.tab)
	}
	m, _ = update(t, m, runes("5"))
	if m.tab != TabLimits || m.focus != PaneDetails {
		t.Errorf("tab = %v focus = %v, want limits tab with details focused", m.tab, m.focus)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.tab != TabOpen || m.focus != PaneList {
		t.Errorf("esc should return to the open tab with the list focused")
	}
}

func TestTabTogglesFocus(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != PaneDetails {
		t.Fatalf("focus = %v, want PaneDetails", m.focus)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != PaneList {
		t.Fatalf("focus = %v, want PaneList", m.focus)
	}
}

func TestSearchPromptDispatchesSearch(t *testing.T) {
	m, actions := newTestModel(t)

	m, _ = update(t, m, runes("/"))
	if len(m.prompts) != 1 || m.prompts[0].kind != PromptText {
		t.Fatalf("expected a text prompt, got %d prompts", len(m.prompts))
	}

	m, _ = update(t, m, runes("crash"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.prompts) != 0 {
		t.Fatalf("prompt should be closed after enter")
	}
	m = dispatched(t, m, cmd)

	calls := actions.called()
	if len(calls) != 1 || calls[0] != "search:crash" {
		t.Errorf("calls = %v, want [search:crash]", calls)
	}
	if m.pending != 1 {
		t.Errorf("pending = %d, want 1", m.pending)
	}
}

func TestSearchPromptBlankIsIgnored(t *testing.T) {
	m, actions := newTestModel(t)

	m, _ = update(t, m, runes("3"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Errorf("blank search should not dispatch")
	}
	if len(actions.called()) != 0 {
		t.Errorf("calls = %v, want none", actions.called())
	}
	if m.pending != 1 {
		t.Errorf("pending = %d, want 1", m.pending)
	}
}

func TestPromptEventConfirm(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want bool
	}{
		{"yes", runes("y"), true},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, true},
		{"no", runes("n"), false},
		{"esc", tea.KeyMsg{Type: tea.KeyEsc}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, actions := newTestModel(t)
			reply := make(chan PromptReply, 1)

			m, _ = update(t, m, PromptEvent{Kind: PromptConfirm, Label: "Create?", Reply: reply})
			m, _ = update(t, m, tt.key)

			select {
			case r := <-reply:
				if r.OK != tt.want {
					t.Errorf("OK = %v, want %v", r.OK, tt.want)
				}
			default:
				t.Fatal("prompt was not answered")
			}
			if len(m.prompts) != 0 {
				t.Errorf("prompt should be closed")
			}
			if len(actions.called()) != 0 {
				t.Errorf("keys answering a prompt must not dispatch actions, got %v", actions.called())
			}
		})
	}
}

func TestPromptEventConfirmIgnoresOtherKeys(t *testing.T) {
	m, _ := newTestModel(t)
	reply := make(chan PromptReply, 1)

	m, _ = update(t, m, PromptEvent{Kind: PromptConfirm, Label: "Create?", Reply: reply})
	m, _ = update(t, m, runes("x"))

	if len(m.prompts) != 1 {
		t.Fatalf("prompt should still be open")
	}
	select {
	case r := <-reply:
		t.Fatalf("unexpected reply %+v", r)
	default:
	}
}

func TestPromptEventMultiline(t *testing.T) {
	m, _ := newTestModel(t)
	reply := make(chan PromptReply, 1)

	m, _ = update(t, m, PromptEvent{Kind: PromptMultiline, Label: "Comment", Reply: reply})
	m, _ = update(t, m, runes("looks good"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	r := <-reply
	if !r.OK || r.Value != "looks good" {
		t.Errorf("reply = %+v, want looks good", r)
	}
}

func TestPromptEventSecretMasksInput(t *testing.T) {
	m, _ := newTestModel(t)
	reply := make(chan PromptReply, 1)

	m, _ = update(t, m, PromptEvent{Kind: PromptSecret, Label: "Token", Reply: reply})
	m, _ = update(t, m, runes("ghp_secret"))

	if strings.Contains(m.View(), "ghp_secret") {
		t.Errorf("secret input should not be shown in clear text")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	r := <-reply
	if !r.OK || r.Value != "ghp_secret" {
		t.Errorf("reply = %+v, want the typed token", r)
	}
}

func TestPromptsQueue(t *testing.T) {
	m, _ := newTestModel(t)
	first := make(chan PromptReply, 1)
	second := make(chan PromptReply, 1)

	m, _ = update(t, m, PromptEvent{Kind: PromptConfirm, Label: "first", Reply: first})
	m, _ = update(t, m, PromptEvent{Kind: PromptConfirm, Label: "second", Reply: second})
	if len(m.prompts) != 2 {
		t.Fatalf("prompts = %d, want 2", len(m.prompts))
	}

	m, _ = update(t, m, runes("y"))
	if r := <-first; !r.OK {
		t.Errorf("first prompt should be confirmed")
	}
	if len(m.prompts) != 1 || m.prompts[0].label != "second" {
		t.Fatalf("second prompt should now be active")
	}

	m, _ = update(t, m, runes("n"))
	if r := <-second; r.OK {
		t.Errorf("second prompt should be declined")
	}
}

func TestCtrlCInPromptCancelsAndQuits(t *testing.T) {
	m, _ := newTestModel(t)
	reply := make(chan PromptReply, 1)

	m, _ = update(t, m, PromptEvent{Kind: PromptText, Label: "Title", Reply: reply})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	if r := <-reply; r.OK {
		t.Errorf("ctrl+c should cancel the prompt")
	}
	if !m.quitting || cmd == nil {
		t.Errorf("ctrl+c should quit")
	}
}

func TestListEventAppliesState(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, ListEvent{State: listState(makeIssue(1, "one"), makeIssue(2, "two"))})
	if len(m.state.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(m.state.Items))
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	if m.tab != TabOpen {
		t.Errorf("tab = %v, want TabOpen", m.tab)
	}

	search := listState(makeIssue(3, "three"))
	search.SearchTerm = "three"
	m, _ = update(t, m, ListEvent{State: search})
	if m.tab != TabSearch {
		t.Errorf("tab = %v, want TabSearch", m.tab)
	}

	closed := listState()
	closed.Filter = model.StateClosed
	m, _ = update(t, m, ListEvent{State: closed})
	if m.tab != TabClosed {
		t.Errorf("tab = %v, want TabClosed", m.tab)
	}
	if m.cursor != -1 {
		t.Errorf("cursor = %d, want -1 for an empty list", m.cursor)
	}
}

func TestListEventDropsStaleDetails(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, ListEvent{State: listState(makeIssue(1, "one"))})
	m, _ = update(t, m, DetailsEvent{Issue: makeIssue(1, "one")})
	if m.issue == nil {
		t.Fatal("details should be loaded")
	}

	m, _ = update(t, m, ListEvent{State: listState(makeIssue(2, "two"))})
	if m.issue != nil {
		t.Errorf("details for an issue no longer listed should be dropped")
	}
}

func TestCursorMovementSelects(t *testing.T) {
	m, actions := newTestModel(t)
	m, _ = update(t, m, ListEvent{State: listState(makeIssue(1, "a"), makeIssue(2, "b"), makeIssue(3, "c"))})

	m, _ = update(t, m, runes("j"))
	m, _ = update(t, m, runes("j"))
	m, _ = update(t, m, runes("j"))
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2 (clamped)", m.cursor)
	}
	m, _ = update(t, m, runes("g"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	m, _ = update(t, m, runes("G"))
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.cursor)
	}

	want := []int{1, 2, 0, 2}
	if fmt.Sprint(actions.selected) != fmt.Sprint(want) {
		t.Errorf("selected = %v, want %v", actions.selected, want)
	}
}

func TestCursorKeysIgnoredWhenDetailsFocused(t *testing.T) {
	m, actions := newTestModel(t)
	m, _ = update(t, m, ListEvent{State: listState(makeIssue(1, "a"), makeIssue(2, "b"))})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	m, _ = update(t, m, runes("j"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	if len(actions.selected) != 0 {
		t.Errorf("Select should not be called, got %v", actions.selected)
	}
}

func TestEnterRequiresSelection(t *testing.T) {
	m, actions := newTestModel(t)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Errorf("enter without a selection should do nothing")
	}

	m, _ = update(t, m, ListEvent{State: listState(makeIssue(1, "a"))})
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = dispatched(t, m, cmd)
	if calls := actions.called(); len(calls) != 1 || calls[0] != "details" {
		t.Errorf("calls = %v, want [details]", calls)
	}
	if m.focus != PaneDetails {
		t.Errorf("enter should focus the details pane")
	}
}

func TestStatusClearsOnlyLatest(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, StatusEvent{Message: "first", Severity: controller.SeverityInfo})
	firstID := m.statusID
	m, _ = update(t, m, StatusEvent{Message: "second", Severity: controller.SeverityError})

	m, _ = update(t, m, clearStatusMsg{id: firstID})
	if m.status != "second" {
		t.Errorf("status = %q, a stale clear must not remove a newer message", m.status)
	}
	m, _ = update(t, m, clearStatusMsg{id: m.statusID})
	if m.status != "" {
		t.Errorf("status = %q, want cleared", m.status)
	}
}

func TestSetStatusSchedulesClear(t *testing.T) {
	m, _ := newTestModel(t)

	if cmd := m.setStatus("done", controller.SeveritySuccess); cmd == nil {
		t.Errorf("success messages should clear themselves")
	}
	if cmd := m.setStatus("broken", controller.SeverityError); cmd != nil {
		t.Errorf("error messages should stay until replaced")
	}
}

func TestRateLimitEventShowsLimits(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, runes("5"))

	snap := model.RateLimitSnapshot{
		Limit:     60,
		Remaining: 42,
		Resources: map[string]model.ResourceLimit{
			"core": {Limit: 60, Remaining: 42, ResetAt: time.Now().Add(30 * time.Minute)},
		},
	}
	m, _ = update(t, m, RateLimitEvent{Snapshot: snap})

	content := m.detailsContent(80)
	if !strings.Contains(content, "core") || !strings.Contains(content, "42") {
		t.Errorf("limits panel missing quota:\n%s", content)
	}
	if !strings.Contains(content, "GITHUB_TOKEN") {
		t.Errorf("unauthenticated limits should suggest a token")
	}
}

func TestOpenInBrowser(t *testing.T) {
	var opened string
	m, _ := newTestModel(t, WithURLOpener(func(url string) tea.Cmd {
		opened = url
		return nil
	}))

	m, _ = update(t, m, runes("o"))
	if opened != "" {
		t.Errorf("nothing should open without a selection")
	}
	if m.severity != controller.SeverityWarning {
		t.Errorf("severity = %v, want warning", m.severity)
	}

	m, _ = update(t, m, ListEvent{State: listState(makeIssue(7, "seven"))})
	_, _ = update(t, m, runes("o"))
	if opened != "https://github.com/o/r/issues/7" {
		t.Errorf("opened = %q", opened)
	}
}

func TestViewRendersList(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m, _ = update(t, m, ListEvent{State: listState(makeIssue(12, "Crash on start"))})

	out := m.View()
	for _, want := range []string{"1: Open", "5: Limits", "#12", "Crash on start", "o/r"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m, _ = update(t, m, runes("q"))
	if m.View() != "" {
		t.Errorf("view should be empty after quitting")
	}
}

func TestCalculateScrollWindow(t *testing.T) {
	tests := []struct {
		name                string
		cursor, total, view int
		wantStart, wantEnd  int
	}{
		{"fits", 2, 5, 10, 0, 5},
		{"top", 0, 50, 10, 0, 10},
		{"middle", 25, 50, 10, 20, 30},
		{"bottom", 49, 50, 10, 40, 50},
		{"empty", -1, 0, 10, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := calculateScrollWindow(tt.cursor, tt.total, tt.view)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("calculateScrollWindow(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.cursor, tt.total, tt.view, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}
