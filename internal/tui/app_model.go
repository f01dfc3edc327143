package tui

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/spiffcs/ghissues/internal/cache"
	"github.com/spiffcs/ghissues/internal/constants"
	"github.com/spiffcs/ghissues/internal/controller"
	"github.com/spiffcs/ghissues/internal/log"
	"github.com/spiffcs/ghissues/internal/model"
	"github.com/spiffcs/ghissues/internal/session"
)

// Tab is one of the numbered modes in the tab bar.
type Tab int

const (
	TabOpen Tab = iota
	TabClosed
	TabSearch
	TabCreate
	TabLimits
)

// Pane is the half of the screen that receives navigation keys.
type Pane int

const (
	PaneList Pane = iota
	PaneDetails
)

// actionDoneMsg reports that a controller action returned.
type actionDoneMsg struct {
	name string
	err  error
}

// clearStatusMsg clears the status line if it still shows message id.
type clearStatusMsg struct {
	id int
}

// activePrompt is a prompt on screen. submit is called exactly once.
type activePrompt struct {
	kind   PromptKind
	label  string
	submit func(*Model, PromptReply) tea.Cmd
}

// Option is a functional option for configuring a Model.
type Option func(*Model)

// WithCacheStats shows cache occupancy in the footer.
func WithCacheStats(stats func() (cache.Stats, bool)) Option {
	return func(m *Model) {
		m.cacheStats = stats
	}
}

// WithURLOpener replaces the browser launcher.
func WithURLOpener(open func(url string) tea.Cmd) Option {
	return func(m *Model) {
		m.openURL = open
	}
}

// Model is the Bubble Tea model for the issue browser.
type Model struct {
	ctx     context.Context
	actions Actions
	events  <-chan Event

	state    session.State
	cursor   int
	issue    *model.Issue
	comments []model.Comment
	limits   *model.RateLimitSnapshot

	tab   Tab
	focus Pane

	status   string
	severity controller.Severity
	statusID int
	pending  int

	prompts []activePrompt
	input   textinput.Model
	area    textarea.Model

	spinner spinner.Model
	details viewport.Model

	windowWidth  int
	windowHeight int
	quitting     bool

	cacheStats func() (cache.Stats, bool)
	openURL    func(url string) tea.Cmd
}

// NewModel creates the model. The first refresh is started by Init.
func NewModel(ctx context.Context, actions Actions, events <-chan Event, opts ...Option) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	in := textinput.New()
	in.CharLimit = 256

	area := textarea.New()
	area.ShowLineNumbers = false
	area.CharLimit = 65536

	m := Model{
		ctx:          ctx,
		actions:      actions,
		events:       events,
		cursor:       -1,
		pending:      1,
		spinner:      s,
		input:        in,
		area:         area,
		details:      viewport.New(40, 10),
		windowWidth:  80,
		windowHeight: 24,
		openURL:      openURL,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.resize()
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForEvent(m.events),
		m.run("refresh", m.actions.Refresh),
	)
}

// run wraps a controller action as a command.
func (m Model) run(name string, action func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{name: name, err: action(ctx)}
	}
}

// dispatch starts action and counts it as pending until it returns.
func (m *Model) dispatch(name string, action func(context.Context) error) tea.Cmd {
	m.pending++
	return m.run(name, action)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if len(m.prompts) > 0 {
			return m.handlePromptKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case actionDoneMsg:
		if m.pending > 0 {
			m.pending--
		}
		if msg.err != nil && !errors.Is(msg.err, controller.ErrInFlight) {
			log.Debug("action returned error", "action", msg.name, "error", msg.err)
		}
		return m, nil

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil

	case ListEvent:
		m.applyList(msg.State)
		return m, waitForEvent(m.events)

	case DetailsEvent:
		issue := msg.Issue
		m.issue = &issue
		m.comments = msg.Comments
		if i := m.indexOf(issue.Number); i >= 0 {
			m.cursor = i
		}
		m.refreshDetails(true)
		return m, waitForEvent(m.events)

	case StatusEvent:
		cmd := m.setStatus(msg.Message, msg.Severity)
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case RateLimitEvent:
		snap := msg.Snapshot
		m.limits = &snap
		m.refreshDetails(true)
		return m, waitForEvent(m.events)

	case PromptEvent:
		reply := msg.Reply
		cmd := m.pushPrompt(activePrompt{
			kind:  msg.Kind,
			label: msg.Label,
			submit: func(_ *Model, r PromptReply) tea.Cmd {
				reply <- r
				return nil
			},
		})
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case DoneEvent:
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		if m.focus == PaneList {
			m.focus = PaneDetails
		} else {
			m.focus = PaneList
		}
		return m, nil

	case "1":
		m.tab = TabOpen
		return m, m.dispatch("open", func(ctx context.Context) error {
			return m.actions.SetFilter(ctx, model.StateOpen)
		})

	case "2":
		m.tab = TabClosed
		return m, m.dispatch("closed", func(ctx context.Context) error {
			return m.actions.SetFilter(ctx, model.StateClosed)
		})

	case "3", "/":
		return m, m.pushPrompt(activePrompt{
			kind:  PromptText,
			label: "Search issues",
			submit: func(m *Model, r PromptReply) tea.Cmd {
				if !r.OK || strings.TrimSpace(r.Value) == "" {
					return nil
				}
				return m.dispatch("search", func(ctx context.Context) error {
					return m.actions.Search(ctx, r.Value)
				})
			},
		})

	case "4":
		m.tab = TabCreate
		return m, m.dispatch("create", m.actions.PromptCreateIssue)

	case "5":
		m.tab = TabLimits
		m.focus = PaneDetails
		return m, m.dispatch("limits", m.actions.CheckRateLimits)

	case "r":
		return m, m.dispatch("refresh", m.actions.Refresh)

	case "R":
		return m, m.dispatch("hard refresh", m.actions.HardRefresh)

	case "n", "right":
		return m, m.dispatch("next page", m.actions.NextPage)

	case "p", "left":
		return m, m.dispatch("previous page", m.actions.PrevPage)

	case "c":
		return m, m.dispatch("comment", m.actions.PromptComment)

	case "enter":
		if m.cursor < 0 {
			return m, nil
		}
		m.focus = PaneDetails
		if m.tab == TabLimits || m.tab == TabCreate {
			m.tab = m.filterTab()
		}
		return m, m.dispatch("details", m.actions.ViewSelected)

	case "o":
		return m.openInBrowser()

	case "esc":
		m.tab = TabOpen
		m.focus = PaneList
		m.issue = nil
		return m, m.dispatch("reset", m.actions.ResetView)
	}

	if m.focus == PaneDetails {
		var cmd tea.Cmd
		m.details, cmd = m.details.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "j", "down":
		m.moveCursor(m.cursor + 1)
	case "k", "up":
		m.moveCursor(m.cursor - 1)
	case "g", "home":
		m.moveCursor(0)
	case "G", "end":
		m.moveCursor(len(m.state.Items) - 1)
	}
	return m, nil
}

// handlePromptKey routes keys to the active prompt.
func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.prompts[0]
	key := msg.String()

	if key == "ctrl+c" {
		cmd := m.popPrompt(PromptReply{})
		m.quitting = true
		return m, tea.Batch(cmd, tea.Quit)
	}
	if key == "esc" {
		return m, m.popPrompt(PromptReply{})
	}

	switch p.kind {
	case PromptConfirm:
		switch key {
		case "y", "Y", "enter":
			return m, m.popPrompt(PromptReply{OK: true})
		case "n", "N":
			return m, m.popPrompt(PromptReply{})
		}
		return m, nil

	case PromptMultiline:
		if key == "ctrl+s" || key == "ctrl+d" {
			return m, m.popPrompt(PromptReply{Value: m.area.Value(), OK: true})
		}
		var cmd tea.Cmd
		m.area, cmd = m.area.Update(msg)
		return m, cmd

	default:
		if key == "enter" {
			return m, m.popPrompt(PromptReply{Value: m.input.Value(), OK: true})
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// pushPrompt queues p, showing it immediately when nothing else is asked.
func (m *Model) pushPrompt(p activePrompt) tea.Cmd {
	m.prompts = append(m.prompts, p)
	if len(m.prompts) == 1 {
		return m.activatePrompt()
	}
	return nil
}

// popPrompt answers the active prompt and shows the next one.
func (m *Model) popPrompt(r PromptReply) tea.Cmd {
	p := m.prompts[0]
	m.prompts = m.prompts[1:]
	cmd := p.submit(m, r)
	if len(m.prompts) > 0 {
		return tea.Batch(cmd, m.activatePrompt())
	}
	m.input.Blur()
	m.area.Blur()
	return cmd
}

func (m *Model) activatePrompt() tea.Cmd {
	p := m.prompts[0]
	switch p.kind {
	case PromptMultiline:
		m.area.Reset()
		m.area.Placeholder = p.label
		return m.area.Focus()
	case PromptConfirm:
		m.input.Blur()
		m.area.Blur()
		return nil
	default:
		m.input.Reset()
		m.input.Placeholder = p.label
		m.input.EchoMode = textinput.EchoNormal
		if p.kind == PromptSecret {
			m.input.EchoMode = textinput.EchoPassword
			m.input.EchoCharacter = '*'
		}
		return m.input.Focus()
	}
}

func (m *Model) applyList(state session.State) {
	m.state = state
	m.cursor = state.SelectedIndex
	if m.issue != nil && m.indexOf(m.issue.Number) < 0 {
		m.issue = nil
		m.comments = nil
	}
	switch {
	case state.Searching():
		m.tab = TabSearch
	case m.tab != TabCreate && m.tab != TabLimits:
		m.tab = m.filterTab()
	}
	m.refreshDetails(true)
}

func (m Model) filterTab() Tab {
	if m.state.Filter == model.StateClosed {
		return TabClosed
	}
	return TabOpen
}

func (m Model) indexOf(number int) int {
	for i, it := range m.state.Items {
		if it.Number == number {
			return i
		}
	}
	return -1
}

// moveCursor selects row i, clamped to the list.
func (m *Model) moveCursor(i int) {
	if len(m.state.Items) == 0 {
		return
	}
	i = max(0, min(i, len(m.state.Items)-1))
	if i == m.cursor {
		return
	}
	m.cursor = i
	m.actions.Select(i)
	if m.issue != nil && m.issue.Number != m.state.Items[i].Number {
		m.issue = nil
		m.comments = nil
	}
	m.refreshDetails(true)
}

// selectedIssue is the loaded issue, or the list row under the cursor.
func (m Model) selectedIssue() (model.Issue, bool) {
	if m.issue != nil {
		return *m.issue, true
	}
	if m.cursor >= 0 && m.cursor < len(m.state.Items) {
		return m.state.Items[m.cursor], true
	}
	return model.Issue{}, false
}

func (m *Model) setStatus(message string, severity controller.Severity) tea.Cmd {
	m.statusID++
	m.status = message
	m.severity = severity
	if severity == controller.SeverityInfo || severity == controller.SeveritySuccess {
		return clearStatusAfter(m.statusID, constants.StatusClearDelay)
	}
	return nil
}

// openInBrowser opens the selected issue in the default browser
func (m Model) openInBrowser() (tea.Model, tea.Cmd) {
	issue, ok := m.selectedIssue()
	if !ok || issue.HTMLURL == "" {
		cmd := m.setStatus("No URL available", controller.SeverityWarning)
		return m, cmd
	}
	return m, m.openURL(issue.HTMLURL)
}

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return renderApp(m)
}

// clearStatusAfter returns a command that clears status id after a delay
func clearStatusAfter(id int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

// openURL opens a URL in the default browser
func openURL(url string) tea.Cmd {
	return func() tea.Msg {
		var cmd *exec.Cmd

		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", url)
		case "linux":
			cmd = exec.Command("xdg-open", url)
		case "windows":
			cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
		default:
			return nil
		}

		_ = cmd.Start()
		return nil
	}
}
