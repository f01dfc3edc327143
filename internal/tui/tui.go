// Package tui is the full-screen interactive issue browser. It renders what
// the controller reports and turns key presses into controller actions.
package tui

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/spiffcs/ghissues/internal/model"
)

// Actions is the controller surface the UI drives.
type Actions interface {
	Refresh(ctx context.Context) error
	HardRefresh(ctx context.Context) error
	NextPage(ctx context.Context) error
	PrevPage(ctx context.Context) error
	SetFilter(ctx context.Context, filter model.IssueState) error
	Search(ctx context.Context, term string) error
	ResetView(ctx context.Context) error
	Select(i int) bool
	ViewSelected(ctx context.Context) error
	PromptCreateIssue(ctx context.Context) error
	PromptComment(ctx context.Context) error
	CheckRateLimits(ctx context.Context) error
}

// Run starts the UI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, actions Actions, view *View, opts ...Option) error {
	defer view.Close()

	m := NewModel(ctx, actions, view.Events(), opts...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// ShouldUseTUI returns true if the TUI should be used based on environment.
func ShouldUseTUI() bool {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}

	ciVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"GITLAB_CI",
		"BUILDKITE",
	}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return false
		}
	}

	return true
}

// waitForEvent creates a command that waits for the next event.
func waitForEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return DoneEvent{}
		}
		return event
	}
}
