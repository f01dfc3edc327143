package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/spiffcs/ghissues/internal/controller"
	"github.com/spiffcs/ghissues/internal/log"
	"github.com/spiffcs/ghissues/internal/model"
	"github.com/spiffcs/ghissues/internal/output"
	"github.com/spiffcs/ghissues/internal/session"
)

// prompter asks the user for input on the terminal. Cancellation is
// reported as ok == false.
type prompter interface {
	Input(ctx context.Context, label string, secret bool) (string, bool)
	Text(ctx context.Context, label string) (string, bool)
	Confirm(ctx context.Context, label string) bool
}

// renders selects which controller effects a command prints.
type renders struct {
	lists   bool
	details bool
	limits  bool
}

// cliView implements controller.View for the line-oriented commands.
// Errors are not printed here; the command returns them.
type cliView struct {
	mu        sync.Mutex
	out       io.Writer
	errOut    io.Writer
	formatter output.Formatter
	since     time.Time
	renders   renders
	prompts   prompter
	err       error
}

var _ controller.View = (*cliView)(nil)

func newCLIView(out, errOut io.Writer, formatter output.Formatter, r renders) *cliView {
	return &cliView{
		out:       out,
		errOut:    errOut,
		formatter: formatter,
		renders:   r,
		prompts:   newHuhPrompter(),
	}
}

// Err returns the first error hit while writing output.
func (v *cliView) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

func (v *cliView) record(err error) {
	if err == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.err == nil {
		v.err = err
	}
}

func (v *cliView) RenderList(state session.State) {
	if !v.renders.lists {
		return
	}
	items := filterUpdatedSince(state.Items, v.since)
	repo := model.Repository{Owner: state.Owner, Name: state.Repo}
	v.record(v.formatter.FormatIssues(repo, items, v.out))
}

func (v *cliView) RenderDetails(issue model.Issue, comments []model.Comment) {
	if !v.renders.details {
		return
	}
	v.record(v.formatter.FormatIssue(issue, comments, v.out))
}

func (v *cliView) RenderStatus(message string, severity controller.Severity) {
	switch severity {
	case controller.SeveritySuccess:
		fmt.Fprintln(v.errOut, color.GreenString("✓ ")+message)
	case controller.SeverityWarning:
		fmt.Fprintln(v.errOut, color.YellowString("! ")+message)
	case controller.SeverityError:
		log.Debug("status", "severity", severity, "message", message)
	default:
		if log.IsInfo() {
			fmt.Fprintln(v.errOut, color.New(color.Faint).Sprint(message))
		}
	}
}

func (v *cliView) RenderRateLimits(snapshot model.RateLimitSnapshot) {
	if !v.renders.limits {
		return
	}
	v.record(v.formatter.FormatRateLimits(snapshot, v.out))
}

func (v *cliView) PromptForToken(ctx context.Context) (string, bool) {
	return v.prompts.Input(ctx, "GitHub token (used for this run only)", true)
}

func (v *cliView) PromptForText(ctx context.Context, label string, multiline bool) (string, bool) {
	if multiline {
		return v.prompts.Text(ctx, label)
	}
	return v.prompts.Input(ctx, label, false)
}

func (v *cliView) PromptForConfirmation(ctx context.Context, label string) bool {
	return v.prompts.Confirm(ctx, label)
}

// filterUpdatedSince keeps issues updated at or after since. A zero since
// keeps everything.
func filterUpdatedSince(items []model.Issue, since time.Time) []model.Issue {
	if since.IsZero() {
		return items
	}
	kept := make([]model.Issue, 0, len(items))
	for _, it := range items {
		if !it.UpdatedAt.Before(since) {
			kept = append(kept, it)
		}
	}
	return kept
}

// huhPrompter prompts with huh forms. Without a terminal on stdin every
// prompt is treated as cancelled.
type huhPrompter struct {
	interactive bool
}

func newHuhPrompter() *huhPrompter {
	return &huhPrompter{interactive: term.IsTerminal(int(os.Stdin.Fd()))}
}

func (p *huhPrompter) run(ctx context.Context, field huh.Field) bool {
	if !p.interactive {
		log.Debug("not a terminal, skipping prompt")
		return false
	}
	err := huh.NewForm(huh.NewGroup(field)).RunWithContext(ctx)
	if err != nil {
		if !errors.Is(err, huh.ErrUserAborted) {
			log.Debug("prompt failed", "error", err)
		}
		return false
	}
	return true
}

func (p *huhPrompter) Input(ctx context.Context, label string, secret bool) (string, bool) {
	var value string
	input := huh.NewInput().
		Title(label).
		Value(&value)
	if secret {
		input = input.EchoMode(huh.EchoModePassword)
	}
	if !p.run(ctx, input) {
		return "", false
	}
	return value, true
}

func (p *huhPrompter) Text(ctx context.Context, label string) (string, bool) {
	var value string
	text := huh.NewText().
		Title(label).
		Description("Markdown is supported").
		CharLimit(65536).
		Value(&value)
	if !p.run(ctx, text) {
		return "", false
	}
	return value, true
}

func (p *huhPrompter) Confirm(ctx context.Context, label string) bool {
	var ok bool
	confirm := huh.NewConfirm().
		Title(label).
		Affirmative("Yes").
		Negative("No").
		Value(&ok)
	if !p.run(ctx, confirm) {
		return false
	}
	return ok
}
