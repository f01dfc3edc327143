package controller

import (
	"context"

	"github.com/spiffcs/ghissues/internal/model"
	"github.com/spiffcs/ghissues/internal/session"
)

// Severity classifies a status message.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityProgress
	SeveritySuccess
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityProgress:
		return "progress"
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// View is the set of UI effects the controller drives. Render calls are
// fire-and-forget; prompts block until the user answers or ctx is done.
// A false second return from a prompt means the user cancelled.
type View interface {
	RenderList(state session.State)
	RenderDetails(issue model.Issue, comments []model.Comment)
	RenderStatus(message string, severity Severity)
	RenderRateLimits(snapshot model.RateLimitSnapshot)
	PromptForToken(ctx context.Context) (string, bool)
	PromptForText(ctx context.Context, label string, multiline bool) (string, bool)
	PromptForConfirmation(ctx context.Context, label string) bool
}
