package tui

import (
	"context"
	"sync"

	"github.com/spiffcs/ghissues/internal/controller"
	"github.com/spiffcs/ghissues/internal/model"
	"github.com/spiffcs/ghissues/internal/session"
)

// View implements controller.View by forwarding effects to the running
// program as events. Renders block until the program takes them or the
// program stops; prompts block until the user answers.
type View struct {
	events chan Event
	done   chan struct{}
	once   sync.Once
}

// Ensure View implements controller.View interface.
var _ controller.View = (*View)(nil)

// NewView creates a View with a buffered event channel.
func NewView(buffer int) *View {
	return &View{
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
}

// Events returns the channel the program reads from.
func (v *View) Events() <-chan Event {
	return v.events
}

// Close unblocks pending renders and prompts once the program has exited.
func (v *View) Close() {
	v.once.Do(func() { close(v.done) })
}

func (v *View) send(e Event) bool {
	select {
	case v.events <- e:
		return true
	case <-v.done:
		return false
	}
}

func (v *View) RenderList(state session.State) {
	v.send(ListEvent{State: state})
}

func (v *View) RenderDetails(issue model.Issue, comments []model.Comment) {
	v.send(DetailsEvent{Issue: issue, Comments: comments})
}

func (v *View) RenderStatus(message string, severity controller.Severity) {
	v.send(StatusEvent{Message: message, Severity: severity})
}

func (v *View) RenderRateLimits(snapshot model.RateLimitSnapshot) {
	v.send(RateLimitEvent{Snapshot: snapshot})
}

func (v *View) PromptForToken(ctx context.Context) (string, bool) {
	r := v.prompt(ctx, PromptSecret, "GitHub token (used for this session only)")
	return r.Value, r.OK
}

func (v *View) PromptForText(ctx context.Context, label string, multiline bool) (string, bool) {
	kind := PromptText
	if multiline {
		kind = PromptMultiline
	}
	r := v.prompt(ctx, kind, label)
	return r.Value, r.OK
}

func (v *View) PromptForConfirmation(ctx context.Context, label string) bool {
	return v.prompt(ctx, PromptConfirm, label).OK
}

func (v *View) prompt(ctx context.Context, kind PromptKind, label string) PromptReply {
	reply := make(chan PromptReply, 1)
	if !v.send(PromptEvent{Kind: kind, Label: label, Reply: reply}) {
		return PromptReply{}
	}
	select {
	case r := <-reply:
		return r
	case <-ctx.Done():
		return PromptReply{}
	case <-v.done:
		return PromptReply{}
	}
}
