package tui

import (
	"github.com/spiffcs/ghissues/internal/controller"
	"github.com/spiffcs/ghissues/internal/model"
	"github.com/spiffcs/ghissues/internal/session"
)

// Event is the interface for everything the controller sends to the UI.
type Event interface {
	isEvent()
}

// ListEvent carries a new issue list and selection.
type ListEvent struct {
	State session.State
}

func (ListEvent) isEvent() {}

// DetailsEvent carries an issue with its comments.
type DetailsEvent struct {
	Issue    model.Issue
	Comments []model.Comment
}

func (DetailsEvent) isEvent() {}

// StatusEvent is a one-line status message.
type StatusEvent struct {
	Message  string
	Severity controller.Severity
}

func (StatusEvent) isEvent() {}

// RateLimitEvent carries a fresh quota snapshot.
type RateLimitEvent struct {
	Snapshot model.RateLimitSnapshot
}

func (RateLimitEvent) isEvent() {}

// PromptKind selects the input widget for a prompt.
type PromptKind int

const (
	PromptText PromptKind = iota
	PromptMultiline
	PromptSecret
	PromptConfirm
)

// PromptReply answers a PromptEvent. OK is false when the user cancelled.
type PromptReply struct {
	Value string
	OK    bool
}

// PromptEvent asks the user for input. The answer is sent on Reply,
// which has room for exactly one value.
type PromptEvent struct {
	Kind  PromptKind
	Label string
	Reply chan PromptReply
}

func (PromptEvent) isEvent() {}

// DoneEvent signals that no more events will be sent.
type DoneEvent struct{}

func (DoneEvent) isEvent() {}
