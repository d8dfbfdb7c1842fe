package tracker

import (
	"context"
	"log/slog"
	"time"
)

// FeedbackKind classifies a fire-and-forget feedback signal.
type FeedbackKind string

const (
	FeedbackSuccess FeedbackKind = "success"
	FeedbackWarning FeedbackKind = "warning"
	FeedbackImpact  FeedbackKind = "impact"
)

// FeedbackSink receives feedback signals. Implementations must not block;
// the engine never waits on them.
type FeedbackSink interface {
	Signal(kind FeedbackKind)
}

// LiveStatusController brackets the running-timer lifecycle on an external
// status surface. Failures are logged by the engine, never propagated.
type LiveStatusController interface {
	StartLiveStatus(ctx context.Context, startedAt time.Time) error
	EndLiveStatus(ctx context.Context) error
}

// Event is a structured action event.
type Event struct {
	Action string
	Params map[string]any
}

// EventTracker records events. Implementations must not affect control
// flow: no return value, no blocking.
type EventTracker interface {
	Track(event Event)
}

// Event action vocabulary.
const (
	ActionSessionStarted      = "session_started"
	ActionSessionStopped      = "session_stopped"
	ActionDraftOpened         = "draft_opened"
	ActionDraftSaved          = "draft_saved"
	ActionDraftDiscarded      = "draft_discarded"
	ActionActivityDeleted     = "activity_deleted"
	ActionObjectiveSubmitted  = "objective_submitted"
	ActionObjectiveDeleted    = "objective_deleted"
	ActionObjectiveArchived   = "objective_archived"
	ActionObjectiveUnarchived = "objective_unarchived"
)

// NopFeedbackSink discards all signals.
type NopFeedbackSink struct{}

func (NopFeedbackSink) Signal(FeedbackKind) {}

// NopLiveStatusController ignores the timer lifecycle.
type NopLiveStatusController struct{}

func (NopLiveStatusController) StartLiveStatus(context.Context, time.Time) error { return nil }
func (NopLiveStatusController) EndLiveStatus(context.Context) error              { return nil }

// NopEventTracker discards all events.
type NopEventTracker struct{}

func (NopEventTracker) Track(Event) {}

// LogEventTracker writes events to a structured logger.
type LogEventTracker struct {
	Logger *slog.Logger
}

func (t LogEventTracker) Track(event Event) {
	attrs := make([]any, 0, 2+2*len(event.Params))
	attrs = append(attrs, "action", event.Action)
	for key, value := range event.Params {
		attrs = append(attrs, key, value)
	}
	t.Logger.Debug("event", attrs...)
}
