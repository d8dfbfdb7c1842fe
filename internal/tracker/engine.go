package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rgale/cadence/internal/domain/activity"
	"github.com/rgale/cadence/internal/domain/insights"
	"github.com/rgale/cadence/internal/domain/objective"
	"github.com/rgale/cadence/internal/domain/session"
	"github.com/rgale/cadence/internal/repository"
)

// Engine owns the authoritative in-memory view of objectives and
// activities, the running timer, and at most one open activity draft.
//
// All public methods serialize through one mutex: mutations happen on a
// single logical owner. Persistence is optimistic — storage failures are
// logged and the in-memory state keeps the already-applied mutation; the
// next successful write re-converges.
type Engine struct {
	mu sync.Mutex

	objectives   []objective.Objective
	activities   []activity.Activity
	draft        *ActivityDraft
	sessionStart *time.Time

	objectiveRepo repository.ObjectiveRepository
	activityRepo  repository.ActivityRepository
	sessionRepo   repository.SessionRepository

	feedback   FeedbackSink
	liveStatus LiveStatusController
	events     EventTracker
	logger     *slog.Logger
}

// Options carries the engine's external collaborators. Nil fields fall
// back to no-op implementations.
type Options struct {
	Feedback   FeedbackSink
	LiveStatus LiveStatusController
	Events     EventTracker
}

// NewEngine creates an engine over the given repositories.
func NewEngine(
	objectives repository.ObjectiveRepository,
	activities repository.ActivityRepository,
	sessions repository.SessionRepository,
	logger *slog.Logger,
	opts Options,
) *Engine {
	if opts.Feedback == nil {
		opts.Feedback = NopFeedbackSink{}
	}
	if opts.LiveStatus == nil {
		opts.LiveStatus = NopLiveStatusController{}
	}
	if opts.Events == nil {
		opts.Events = NopEventTracker{}
	}
	return &Engine{
		objectiveRepo: objectives,
		activityRepo:  activities,
		sessionRepo:   sessions,
		feedback:      opts.Feedback,
		liveStatus:    opts.LiveStatus,
		events:        opts.Events,
		logger:        logger,
	}
}

// Refresh reloads the objectives and activities snapshot from storage.
func (e *Engine) Refresh(ctx context.Context) error {
	var objectives []objective.Objective
	var activities []activity.Activity

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		loaded, err := e.objectiveRepo.LoadObjectives(groupCtx)
		if err != nil {
			return fmt.Errorf("loading objectives: %w", err)
		}
		objectives = loaded
		return nil
	})
	group.Go(func() error {
		loaded, err := e.activityRepo.LoadActivities(groupCtx)
		if err != nil {
			return fmt.Errorf("loading activities: %w", err)
		}
		activities = loaded
		return nil
	})
	if err := group.Wait(); err != nil {
		return err
	}

	e.mu.Lock()
	e.objectives = objectives
	e.activities = activities
	e.mu.Unlock()
	return nil
}

// Timer lifecycle

// StartSession begins the running timer. A second start without an
// intervening stop is a no-op.
func (e *Engine) StartSession(ctx context.Context, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sessionStart != nil {
		return
	}
	start := now
	e.sessionStart = &start

	e.events.Track(Event{Action: ActionSessionStarted})
	e.feedback.Signal(FeedbackImpact)
	go func() {
		if err := e.liveStatus.StartLiveStatus(context.WithoutCancel(ctx), start); err != nil {
			e.logger.Warn("failed to start live status", "error", err)
		}
	}()
}

// StopSession ends the running timer. A positive elapsed duration records
// a timer history entry and opens a new draft; zero duration discards the
// run. No-op when no timer is running.
func (e *Engine) StopSession(ctx context.Context, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sessionStart == nil {
		return
	}
	start := *e.sessionStart
	e.sessionStart = nil
	duration := now.Sub(start).Seconds()

	e.events.Track(Event{Action: ActionSessionStopped})
	go func() {
		if err := e.liveStatus.EndLiveStatus(context.WithoutCancel(ctx)); err != nil {
			e.logger.Warn("failed to end live status", "error", err)
		}
	}()

	if duration <= 0 {
		return
	}

	record := session.Session{ID: uuid.New(), StartedAt: start, Duration: duration}
	if err := e.sessionRepo.AddSession(ctx, record); err != nil {
		e.logger.Error("failed to record session", "error", err)
	}

	e.draft = &ActivityDraft{
		StartedAt:       start,
		Duration:        duration,
		TimeAllocations: map[uuid.UUID]float64{},
		QuantityValues:  map[uuid.UUID]float64{},
	}
	e.events.Track(Event{Action: ActionDraftOpened, Params: map[string]any{"editing": false}})
	e.feedback.Signal(FeedbackImpact)
}

// IsTimerRunning reports whether a timer is active.
func (e *Engine) IsTimerRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionStart != nil
}

// SessionStartDate returns the running timer's start time, if any.
func (e *Engine) SessionStartDate() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessionStart == nil {
		return time.Time{}, false
	}
	return *e.sessionStart, true
}

// Draft lifecycle

// EditActivity opens a draft seeded from an existing activity, carrying
// its allocations and a quantity snapshot from the linked objective.
func (e *Engine) EditActivity(act activity.Activity) {
	e.mu.Lock()
	defer e.mu.Unlock()

	allocations := make(map[uuid.UUID]float64, len(act.Allocations))
	for _, alloc := range act.Allocations {
		allocations[alloc.KeyResultID] = alloc.Seconds
	}

	quantities := map[uuid.UUID]float64{}
	if act.LinkedObjectiveID != nil {
		if obj := e.objectiveByID(*act.LinkedObjectiveID); obj != nil {
			quantities = defaultQuantityValues(*obj)
		}
	}

	original := act
	note := ""
	if act.Note != nil {
		note = *act.Note
	}
	e.draft = &ActivityDraft{
		original:            &original,
		StartedAt:           act.Date,
		Duration:            act.Duration,
		SelectedObjectiveID: act.LinkedObjectiveID,
		TimeAllocations:     allocations,
		QuantityValues:      quantities,
		Note:                note,
		TagsText:            joinTags(act.Tags),
	}
	e.events.Track(Event{Action: ActionDraftOpened, Params: map[string]any{"editing": true}})
}

// SetDraftObjective links the draft to an objective. Changing the
// selection resets allocations to defaults: every time-tracked key result
// receives the full duration, every quantity key result its stored value.
func (e *Engine) SetDraftObjective(objectiveID *uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.draft == nil || uuidPtrEqual(e.draft.SelectedObjectiveID, objectiveID) {
		return
	}
	e.draft.SelectedObjectiveID = objectiveID

	e.draft.TimeAllocations = map[uuid.UUID]float64{}
	e.draft.QuantityValues = map[uuid.UUID]float64{}
	if objectiveID != nil {
		if obj := e.objectiveByID(*objectiveID); obj != nil {
			e.draft.TimeAllocations = defaultTimeAllocations(*obj, e.draft.Duration)
			e.draft.QuantityValues = defaultQuantityValues(*obj)
		}
	}
}

// SetDraftDuration overrides the draft's duration in seconds, floored at
// zero. Time allocations reset to defaults against the new duration.
func (e *Engine) SetDraftDuration(seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.draft == nil {
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	e.draft.Duration = seconds

	if e.draft.SelectedObjectiveID != nil {
		if obj := e.objectiveByID(*e.draft.SelectedObjectiveID); obj != nil {
			e.draft.TimeAllocations = defaultTimeAllocations(*obj, seconds)
			return
		}
	}
	e.draft.TimeAllocations = map[uuid.UUID]float64{}
}

// SetDraftNote updates the draft's note text.
func (e *Engine) SetDraftNote(note string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return
	}
	e.draft.Note = note
}

// SetDraftTags updates the draft's comma-separated tags text.
func (e *Engine) SetDraftTags(tags string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return
	}
	e.draft.TagsText = tags
}

// SetDraftQuantityValue sets a quantity override, clamped at zero.
func (e *Engine) SetDraftQuantityValue(value float64, keyResultID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return
	}
	clamped := value
	if clamped < 0 {
		clamped = 0
	}
	previous, had := e.draft.QuantityValues[keyResultID]
	e.draft.QuantityValues[keyResultID] = clamped
	if !had || previous != clamped {
		e.feedback.Signal(FeedbackImpact)
	}
}

// Draft returns a copy of the open draft, if any.
func (e *Engine) Draft() (*ActivityDraft, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return nil, false
	}
	return e.draft.clone(), true
}

// SaveDraft commits the open draft.
//
// The reverse-then-apply sequence is what keeps key-result logged values
// consistent: on an edit the original activity's allocations are first
// subtracted from the original objective (floored at zero), then the new
// allocations are added to the newly selected objective. Re-linking an
// activity or changing its duration therefore never double-counts.
func (e *Engine) SaveDraft(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	draft := e.draft
	if draft == nil {
		return
	}
	e.events.Track(Event{Action: ActionDraftSaved, Params: map[string]any{"editing": draft.IsEditing()}})

	act := activity.Activity{
		ID:                uuid.New(),
		Date:              draft.StartedAt,
		Duration:          draft.Duration,
		LinkedObjectiveID: draft.SelectedObjectiveID,
		Note:              activity.NormalizeNote(draft.Note),
		Tags:              activity.ParseTags(draft.TagsText),
		Allocations:       selectedAllocations(draft.TimeAllocations),
	}

	if original, editing := draft.OriginalActivity(); editing {
		act.ID = original.ID
		if err := e.activityRepo.UpdateActivity(ctx, act); err != nil {
			e.logger.Error("failed to update activity", "error", err)
		}
		if original.LinkedObjectiveID != nil {
			e.applyTimeAllocations(ctx, original.Allocations, *original.LinkedObjectiveID, false)
		}
		if act.LinkedObjectiveID != nil {
			e.applyTimeAllocations(ctx, act.Allocations, *act.LinkedObjectiveID, true)
			e.applyQuantityOverrides(ctx, draft.QuantityValues, *act.LinkedObjectiveID)
		}
	} else {
		if err := e.activityRepo.RecordActivity(ctx, act); err != nil {
			e.logger.Error("failed to record activity", "error", err)
		}
		if act.LinkedObjectiveID != nil {
			e.applyTimeAllocations(ctx, act.Allocations, *act.LinkedObjectiveID, true)
			e.applyQuantityOverrides(ctx, draft.QuantityValues, *act.LinkedObjectiveID)
		}
	}

	e.reloadActivities(ctx)
	e.draft = nil
	e.feedback.Signal(FeedbackSuccess)
}

// DiscardDraft clears the open draft without persisting anything.
func (e *Engine) DiscardDraft() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.draft == nil {
		return
	}
	editing := e.draft.IsEditing()
	e.draft = nil
	e.events.Track(Event{Action: ActionDraftDiscarded, Params: map[string]any{"editing": editing}})
	e.feedback.Signal(FeedbackWarning)
}

// Activity operations

// DeleteActivity removes an activity and reverses its contribution
// against the linked objective's key results, floored at zero.
func (e *Engine) DeleteActivity(ctx context.Context, act activity.Activity) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.activityRepo.RemoveActivity(ctx, act.ID); err != nil {
		e.logger.Error("failed to delete activity", "error", err)
	}
	e.reloadActivities(ctx)

	if act.LinkedObjectiveID != nil {
		e.applyTimeAllocations(ctx, act.Allocations, *act.LinkedObjectiveID, false)
	}

	e.events.Track(Event{Action: ActionActivityDeleted})
	e.feedback.Signal(FeedbackWarning)
}

// Objective operations

// HandleObjectiveSubmission updates an existing objective in place when
// the submission carries a known identifier, otherwise creates a new one
// and reloads the snapshot.
func (e *Engine) HandleObjectiveSubmission(ctx context.Context, sub objective.Submission) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.events.Track(Event{Action: ActionObjectiveSubmitted})

	if sub.ID != nil {
		for i := range e.objectives {
			if e.objectives[i].ID != *sub.ID {
				continue
			}
			updated := e.objectives[i]
			updated.Title = sub.Title
			updated.ColorHex = sub.ColorHex
			updated.EndDate = sub.EndDate
			updated.KeyResults = sub.KeyResults
			updated.UpdateCompletion(time.Now())
			e.objectives[i] = updated

			if err := e.objectiveRepo.UpsertObjective(ctx, updated); err != nil {
				e.logger.Error("failed to update objective", "error", err)
			}
			return
		}
	}

	if _, err := e.objectiveRepo.CreateObjective(ctx, sub.Title, sub.ColorHex, sub.EndDate, sub.KeyResults); err != nil {
		e.logger.Error("failed to create objective", "error", err)
		return
	}
	e.reloadObjectives(ctx)
}

// DeleteObjective removes an objective. Linked activities lose their link
// and allocations, in memory and in storage; a draft selecting it loses
// the selection but stays open.
func (e *Engine) DeleteObjective(ctx context.Context, id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	index := -1
	for i := range e.objectives {
		if e.objectives[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return
	}
	e.objectives = append(e.objectives[:index], e.objectives[index+1:]...)

	for i := range e.activities {
		if e.activities[i].LinkedObjectiveID != nil && *e.activities[i].LinkedObjectiveID == id {
			e.activities[i].ClearObjectiveLink()
		}
	}

	if e.draft != nil && e.draft.SelectedObjectiveID != nil && *e.draft.SelectedObjectiveID == id {
		e.draft.SelectedObjectiveID = nil
		e.draft.TimeAllocations = map[uuid.UUID]float64{}
		e.draft.QuantityValues = map[uuid.UUID]float64{}
	}

	if err := e.objectiveRepo.RemoveObjective(ctx, id); err != nil {
		e.logger.Error("failed to delete objective", "error", err)
	}

	e.events.Track(Event{Action: ActionObjectiveDeleted})
	e.feedback.Signal(FeedbackWarning)
}

// ArchiveObjective archives a completed objective. Objectives below full
// progress, or already archived, are left untouched.
func (e *Engine) ArchiveObjective(ctx context.Context, id uuid.UUID, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.objectives {
		if e.objectives[i].ID != id {
			continue
		}
		obj := e.objectives[i]
		if obj.Progress() < 1 || obj.IsArchived() {
			return
		}
		stamp := now
		obj.ArchivedAt = &stamp
		obj.UpdateCompletion(now)
		e.objectives[i] = obj

		if err := e.objectiveRepo.UpsertObjective(ctx, obj); err != nil {
			e.logger.Error("failed to archive objective", "error", err)
		}
		e.events.Track(Event{Action: ActionObjectiveArchived})
		return
	}
}

// UnarchiveObjective clears the archived timestamp and recomputes
// completion.
func (e *Engine) UnarchiveObjective(ctx context.Context, id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.objectives {
		if e.objectives[i].ID != id {
			continue
		}
		obj := e.objectives[i]
		if !obj.IsArchived() {
			return
		}
		obj.ArchivedAt = nil
		obj.UpdateCompletion(time.Now())
		e.objectives[i] = obj

		if err := e.objectiveRepo.UpsertObjective(ctx, obj); err != nil {
			e.logger.Error("failed to unarchive objective", "error", err)
		}
		e.events.Track(Event{Action: ActionObjectiveUnarchived})
		return
	}
}

// Snapshot access

// Objectives returns a copy of the in-memory objectives.
func (e *Engine) Objectives() []objective.Objective {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]objective.Objective(nil), e.objectives...)
}

// ActiveObjectives returns non-archived objectives.
func (e *Engine) ActiveObjectives() []objective.Objective {
	e.mu.Lock()
	defer e.mu.Unlock()
	var active []objective.Objective
	for _, obj := range e.objectives {
		if !obj.IsArchived() {
			active = append(active, obj)
		}
	}
	return active
}

// ArchivedObjectives returns archived objectives.
func (e *Engine) ArchivedObjectives() []objective.Objective {
	e.mu.Lock()
	defer e.mu.Unlock()
	var archived []objective.Objective
	for _, obj := range e.objectives {
		if obj.IsArchived() {
			archived = append(archived, obj)
		}
	}
	return archived
}

// Activities returns a copy of the in-memory activities.
func (e *Engine) Activities() []activity.Activity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]activity.Activity(nil), e.activities...)
}

// Sessions returns the timer history, most recent first.
func (e *Engine) Sessions(ctx context.Context) ([]session.Session, error) {
	return e.sessionRepo.FetchSessions(ctx)
}

// Insights computes the statistics snapshot for the current state.
func (e *Engine) Insights(now time.Time) insights.Snapshot {
	e.mu.Lock()
	activities := append([]activity.Activity(nil), e.activities...)
	objectives := append([]objective.Objective(nil), e.objectives...)
	e.mu.Unlock()
	return insights.Compute(activities, objectives, now)
}

// Allocation math. Callers hold e.mu.

// applyTimeAllocations adds or subtracts unit-converted allocation time on
// the objective's key results. Logged values floor at zero; persistence
// failures keep the in-memory mutation.
func (e *Engine) applyTimeAllocations(ctx context.Context, allocations []activity.Allocation, objectiveID uuid.UUID, adding bool) {
	if len(allocations) == 0 {
		return
	}
	e.mutateObjective(ctx, objectiveID, func(obj *objective.Objective) {
		for _, alloc := range allocations {
			kr := obj.KeyResult(alloc.KeyResultID)
			if kr == nil || kr.TimeMetric == nil {
				continue
			}
			delta := kr.TimeMetric.Unit.FromSeconds(alloc.Seconds)
			if !adding {
				delta = -delta
			}
			logged := kr.TimeMetric.Logged + delta
			if logged < 0 {
				logged = 0
			}
			kr.TimeMetric.Logged = logged
		}
	})
}

// applyQuantityOverrides sets quantity key results to the draft's values,
// clamped at zero.
func (e *Engine) applyQuantityOverrides(ctx context.Context, overrides map[uuid.UUID]float64, objectiveID uuid.UUID) {
	if len(overrides) == 0 {
		return
	}
	e.mutateObjective(ctx, objectiveID, func(obj *objective.Objective) {
		for keyResultID, value := range overrides {
			kr := obj.KeyResult(keyResultID)
			if kr == nil || kr.QuantityMetric == nil {
				continue
			}
			if value < 0 {
				value = 0
			}
			kr.QuantityMetric.Current = value
		}
	})
}

func (e *Engine) mutateObjective(ctx context.Context, id uuid.UUID, mutation func(*objective.Objective)) {
	for i := range e.objectives {
		if e.objectives[i].ID != id {
			continue
		}
		obj := e.objectives[i]
		mutation(&obj)
		obj.UpdateCompletion(time.Now())
		e.objectives[i] = obj

		if err := e.objectiveRepo.UpsertObjective(ctx, obj); err != nil {
			e.logger.Error("failed to persist objective mutation", "error", err)
		}
		return
	}
}

func (e *Engine) objectiveByID(id uuid.UUID) *objective.Objective {
	for i := range e.objectives {
		if e.objectives[i].ID == id {
			return &e.objectives[i]
		}
	}
	return nil
}

func (e *Engine) reloadActivities(ctx context.Context) {
	loaded, err := e.activityRepo.LoadActivities(ctx)
	if err != nil {
		e.logger.Error("failed to refresh activities", "error", err)
		return
	}
	e.activities = loaded
}

func (e *Engine) reloadObjectives(ctx context.Context) {
	loaded, err := e.objectiveRepo.LoadObjectives(ctx)
	if err != nil {
		e.logger.Error("failed to refresh objectives", "error", err)
		return
	}
	e.objectives = loaded
}

// Helpers

func defaultTimeAllocations(obj objective.Objective, duration float64) map[uuid.UUID]float64 {
	allocations := map[uuid.UUID]float64{}
	for _, kr := range obj.KeyResults {
		if kr.TimeMetric != nil {
			allocations[kr.ID] = duration
		}
	}
	return allocations
}

func defaultQuantityValues(obj objective.Objective) map[uuid.UUID]float64 {
	values := map[uuid.UUID]float64{}
	for _, kr := range obj.KeyResults {
		if kr.QuantityMetric != nil {
			values[kr.ID] = kr.QuantityMetric.Current
		}
	}
	return values
}

// selectedAllocations converts the draft's allocation map into an ordered
// list, sorted by key-result identifier for a stable round trip.
func selectedAllocations(selected map[uuid.UUID]float64) []activity.Allocation {
	allocations := make([]activity.Allocation, 0, len(selected))
	for id, seconds := range selected {
		allocations = append(allocations, activity.Allocation{KeyResultID: id, Seconds: seconds})
	}
	sort.Slice(allocations, func(i, j int) bool {
		return allocations[i].KeyResultID.String() < allocations[j].KeyResultID.String()
	})
	return allocations
}

func joinTags(tags []string) string {
	text := ""
	for i, tag := range tags {
		if i > 0 {
			text += ", "
		}
		text += tag
	}
	return text
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// FormatDuration renders a duration in seconds as "2h 5m", "5m 12s" or "42s".
func FormatDuration(seconds float64) string {
	total := int(seconds + 0.5)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

// FormatTimer renders elapsed seconds as "hh:mm:ss".
func FormatTimer(seconds float64) string {
	total := int(seconds + 0.5)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
