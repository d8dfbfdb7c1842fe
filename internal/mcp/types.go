package mcp

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rgale/cadence/internal/domain/activity"
	"github.com/rgale/cadence/internal/domain/objective"
	"github.com/rgale/cadence/internal/repository"
	"github.com/rgale/cadence/internal/tracker"
)

// Tool inputs. Schemas are inferred from the struct tags.

type emptyInput struct{}

type idInput struct {
	ID string `json:"id" jsonschema:"entity identifier (UUID)"`
}

type listObjectivesInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"active, archived or all (default active)"`
}

type listActivitiesInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of activities to return, 0 for all"`
}

type setDraftObjectiveInput struct {
	ObjectiveID string `json:"objective_id,omitempty" jsonschema:"objective identifier, omit to clear the link"`
}

type setDraftDurationInput struct {
	Seconds float64 `json:"seconds" jsonschema:"new duration in seconds"`
}

type setDraftNoteInput struct {
	Note string `json:"note" jsonschema:"free-form note text"`
}

type setDraftTagsInput struct {
	Tags string `json:"tags" jsonschema:"comma-separated tags"`
}

type setDraftQuantityInput struct {
	KeyResultID string  `json:"key_result_id" jsonschema:"quantity key result identifier"`
	Value       float64 `json:"value" jsonschema:"new value, clamped at zero"`
}

type timeMetricInput struct {
	Unit   string  `json:"unit" jsonschema:"minutes or hours"`
	Target float64 `json:"target" jsonschema:"target amount in the unit"`
	Logged float64 `json:"logged,omitempty" jsonschema:"already-logged amount in the unit"`
}

type quantityMetricInput struct {
	Unit    string  `json:"unit" jsonschema:"free-form unit label, e.g. pages"`
	Target  float64 `json:"target" jsonschema:"target amount"`
	Current float64 `json:"current,omitempty" jsonschema:"current amount"`
}

type keyResultInput struct {
	ID             string               `json:"id,omitempty" jsonschema:"existing key result identifier, omit to create"`
	Title          string               `json:"title" jsonschema:"key result title"`
	TimeMetric     *timeMetricInput     `json:"time_metric,omitempty"`
	QuantityMetric *quantityMetricInput `json:"quantity_metric,omitempty"`
}

type submitObjectiveInput struct {
	ID         string           `json:"id,omitempty" jsonschema:"existing objective identifier, omit to create"`
	Title      string           `json:"title" jsonschema:"objective title"`
	ColorHex   string           `json:"color_hex,omitempty" jsonschema:"display color, e.g. #FF8800"`
	EndDate    string           `json:"end_date,omitempty" jsonschema:"target end date, RFC 3339"`
	KeyResults []keyResultInput `json:"key_results,omitempty"`
}

func (in submitObjectiveInput) toSubmission() (objective.Submission, error) {
	if in.Title == "" {
		return objective.Submission{}, fmt.Errorf("%w: title is required", repository.ErrInvalidInput)
	}

	sub := objective.Submission{Title: in.Title}
	if in.ID != "" {
		id, err := uuid.Parse(in.ID)
		if err != nil {
			return objective.Submission{}, fmt.Errorf("invalid objective id %q: %w", in.ID, err)
		}
		sub.ID = &id
	}
	if in.ColorHex != "" {
		color := in.ColorHex
		sub.ColorHex = &color
	}
	if in.EndDate != "" {
		endDate, err := time.Parse(time.RFC3339, in.EndDate)
		if err != nil {
			return objective.Submission{}, fmt.Errorf("invalid end date %q: %w", in.EndDate, err)
		}
		sub.EndDate = &endDate
	}

	for _, krIn := range in.KeyResults {
		kr, err := krIn.toKeyResult()
		if err != nil {
			return objective.Submission{}, err
		}
		sub.KeyResults = append(sub.KeyResults, kr)
	}
	return sub, nil
}

func (in keyResultInput) toKeyResult() (objective.KeyResult, error) {
	if in.Title == "" {
		return objective.KeyResult{}, fmt.Errorf("%w: key result title is required", repository.ErrInvalidInput)
	}

	kr := objective.KeyResult{ID: uuid.New(), Title: in.Title}
	if in.ID != "" {
		id, err := uuid.Parse(in.ID)
		if err != nil {
			return objective.KeyResult{}, fmt.Errorf("invalid key result id %q: %w", in.ID, err)
		}
		kr.ID = id
	}
	if in.TimeMetric != nil {
		unit := objective.TimeUnit(in.TimeMetric.Unit)
		if unit != objective.UnitMinutes && unit != objective.UnitHours {
			return objective.KeyResult{}, fmt.Errorf("invalid time unit %q: must be minutes or hours", in.TimeMetric.Unit)
		}
		kr.TimeMetric = &objective.TimeMetric{
			Unit:   unit,
			Target: in.TimeMetric.Target,
			Logged: in.TimeMetric.Logged,
		}
	}
	if in.QuantityMetric != nil {
		kr.QuantityMetric = &objective.QuantityMetric{
			Unit:    in.QuantityMetric.Unit,
			Target:  in.QuantityMetric.Target,
			Current: in.QuantityMetric.Current,
		}
	}
	return kr, nil
}

// Tool outputs.

type statusOutput struct {
	Status string `json:"status"`
}

type timerStatusOutput struct {
	Running   bool       `json:"running"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Elapsed   string     `json:"elapsed,omitempty"`
}

type stopSessionOutput struct {
	Timer timerStatusOutput `json:"timer"`
	Draft *draftViewOutput  `json:"draft,omitempty"`
}

type objectiveView struct {
	objective.Objective
	Progress float64 `json:"progress"`
}

func newObjectiveView(obj objective.Objective) objectiveView {
	return objectiveView{Objective: obj, Progress: obj.Progress()}
}

type listObjectivesOutput struct {
	Objectives []objectiveView `json:"objectives"`
}

type activityView struct {
	activity.Activity
	DurationText string `json:"duration"`
}

func newActivityView(act activity.Activity) activityView {
	return activityView{Activity: act, DurationText: tracker.FormatDuration(act.Duration)}
}

type listActivitiesOutput struct {
	Activities []activityView `json:"activities"`
}

type draftViewOutput struct {
	Editing         bool               `json:"editing"`
	StartedAt       time.Time          `json:"started_at"`
	Duration        string             `json:"duration"`
	DurationSeconds float64            `json:"duration_seconds"`
	ObjectiveID     *uuid.UUID         `json:"objective_id,omitempty"`
	TimeAllocations map[string]float64 `json:"time_allocations_seconds"`
	QuantityValues  map[string]float64 `json:"quantity_values"`
	Note            string             `json:"note,omitempty"`
	Tags            string             `json:"tags,omitempty"`
}

func draftView(draft *tracker.ActivityDraft) draftViewOutput {
	view := draftViewOutput{
		Editing:         draft.IsEditing(),
		StartedAt:       draft.StartedAt,
		Duration:        tracker.FormatDuration(draft.Duration),
		DurationSeconds: draft.Duration,
		ObjectiveID:     draft.SelectedObjectiveID,
		TimeAllocations: make(map[string]float64, len(draft.TimeAllocations)),
		QuantityValues:  make(map[string]float64, len(draft.QuantityValues)),
		Note:            draft.Note,
		Tags:            draft.TagsText,
	}
	for id, seconds := range draft.TimeAllocations {
		view.TimeAllocations[id.String()] = seconds
	}
	for id, value := range draft.QuantityValues {
		view.QuantityValues[id.String()] = value
	}
	return view
}

type draftOutput struct {
	Draft *draftViewOutput `json:"draft,omitempty"`
}

type sessionView struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Seconds   float64   `json:"duration_seconds"`
}

type listSessionsOutput struct {
	Sessions []sessionView `json:"sessions"`
}
