package mcp

import (
	"context"
	"fmt"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/google/uuid"

	"github.com/rgale/cadence/internal/domain/activity"
	"github.com/rgale/cadence/internal/domain/insights"
	"github.com/rgale/cadence/internal/domain/objective"
	"github.com/rgale/cadence/internal/domain/session"
	"github.com/rgale/cadence/internal/tracker"
)

// registerTools adds all tool handlers to the server.
func registerTools(server *sdkmcp.Server, engine Engine) {
	// Timer lifecycle
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "start_session",
		Description: "Start the focus timer. Starting while a timer is already running has no effect.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in emptyInput) (*sdkmcp.CallToolResult, timerStatusOutput, error) {
		engine.StartSession(ctx, time.Now())
		return nil, timerStatus(engine), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "stop_session",
		Description: "Stop the focus timer. A positive elapsed duration opens an activity draft for annotation; zero elapsed time is discarded.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in emptyInput) (*sdkmcp.CallToolResult, stopSessionOutput, error) {
		engine.StopSession(ctx, time.Now())
		out := stopSessionOutput{Timer: timerStatus(engine)}
		if draft, ok := engine.Draft(); ok {
			view := draftView(draft)
			out.Draft = &view
		}
		return nil, out, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_timer_status",
		Description: "Report whether the focus timer is running and for how long.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in emptyInput) (*sdkmcp.CallToolResult, timerStatusOutput, error) {
		return nil, timerStatus(engine), nil
	})

	// Objectives
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_objectives",
		Description: "List objectives with progress. Filter is one of active, archived, all (default active).",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in listObjectivesInput) (*sdkmcp.CallToolResult, listObjectivesOutput, error) {
		var objectives []objective.Objective
		switch in.Filter {
		case "", "active":
			objectives = engine.ActiveObjectives()
		case "archived":
			objectives = engine.ArchivedObjectives()
		case "all":
			objectives = engine.Objectives()
		default:
			return nil, listObjectivesOutput{}, fmt.Errorf("invalid filter %q: must be active, archived or all", in.Filter)
		}

		out := listObjectivesOutput{Objectives: make([]objectiveView, 0, len(objectives))}
		for _, obj := range objectives {
			out.Objectives = append(out.Objectives, newObjectiveView(obj))
		}
		return nil, out, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "submit_objective",
		Description: "Create an objective, or update one in place when id is given. Key results replace the existing list; omit a key result's id to create it.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in submitObjectiveInput) (*sdkmcp.CallToolResult, statusOutput, error) {
		sub, err := in.toSubmission()
		if err != nil {
			return nil, statusOutput{}, err
		}
		engine.HandleObjectiveSubmission(ctx, sub)
		if sub.ID != nil {
			return nil, statusOutput{Status: "objective updated"}, nil
		}
		return nil, statusOutput{Status: "objective created"}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_objective",
		Description: "Delete an objective. Linked activities keep their time but lose the link and allocations.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in idInput) (*sdkmcp.CallToolResult, statusOutput, error) {
		id, err := uuid.Parse(in.ID)
		if err != nil {
			return nil, statusOutput{}, fmt.Errorf("invalid objective id %q: %w", in.ID, err)
		}
		engine.DeleteObjective(ctx, id)
		return nil, statusOutput{Status: "objective deleted"}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "archive_objective",
		Description: "Archive a fully completed objective. Objectives below 100% progress cannot be archived.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in idInput) (*sdkmcp.CallToolResult, statusOutput, error) {
		id, err := uuid.Parse(in.ID)
		if err != nil {
			return nil, statusOutput{}, fmt.Errorf("invalid objective id %q: %w", in.ID, err)
		}
		if obj := findObjective(engine.Objectives(), id); obj == nil {
			return nil, statusOutput{}, fmt.Errorf("objective %s not found", id)
		} else if obj.Progress() < 1 {
			return nil, statusOutput{}, fmt.Errorf("objective %s is at %.0f%% progress and cannot be archived", id, obj.Progress()*100)
		}
		engine.ArchiveObjective(ctx, id, time.Now())
		return nil, statusOutput{Status: "objective archived"}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "unarchive_objective",
		Description: "Return an archived objective to the active list.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in idInput) (*sdkmcp.CallToolResult, statusOutput, error) {
		id, err := uuid.Parse(in.ID)
		if err != nil {
			return nil, statusOutput{}, fmt.Errorf("invalid objective id %q: %w", in.ID, err)
		}
		engine.UnarchiveObjective(ctx, id)
		return nil, statusOutput{Status: "objective unarchived"}, nil
	})

	// Activities
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_activities",
		Description: "List recorded activities, most recent first. Limit caps the result count; 0 returns all.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in listActivitiesInput) (*sdkmcp.CallToolResult, listActivitiesOutput, error) {
		activities := engine.Activities()
		if in.Limit > 0 && len(activities) > in.Limit {
			activities = activities[:in.Limit]
		}
		out := listActivitiesOutput{Activities: make([]activityView, 0, len(activities))}
		for _, act := range activities {
			out.Activities = append(out.Activities, newActivityView(act))
		}
		return nil, out, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_activity",
		Description: "Delete an activity and reverse its time contribution against the linked objective's key results.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in idInput) (*sdkmcp.CallToolResult, statusOutput, error) {
		id, err := uuid.Parse(in.ID)
		if err != nil {
			return nil, statusOutput{}, fmt.Errorf("invalid activity id %q: %w", in.ID, err)
		}
		act := findActivity(engine.Activities(), id)
		if act == nil {
			return nil, statusOutput{}, fmt.Errorf("activity %s not found", id)
		}
		engine.DeleteActivity(ctx, *act)
		return nil, statusOutput{Status: "activity deleted"}, nil
	})

	// Draft lifecycle
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "edit_activity",
		Description: "Open a draft to edit an existing activity. The draft carries the activity's allocations and the linked objective's quantity values.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in idInput) (*sdkmcp.CallToolResult, draftOutput, error) {
		id, err := uuid.Parse(in.ID)
		if err != nil {
			return nil, draftOutput{}, fmt.Errorf("invalid activity id %q: %w", in.ID, err)
		}
		act := findActivity(engine.Activities(), id)
		if act == nil {
			return nil, draftOutput{}, fmt.Errorf("activity %s not found", id)
		}
		engine.EditActivity(*act)
		return currentDraft(engine)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_draft",
		Description: "Return the open activity draft, if any.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in emptyInput) (*sdkmcp.CallToolResult, draftOutput, error) {
		return currentDraft(engine)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_draft_objective",
		Description: "Link the open draft to an objective, or clear the link when objective_id is omitted. Changing the link resets allocations to defaults.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in setDraftObjectiveInput) (*sdkmcp.CallToolResult, draftOutput, error) {
		var objectiveID *uuid.UUID
		if in.ObjectiveID != "" {
			id, err := uuid.Parse(in.ObjectiveID)
			if err != nil {
				return nil, draftOutput{}, fmt.Errorf("invalid objective id %q: %w", in.ObjectiveID, err)
			}
			objectiveID = &id
		}
		engine.SetDraftObjective(objectiveID)
		return currentDraft(engine)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_draft_duration",
		Description: "Override the open draft's duration in seconds. Time allocations reset to match.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in setDraftDurationInput) (*sdkmcp.CallToolResult, draftOutput, error) {
		if in.Seconds < 0 {
			return nil, draftOutput{}, fmt.Errorf("duration must not be negative")
		}
		engine.SetDraftDuration(in.Seconds)
		return currentDraft(engine)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_draft_note",
		Description: "Set the open draft's note text.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in setDraftNoteInput) (*sdkmcp.CallToolResult, draftOutput, error) {
		engine.SetDraftNote(in.Note)
		return currentDraft(engine)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_draft_tags",
		Description: "Set the open draft's tags as comma-separated text.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in setDraftTagsInput) (*sdkmcp.CallToolResult, draftOutput, error) {
		engine.SetDraftTags(in.Tags)
		return currentDraft(engine)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_draft_quantity",
		Description: "Set a quantity key result's value on the open draft. Negative values clamp to zero.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in setDraftQuantityInput) (*sdkmcp.CallToolResult, draftOutput, error) {
		keyResultID, err := uuid.Parse(in.KeyResultID)
		if err != nil {
			return nil, draftOutput{}, fmt.Errorf("invalid key result id %q: %w", in.KeyResultID, err)
		}
		engine.SetDraftQuantityValue(in.Value, keyResultID)
		return currentDraft(engine)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "save_draft",
		Description: "Commit the open draft as an activity, updating linked key-result progress.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in emptyInput) (*sdkmcp.CallToolResult, statusOutput, error) {
		if _, ok := engine.Draft(); !ok {
			return nil, statusOutput{}, fmt.Errorf("no draft is open")
		}
		engine.SaveDraft(ctx)
		return nil, statusOutput{Status: "draft saved"}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "discard_draft",
		Description: "Discard the open draft without recording anything.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in emptyInput) (*sdkmcp.CallToolResult, statusOutput, error) {
		if _, ok := engine.Draft(); !ok {
			return nil, statusOutput{}, fmt.Errorf("no draft is open")
		}
		engine.DiscardDraft()
		return nil, statusOutput{Status: "draft discarded"}, nil
	})

	// History and insights
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_sessions",
		Description: "List raw timer records, most recent first.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in emptyInput) (*sdkmcp.CallToolResult, listSessionsOutput, error) {
		sessions, err := engine.Sessions(ctx)
		if err != nil {
			return nil, listSessionsOutput{}, fmt.Errorf("failed to list sessions: %w", err)
		}
		out := listSessionsOutput{Sessions: make([]sessionView, 0, len(sessions))}
		for _, sess := range sessions {
			out.Sessions = append(out.Sessions, newSessionView(sess))
		}
		return nil, out, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_insights",
		Description: "Compute activity statistics: totals, streaks, per-objective breakdown and the last seven days.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in emptyInput) (*sdkmcp.CallToolResult, insights.Snapshot, error) {
		return nil, engine.Insights(time.Now()), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "refresh",
		Description: "Reload objectives and activities from storage, discarding the in-memory snapshot.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in emptyInput) (*sdkmcp.CallToolResult, statusOutput, error) {
		if err := engine.Refresh(ctx); err != nil {
			return nil, statusOutput{}, fmt.Errorf("failed to refresh: %w", err)
		}
		return nil, statusOutput{Status: "refreshed"}, nil
	})
}

func timerStatus(engine Engine) timerStatusOutput {
	out := timerStatusOutput{Running: engine.IsTimerRunning()}
	if startedAt, ok := engine.SessionStartDate(); ok {
		out.StartedAt = &startedAt
		out.Elapsed = tracker.FormatTimer(time.Since(startedAt).Seconds())
	}
	return out
}

func currentDraft(engine Engine) (*sdkmcp.CallToolResult, draftOutput, error) {
	draft, ok := engine.Draft()
	if !ok {
		return nil, draftOutput{}, fmt.Errorf("no draft is open")
	}
	view := draftView(draft)
	return nil, draftOutput{Draft: &view}, nil
}

func findObjective(objectives []objective.Objective, id uuid.UUID) *objective.Objective {
	for i := range objectives {
		if objectives[i].ID == id {
			return &objectives[i]
		}
	}
	return nil
}

func findActivity(activities []activity.Activity, id uuid.UUID) *activity.Activity {
	for i := range activities {
		if activities[i].ID == id {
			return &activities[i]
		}
	}
	return nil
}

func newSessionView(sess session.Session) sessionView {
	return sessionView{
		ID:        sess.ID.String(),
		StartedAt: sess.StartedAt,
		Duration:  tracker.FormatDuration(sess.Duration),
		Seconds:   sess.Duration,
	}
}
