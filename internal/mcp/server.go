package mcp

import (
	"context"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/google/uuid"

	"github.com/rgale/cadence/internal/domain/activity"
	"github.com/rgale/cadence/internal/domain/insights"
	"github.com/rgale/cadence/internal/domain/objective"
	"github.com/rgale/cadence/internal/domain/session"
	"github.com/rgale/cadence/internal/tracker"
)

// Engine defines the tracking operations needed by the MCP surface.
type Engine interface {
	StartSession(ctx context.Context, now time.Time)
	StopSession(ctx context.Context, now time.Time)
	IsTimerRunning() bool
	SessionStartDate() (time.Time, bool)

	EditActivity(act activity.Activity)
	SetDraftObjective(objectiveID *uuid.UUID)
	SetDraftDuration(seconds float64)
	SetDraftNote(note string)
	SetDraftTags(tags string)
	SetDraftQuantityValue(value float64, keyResultID uuid.UUID)
	Draft() (*tracker.ActivityDraft, bool)
	SaveDraft(ctx context.Context)
	DiscardDraft()

	Activities() []activity.Activity
	DeleteActivity(ctx context.Context, act activity.Activity)

	Objectives() []objective.Objective
	ActiveObjectives() []objective.Objective
	ArchivedObjectives() []objective.Objective
	HandleObjectiveSubmission(ctx context.Context, sub objective.Submission)
	DeleteObjective(ctx context.Context, id uuid.UUID)
	ArchiveObjective(ctx context.Context, id uuid.UUID, now time.Time)
	UnarchiveObjective(ctx context.Context, id uuid.UUID)

	Sessions(ctx context.Context) ([]session.Session, error)
	Insights(now time.Time) insights.Snapshot
	Refresh(ctx context.Context) error
}

// Config contains server configuration.
type Config struct {
	Engine Engine
	Logger *slog.Logger
}

const serverInstructions = `Cadence tracks focused work sessions against objectives.

Typical flow: start_session when work begins, stop_session when it ends. Stopping
opens a draft; link it to an objective with set_draft_objective, annotate it with
set_draft_note and set_draft_tags, then commit with save_draft. Objectives hold
key results with time or quantity targets; linked activity time counts toward
them automatically. Use get_insights for streaks and per-objective totals.`

// NewServer creates and configures an MCP server with all tools registered.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "cadence",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerTools(server, cfg.Engine)

	return server
}
