package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rgale/cadence/internal/domain/activity"
	"github.com/rgale/cadence/internal/domain/objective"
	"github.com/rgale/cadence/internal/domain/session"
)

// ObjectiveRepository manages objective persistence.
//
// LoadObjectives returns objectives ordered by title, case-insensitive and
// locale-aware, ascending, with key results in their declared order.
// UpsertObjective replaces the stored key-result list via identifier
// diffing: new entries are created, missing entries deleted, survivors
// updated with their order index rewritten.
// RemoveObjective nullifies the objective link on referencing activities
// and clears their allocations before deleting the objective itself.
type ObjectiveRepository interface {
	LoadObjectives(ctx context.Context) ([]objective.Objective, error)
	UpsertObjective(ctx context.Context, obj objective.Objective) error
	RemoveObjective(ctx context.Context, id uuid.UUID) error
	CreateObjective(ctx context.Context, title string, colorHex *string, endDate *time.Time, keyResults []objective.KeyResult) (objective.Objective, error)
}

// ActivityRepository manages activity persistence.
//
// LoadActivities returns activities ordered by date descending. Record and
// Update both upsert by identifier; an update fully replaces the stored
// allocation list and re-resolves the objective link, nullifying it when
// the objective no longer exists.
type ActivityRepository interface {
	LoadActivities(ctx context.Context) ([]activity.Activity, error)
	RecordActivity(ctx context.Context, act activity.Activity) error
	UpdateActivity(ctx context.Context, act activity.Activity) error
	RemoveActivity(ctx context.Context, id uuid.UUID) error
}

// SessionRepository manages raw timer history records.
type SessionRepository interface {
	FetchSessions(ctx context.Context) ([]session.Session, error)
	AddSession(ctx context.Context, sess session.Session) error
	UpdateSession(ctx context.Context, sess session.Session) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
}
