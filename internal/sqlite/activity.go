package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/rgale/cadence/internal/domain/activity"
	"github.com/rgale/cadence/internal/repository"
)

// ActivityRepository implements repository.ActivityRepository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// LoadActivities returns all activities ordered by date descending, each
// with its allocations in declared order.
func (r *ActivityRepository) LoadActivities(ctx context.Context) ([]activity.Activity, error) {
	query := `
		SELECT id, date, duration_seconds, objective_id, note, tags
		FROM activities
		ORDER BY date DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}
	defer rows.Close()

	var activities []activity.Activity
	for rows.Next() {
		var act activity.Activity
		var idRaw, tagsRaw string
		var objectiveRaw, note sql.NullString
		if err := rows.Scan(&idRaw, &act.Date, &act.Duration, &objectiveRaw, &note, &tagsRaw); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}

		id, err := uuid.Parse(idRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid activity id %q: %w", idRaw, err)
		}
		act.ID = id
		if objectiveRaw.Valid {
			objectiveID, err := uuid.Parse(objectiveRaw.String)
			if err != nil {
				return nil, fmt.Errorf("invalid objective id %q: %w", objectiveRaw.String, err)
			}
			act.LinkedObjectiveID = &objectiveID
		}
		if note.Valid {
			act.Note = &note.String
		}
		if err := json.Unmarshal([]byte(tagsRaw), &act.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}

		activities = append(activities, act)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	allocations, err := r.loadAllocations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range activities {
		activities[i].Allocations = allocations[activities[i].ID]
	}

	return activities, nil
}

// RecordActivity persists a new activity. It shares the upsert path with
// UpdateActivity, so re-recording an existing identifier updates in place.
func (r *ActivityRepository) RecordActivity(ctx context.Context, act activity.Activity) error {
	return r.persist(ctx, act)
}

// UpdateActivity upserts an activity, fully replacing its allocation list
// and re-resolving the objective link by identifier.
func (r *ActivityRepository) UpdateActivity(ctx context.Context, act activity.Activity) error {
	return r.persist(ctx, act)
}

// RemoveActivity deletes an activity; allocations go with it by cascade.
func (r *ActivityRepository) RemoveActivity(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ActivityRepository) persist(ctx context.Context, act activity.Activity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Nullify the link when the objective no longer exists.
	var objectiveID *string
	if act.LinkedObjectiveID != nil {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM objectives WHERE id = ?`, act.LinkedObjectiveID.String()).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to resolve objective link: %w", err)
		}
		if exists > 0 {
			raw := act.LinkedObjectiveID.String()
			objectiveID = &raw
		}
	}

	tags := act.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsRaw, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	upsert := `
		INSERT INTO activities (id, date, duration_seconds, objective_id, note, tags)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			duration_seconds = excluded.duration_seconds,
			objective_id = excluded.objective_id,
			note = excluded.note,
			tags = excluded.tags
	`
	_, err = tx.ExecContext(ctx, upsert,
		act.ID.String(),
		act.Date,
		act.Duration,
		objectiveID,
		act.Note,
		string(tagsRaw),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to upsert activity: %w", err)
	}

	// Full allocation replacement: delete old, insert new.
	if _, err := tx.ExecContext(ctx, `DELETE FROM activity_allocations WHERE activity_id = ?`, act.ID.String()); err != nil {
		return fmt.Errorf("failed to clear allocations: %w", err)
	}
	insert := `
		INSERT INTO activity_allocations (activity_id, key_result_id, seconds, sort_index)
		VALUES (?, ?, ?, ?)
	`
	for index, alloc := range act.Allocations {
		if _, err := tx.ExecContext(ctx, insert, act.ID.String(), alloc.KeyResultID.String(), alloc.Seconds, index); err != nil {
			return fmt.Errorf("failed to insert allocation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *ActivityRepository) loadAllocations(ctx context.Context) (map[uuid.UUID][]activity.Allocation, error) {
	query := `
		SELECT activity_id, key_result_id, seconds
		FROM activity_allocations
		ORDER BY activity_id, sort_index ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]activity.Allocation)
	for rows.Next() {
		var activityRaw, keyResultRaw string
		var seconds float64
		if err := rows.Scan(&activityRaw, &keyResultRaw, &seconds); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		activityID, err := uuid.Parse(activityRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid activity id %q: %w", activityRaw, err)
		}
		keyResultID, err := uuid.Parse(keyResultRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid key result id %q: %w", keyResultRaw, err)
		}
		result[activityID] = append(result[activityID], activity.Allocation{
			KeyResultID: keyResultID,
			Seconds:     seconds,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocations: %w", err)
	}

	return result, nil
}
