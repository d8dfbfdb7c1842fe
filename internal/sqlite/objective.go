package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/rgale/cadence/internal/domain/objective"
	"github.com/rgale/cadence/internal/repository"
)

// ObjectiveRepository implements repository.ObjectiveRepository for SQLite
type ObjectiveRepository struct {
	db       *DB
	collator *collate.Collator
}

// NewObjectiveRepository creates a new ObjectiveRepository
func NewObjectiveRepository(db *DB) *ObjectiveRepository {
	return &ObjectiveRepository{
		db:       db,
		collator: collate.New(language.Und, collate.IgnoreCase),
	}
}

// LoadObjectives returns all objectives ordered by title, case-insensitive
// locale-aware ascending, each with its key results in declared order.
func (r *ObjectiveRepository) LoadObjectives(ctx context.Context) ([]objective.Objective, error) {
	query := `
		SELECT id, title, color_hex, end_date, completed_at, archived_at
		FROM objectives
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load objectives: %w", err)
	}
	defer rows.Close()

	var objectives []objective.Objective
	for rows.Next() {
		obj, err := scanObjective(rows)
		if err != nil {
			return nil, err
		}
		objectives = append(objectives, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating objectives: %w", err)
	}

	keyResults, err := r.loadKeyResults(ctx)
	if err != nil {
		return nil, err
	}
	for i := range objectives {
		objectives[i].KeyResults = keyResults[objectives[i].ID]
	}

	// SQLite's NOCASE collation only folds ASCII, so order in-process.
	sort.SliceStable(objectives, func(i, j int) bool {
		return r.collator.CompareString(objectives[i].Title, objectives[j].Title) < 0
	})

	return objectives, nil
}

// UpsertObjective inserts or updates an objective and synchronizes its
// key-result list by identifier diffing: entries absent from storage are
// created, stored entries absent from the list are deleted, survivors are
// updated and their order index rewritten.
func (r *ObjectiveRepository) UpsertObjective(ctx context.Context, obj objective.Objective) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO objectives (id, title, color_hex, end_date, completed_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			color_hex = excluded.color_hex,
			end_date = excluded.end_date,
			completed_at = excluded.completed_at,
			archived_at = excluded.archived_at
	`
	_, err = tx.ExecContext(ctx, upsert,
		obj.ID.String(),
		obj.Title,
		obj.ColorHex,
		obj.EndDate,
		obj.CompletedAt,
		obj.ArchivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert objective: %w", err)
	}

	if err := syncKeyResults(ctx, tx, obj); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RemoveObjective deletes an objective. Referencing activities lose both
// their objective link and their allocations; key results are deleted by
// the ownership cascade.
func (r *ObjectiveRepository) RemoveObjective(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	clearAllocations := `
		DELETE FROM activity_allocations
		WHERE activity_id IN (SELECT id FROM activities WHERE objective_id = ?)
	`
	if _, err := tx.ExecContext(ctx, clearAllocations, id.String()); err != nil {
		return fmt.Errorf("failed to clear allocations: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE activities SET objective_id = NULL WHERE objective_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to nullify activity links: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM objectives WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete objective: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateObjective constructs a new objective, persists it and returns the
// stored value.
func (r *ObjectiveRepository) CreateObjective(ctx context.Context, title string, colorHex *string, endDate *time.Time, keyResults []objective.KeyResult) (objective.Objective, error) {
	obj := objective.Objective{
		ID:         uuid.New(),
		Title:      title,
		ColorHex:   colorHex,
		EndDate:    endDate,
		KeyResults: keyResults,
	}
	if err := r.UpsertObjective(ctx, obj); err != nil {
		return objective.Objective{}, err
	}
	return obj, nil
}

func syncKeyResults(ctx context.Context, tx *sql.Tx, obj objective.Objective) error {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM key_results WHERE objective_id = ?`, obj.ID.String())
	if err != nil {
		return fmt.Errorf("failed to load stored key results: %w", err)
	}
	stored := make(map[uuid.UUID]bool)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan key result id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			rows.Close()
			return fmt.Errorf("invalid key result id %q: %w", raw, err)
		}
		stored[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating key result ids: %w", err)
	}

	upsert := `
		INSERT INTO key_results (
			id, objective_id, title, sort_index,
			time_unit, time_target, time_logged,
			quantity_unit, quantity_target, quantity_current
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			sort_index = excluded.sort_index,
			time_unit = excluded.time_unit,
			time_target = excluded.time_target,
			time_logged = excluded.time_logged,
			quantity_unit = excluded.quantity_unit,
			quantity_target = excluded.quantity_target,
			quantity_current = excluded.quantity_current
	`
	for index, kr := range obj.KeyResults {
		var timeUnit, quantityUnit *string
		var timeTarget, timeLogged, quantityTarget, quantityCurrent *float64
		if kr.TimeMetric != nil {
			unit := string(kr.TimeMetric.Unit)
			timeUnit = &unit
			timeTarget = &kr.TimeMetric.Target
			timeLogged = &kr.TimeMetric.Logged
		}
		if kr.QuantityMetric != nil {
			quantityUnit = &kr.QuantityMetric.Unit
			quantityTarget = &kr.QuantityMetric.Target
			quantityCurrent = &kr.QuantityMetric.Current
		}

		_, err := tx.ExecContext(ctx, upsert,
			kr.ID.String(),
			obj.ID.String(),
			kr.Title,
			index,
			timeUnit, timeTarget, timeLogged,
			quantityUnit, quantityTarget, quantityCurrent,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert key result: %w", err)
		}
		delete(stored, kr.ID)
	}

	for id := range stored {
		if _, err := tx.ExecContext(ctx, `DELETE FROM key_results WHERE id = ?`, id.String()); err != nil {
			return fmt.Errorf("failed to delete removed key result: %w", err)
		}
	}
	return nil
}

func (r *ObjectiveRepository) loadKeyResults(ctx context.Context) (map[uuid.UUID][]objective.KeyResult, error) {
	query := `
		SELECT objective_id, id, title,
		       time_unit, time_target, time_logged,
		       quantity_unit, quantity_target, quantity_current
		FROM key_results
		ORDER BY objective_id, sort_index ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load key results: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]objective.KeyResult)
	for rows.Next() {
		var objectiveRaw, idRaw, title string
		var timeUnit, quantityUnit sql.NullString
		var timeTarget, timeLogged, quantityTarget, quantityCurrent sql.NullFloat64
		err := rows.Scan(
			&objectiveRaw, &idRaw, &title,
			&timeUnit, &timeTarget, &timeLogged,
			&quantityUnit, &quantityTarget, &quantityCurrent,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan key result: %w", err)
		}

		objectiveID, err := uuid.Parse(objectiveRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid objective id %q: %w", objectiveRaw, err)
		}
		id, err := uuid.Parse(idRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid key result id %q: %w", idRaw, err)
		}

		kr := objective.KeyResult{ID: id, Title: title}
		if timeUnit.Valid && timeTarget.Valid {
			kr.TimeMetric = &objective.TimeMetric{
				Unit:   objective.TimeUnit(timeUnit.String),
				Target: timeTarget.Float64,
				Logged: timeLogged.Float64,
			}
		}
		if quantityUnit.Valid && quantityTarget.Valid {
			kr.QuantityMetric = &objective.QuantityMetric{
				Unit:    quantityUnit.String,
				Target:  quantityTarget.Float64,
				Current: quantityCurrent.Float64,
			}
		}
		result[objectiveID] = append(result[objectiveID], kr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating key results: %w", err)
	}

	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObjective(row rowScanner) (objective.Objective, error) {
	var obj objective.Objective
	var idRaw string
	var colorHex sql.NullString
	var endDate, completedAt, archivedAt sql.NullTime
	err := row.Scan(&idRaw, &obj.Title, &colorHex, &endDate, &completedAt, &archivedAt)
	if err != nil {
		return objective.Objective{}, fmt.Errorf("failed to scan objective: %w", err)
	}

	id, err := uuid.Parse(idRaw)
	if err != nil {
		return objective.Objective{}, fmt.Errorf("invalid objective id %q: %w", idRaw, err)
	}
	obj.ID = id
	if colorHex.Valid {
		obj.ColorHex = &colorHex.String
	}
	if endDate.Valid {
		obj.EndDate = &endDate.Time
	}
	if completedAt.Valid {
		obj.CompletedAt = &completedAt.Time
	}
	if archivedAt.Valid {
		obj.ArchivedAt = &archivedAt.Time
	}
	return obj, nil
}
