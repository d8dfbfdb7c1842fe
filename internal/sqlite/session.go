package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rgale/cadence/internal/domain/session"
	"github.com/rgale/cadence/internal/repository"
)

// SessionRepository implements repository.SessionRepository for SQLite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FetchSessions returns all timer records ordered by start time descending
func (r *SessionRepository) FetchSessions(ctx context.Context) ([]session.Session, error) {
	query := `
		SELECT id, started_at, duration_seconds
		FROM sessions
		ORDER BY started_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	defer rows.Close()

	var sessions []session.Session
	for rows.Next() {
		var sess session.Session
		var idRaw string
		if err := rows.Scan(&idRaw, &sess.StartedAt, &sess.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		id, err := uuid.Parse(idRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid session id %q: %w", idRaw, err)
		}
		sess.ID = id
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// AddSession inserts a timer record, replacing any record with the same id
func (r *SessionRepository) AddSession(ctx context.Context, sess session.Session) error {
	return r.upsert(ctx, sess, "failed to add session")
}

// UpdateSession upserts a timer record by identifier
func (r *SessionRepository) UpdateSession(ctx context.Context, sess session.Session) error {
	return r.upsert(ctx, sess, "failed to update session")
}

// DeleteSession removes a timer record
func (r *SessionRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
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

func (r *SessionRepository) upsert(ctx context.Context, sess session.Session, msg string) error {
	query := `
		INSERT INTO sessions (id, started_at, duration_seconds)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			duration_seconds = excluded.duration_seconds
	`
	if _, err := r.db.ExecContext(ctx, query, sess.ID.String(), sess.StartedAt, sess.Duration); err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return nil
}
