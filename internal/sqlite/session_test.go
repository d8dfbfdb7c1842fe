package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rgale/cadence/internal/domain/session"
	"github.com/rgale/cadence/internal/repository"
)

func TestSessionRepository_RoundTrip(t *testing.T) {
	db := NewTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	sess := session.Session{
		ID:        uuid.New(),
		StartedAt: time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC),
		Duration:  1500,
	}
	require.NoError(t, repo.AddSession(ctx, sess))

	loaded, err := repo.FetchSessions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, sess.ID, loaded[0].ID)
	require.True(t, loaded[0].StartedAt.Equal(sess.StartedAt))
	require.Equal(t, 1500.0, loaded[0].Duration)
}

func TestSessionRepository_FetchOrdersByStartDescending(t *testing.T) {
	db := NewTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	older := session.Session{ID: uuid.New(), StartedAt: base.Add(-2 * time.Hour), Duration: 60}
	newer := session.Session{ID: uuid.New(), StartedAt: base, Duration: 60}
	require.NoError(t, repo.AddSession(ctx, older))
	require.NoError(t, repo.AddSession(ctx, newer))

	loaded, err := repo.FetchSessions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Equal(t, newer.ID, loaded[0].ID)
	require.Equal(t, older.ID, loaded[1].ID)
}

func TestSessionRepository_UpdateUpserts(t *testing.T) {
	db := NewTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	sess := session.Session{ID: uuid.New(), StartedAt: time.Now().UTC(), Duration: 60}
	require.NoError(t, repo.AddSession(ctx, sess))

	sess.Duration = 120
	require.NoError(t, repo.UpdateSession(ctx, sess))

	loaded, err := repo.FetchSessions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, 120.0, loaded[0].Duration)
}

func TestSessionRepository_Delete(t *testing.T) {
	db := NewTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	sess := session.Session{ID: uuid.New(), StartedAt: time.Now().UTC(), Duration: 60}
	require.NoError(t, repo.AddSession(ctx, sess))
	require.NoError(t, repo.DeleteSession(ctx, sess.ID))

	err := repo.DeleteSession(ctx, sess.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
