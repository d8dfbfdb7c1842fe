package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rgale/cadence/internal/domain/activity"
	"github.com/rgale/cadence/internal/domain/objective"
	"github.com/rgale/cadence/internal/repository"
)

func TestActivityRepository_RoundTrip(t *testing.T) {
	db := NewTestDB(t)
	objectiveRepo := NewObjectiveRepository(db)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	kr := timeKeyResult("Hours", objective.UnitHours, 10, 0)
	obj := newObjective("Linked", kr)
	require.NoError(t, objectiveRepo.UpsertObjective(ctx, obj))

	objID := obj.ID
	note := "morning block"
	act := activity.Activity{
		ID:                uuid.New(),
		Date:              time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
		Duration:          5400,
		LinkedObjectiveID: &objID,
		Note:              &note,
		Tags:              []string{"deep", "writing"},
		Allocations:       []activity.Allocation{{KeyResultID: kr.ID, Seconds: 5400}},
	}
	require.NoError(t, repo.RecordActivity(ctx, act))

	loaded, err := repo.LoadActivities(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	require.Equal(t, act.ID, got.ID)
	require.Equal(t, 5400.0, got.Duration)
	require.NotNil(t, got.LinkedObjectiveID)
	require.Equal(t, objID, *got.LinkedObjectiveID)
	require.NotNil(t, got.Note)
	require.Equal(t, note, *got.Note)
	require.Equal(t, []string{"deep", "writing"}, got.Tags)
	require.Len(t, got.Allocations, 1)
	require.Equal(t, kr.ID, got.Allocations[0].KeyResultID)
	require.Equal(t, 5400.0, got.Allocations[0].Seconds)
}

func TestActivityRepository_LoadOrdersByDateDescending(t *testing.T) {
	db := NewTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	older := activity.Activity{ID: uuid.New(), Date: base.AddDate(0, 0, -2), Duration: 600}
	newest := activity.Activity{ID: uuid.New(), Date: base, Duration: 600}
	middle := activity.Activity{ID: uuid.New(), Date: base.AddDate(0, 0, -1), Duration: 600}
	for _, act := range []activity.Activity{older, newest, middle} {
		require.NoError(t, repo.RecordActivity(ctx, act))
	}

	loaded, err := repo.LoadActivities(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	require.Equal(t, newest.ID, loaded[0].ID)
	require.Equal(t, middle.ID, loaded[1].ID)
	require.Equal(t, older.ID, loaded[2].ID)
}

func TestActivityRepository_UpdateReplacesAllocations(t *testing.T) {
	db := NewTestDB(t)
	objectiveRepo := NewObjectiveRepository(db)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	first := timeKeyResult("First", objective.UnitMinutes, 60, 0)
	second := timeKeyResult("Second", objective.UnitMinutes, 60, 0)
	obj := newObjective("Split", first, second)
	require.NoError(t, objectiveRepo.UpsertObjective(ctx, obj))

	objID := obj.ID
	act := activity.Activity{
		ID:                uuid.New(),
		Date:              time.Now().UTC(),
		Duration:          1800,
		LinkedObjectiveID: &objID,
		Allocations:       []activity.Allocation{{KeyResultID: first.ID, Seconds: 1800}},
	}
	require.NoError(t, repo.RecordActivity(ctx, act))

	act.Allocations = []activity.Allocation{
		{KeyResultID: second.ID, Seconds: 1200},
		{KeyResultID: first.ID, Seconds: 600},
	}
	require.NoError(t, repo.UpdateActivity(ctx, act))

	loaded, err := repo.LoadActivities(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Len(t, loaded[0].Allocations, 2)
	require.Equal(t, second.ID, loaded[0].Allocations[0].KeyResultID)
	require.Equal(t, 1200.0, loaded[0].Allocations[0].Seconds)
	require.Equal(t, first.ID, loaded[0].Allocations[1].KeyResultID)
	require.Equal(t, 600.0, loaded[0].Allocations[1].Seconds)
}

func TestActivityRepository_PersistNullifiesMissingObjective(t *testing.T) {
	db := NewTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	ghost := uuid.New()
	act := activity.Activity{
		ID:                uuid.New(),
		Date:              time.Now().UTC(),
		Duration:          600,
		LinkedObjectiveID: &ghost,
	}
	require.NoError(t, repo.RecordActivity(ctx, act))

	loaded, err := repo.LoadActivities(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Nil(t, loaded[0].LinkedObjectiveID)
}

func TestActivityRepository_NilTagsLoadAsEmpty(t *testing.T) {
	db := NewTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	act := activity.Activity{ID: uuid.New(), Date: time.Now().UTC(), Duration: 60}
	require.NoError(t, repo.RecordActivity(ctx, act))

	loaded, err := repo.LoadActivities(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Empty(t, loaded[0].Tags)
}

func TestActivityRepository_Remove(t *testing.T) {
	db := NewTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	act := activity.Activity{ID: uuid.New(), Date: time.Now().UTC(), Duration: 60}
	require.NoError(t, repo.RecordActivity(ctx, act))
	require.NoError(t, repo.RemoveActivity(ctx, act.ID))

	loaded, err := repo.LoadActivities(ctx)
	require.NoError(t, err)
	require.Empty(t, loaded)

	err = repo.RemoveActivity(ctx, act.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
