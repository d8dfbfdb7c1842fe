package objective

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTimeUnitConversion(t *testing.T) {
	require.Equal(t, 60.0, UnitMinutes.SecondsPerUnit())
	require.Equal(t, 3600.0, UnitHours.SecondsPerUnit())
	require.Equal(t, 1.5, UnitHours.FromSeconds(5400))
	require.Equal(t, 90.0, UnitMinutes.FromSeconds(5400))
	require.Equal(t, 5400.0, UnitHours.ToSeconds(1.5))
}

func TestTimeMetricProgressFraction(t *testing.T) {
	require.Equal(t, 0.5, TimeMetric{Unit: UnitHours, Target: 10, Logged: 5}.ProgressFraction())
	require.Equal(t, 1.0, TimeMetric{Unit: UnitHours, Target: 10, Logged: 15}.ProgressFraction(), "overshoot clamps to 1")
	require.Equal(t, 0.0, TimeMetric{Unit: UnitHours, Target: 0, Logged: 5}.ProgressFraction(), "non-positive target")
	require.Equal(t, 0.0, TimeMetric{Unit: UnitHours, Target: -1, Logged: 5}.ProgressFraction())
}

func TestQuantityMetricProgressFraction(t *testing.T) {
	require.Equal(t, 0.25, QuantityMetric{Unit: "pages", Target: 100, Current: 25}.ProgressFraction())
	require.Equal(t, 1.0, QuantityMetric{Unit: "pages", Target: 100, Current: 200}.ProgressFraction())
	require.Equal(t, 0.0, QuantityMetric{Unit: "pages", Target: 0, Current: 25}.ProgressFraction())
}

func TestKeyResultProgress(t *testing.T) {
	require.Equal(t, 0.0, KeyResult{ID: uuid.New(), Title: "bare"}.Progress(), "no metrics")

	timeOnly := KeyResult{
		TimeMetric: &TimeMetric{Unit: UnitHours, Target: 10, Logged: 5},
	}
	require.Equal(t, 0.5, timeOnly.Progress())

	both := KeyResult{
		TimeMetric:     &TimeMetric{Unit: UnitHours, Target: 10, Logged: 10},
		QuantityMetric: &QuantityMetric{Unit: "pages", Target: 100, Current: 0},
	}
	require.Equal(t, 0.5, both.Progress(), "mean of present metrics")
}

func TestObjectiveProgress(t *testing.T) {
	require.Equal(t, 0.0, Objective{Title: "empty"}.Progress())

	obj := Objective{
		KeyResults: []KeyResult{
			{TimeMetric: &TimeMetric{Unit: UnitHours, Target: 10, Logged: 10}},
			{QuantityMetric: &QuantityMetric{Unit: "pages", Target: 100, Current: 50}},
		},
	}
	require.Equal(t, 0.75, obj.Progress())
}

func TestUpdateCompletion(t *testing.T) {
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	obj := Objective{
		KeyResults: []KeyResult{
			{QuantityMetric: &QuantityMetric{Unit: "pages", Target: 10, Current: 10}},
		},
	}

	obj.UpdateCompletion(now)
	require.NotNil(t, obj.CompletedAt)
	require.True(t, obj.CompletedAt.Equal(now))

	// A later call with completion still satisfied keeps the first stamp.
	later := now.Add(time.Hour)
	obj.UpdateCompletion(later)
	require.True(t, obj.CompletedAt.Equal(now))

	// Dropping below full progress clears the stamp.
	obj.KeyResults[0].QuantityMetric.Current = 5
	obj.UpdateCompletion(later)
	require.Nil(t, obj.CompletedAt)
}

func TestIsArchived(t *testing.T) {
	obj := Objective{}
	require.False(t, obj.IsArchived())
	stamp := time.Now()
	obj.ArchivedAt = &stamp
	require.True(t, obj.IsArchived())
}

func TestKeyResultLookup(t *testing.T) {
	kr := KeyResult{ID: uuid.New(), Title: "target"}
	obj := Objective{KeyResults: []KeyResult{kr}}

	found := obj.KeyResult(kr.ID)
	require.NotNil(t, found)
	require.Equal(t, "target", found.Title)

	// The pointer aliases the objective's slice so mutations stick.
	found.Title = "renamed"
	require.Equal(t, "renamed", obj.KeyResults[0].Title)

	require.Nil(t, obj.KeyResult(uuid.New()))
}
