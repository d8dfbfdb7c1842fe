package mcp

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rgale/cadence/internal/domain/objective"
)

func TestSubmitObjectiveInputToSubmission(t *testing.T) {
	in := submitObjectiveInput{
		Title:    "Deep work",
		ColorHex: "#FF8800",
		EndDate:  "2026-12-31T00:00:00Z",
		KeyResults: []keyResultInput{
			{
				Title:      "Focused hours",
				TimeMetric: &timeMetricInput{Unit: "hours", Target: 40},
			},
			{
				Title:          "Chapters",
				QuantityMetric: &quantityMetricInput{Unit: "chapters", Target: 12, Current: 3},
			},
		},
	}

	sub, err := in.toSubmission()
	require.NoError(t, err)
	require.Nil(t, sub.ID)
	require.Equal(t, "Deep work", sub.Title)
	require.NotNil(t, sub.ColorHex)
	require.Equal(t, "#FF8800", *sub.ColorHex)
	require.NotNil(t, sub.EndDate)

	require.Len(t, sub.KeyResults, 2)
	require.NotEqual(t, uuid.Nil, sub.KeyResults[0].ID, "missing id gets generated")
	require.NotNil(t, sub.KeyResults[0].TimeMetric)
	require.Equal(t, objective.UnitHours, sub.KeyResults[0].TimeMetric.Unit)
	require.NotNil(t, sub.KeyResults[1].QuantityMetric)
	require.Equal(t, 3.0, sub.KeyResults[1].QuantityMetric.Current)
}

func TestSubmitObjectiveInputKeepsExistingIDs(t *testing.T) {
	objID := uuid.New()
	krID := uuid.New()
	in := submitObjectiveInput{
		ID:    objID.String(),
		Title: "Existing",
		KeyResults: []keyResultInput{
			{ID: krID.String(), Title: "Kept"},
		},
	}

	sub, err := in.toSubmission()
	require.NoError(t, err)
	require.NotNil(t, sub.ID)
	require.Equal(t, objID, *sub.ID)
	require.Equal(t, krID, sub.KeyResults[0].ID)
}

func TestSubmitObjectiveInputValidation(t *testing.T) {
	_, err := submitObjectiveInput{}.toSubmission()
	require.Error(t, err, "missing title")

	_, err = submitObjectiveInput{Title: "x", ID: "not-a-uuid"}.toSubmission()
	require.Error(t, err)

	_, err = submitObjectiveInput{Title: "x", EndDate: "tomorrow"}.toSubmission()
	require.Error(t, err)

	_, err = submitObjectiveInput{
		Title:      "x",
		KeyResults: []keyResultInput{{Title: "kr", TimeMetric: &timeMetricInput{Unit: "days", Target: 1}}},
	}.toSubmission()
	require.Error(t, err, "invalid time unit")

	_, err = submitObjectiveInput{
		Title:      "x",
		KeyResults: []keyResultInput{{Title: ""}},
	}.toSubmission()
	require.Error(t, err, "key result title required")
}
