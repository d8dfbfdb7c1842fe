package activity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	require.Nil(t, ParseTags(""))
	require.Nil(t, ParseTags("   "))
	require.Equal(t, []string{"deep"}, ParseTags("deep"))
	require.Equal(t, []string{"deep", "writing"}, ParseTags(" deep , writing "))
	require.Equal(t, []string{"a", "b"}, ParseTags("a,,b,"), "empty segments dropped")
}

func TestNormalizeNote(t *testing.T) {
	require.Nil(t, NormalizeNote(""))
	require.Nil(t, NormalizeNote("  \t "))

	note := NormalizeNote("  morning block ")
	require.NotNil(t, note)
	require.Equal(t, "morning block", *note)
}

func TestClearObjectiveLink(t *testing.T) {
	objID := uuid.New()
	act := Activity{
		ID:                uuid.New(),
		LinkedObjectiveID: &objID,
		Allocations:       []Allocation{{KeyResultID: uuid.New(), Seconds: 600}},
	}

	act.ClearObjectiveLink()
	require.Nil(t, act.LinkedObjectiveID)
	require.Empty(t, act.Allocations)
}
