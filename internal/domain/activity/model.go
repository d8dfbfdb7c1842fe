package activity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Allocation attributes a portion of an activity's duration to a
// time-tracked key result.
type Allocation struct {
	KeyResultID uuid.UUID `json:"key_result_id"`
	Seconds     float64   `json:"seconds"`
}

// Activity is a recorded work session, optionally linked to one objective.
// The activity owns its allocations; the objective link is non-owning.
type Activity struct {
	ID                uuid.UUID    `json:"id"`
	Date              time.Time    `json:"date"`
	Duration          float64      `json:"duration_seconds"`
	LinkedObjectiveID *uuid.UUID   `json:"linked_objective_id,omitempty"`
	Note              *string      `json:"note,omitempty"`
	Tags              []string     `json:"tags"`
	Allocations       []Allocation `json:"allocations"`
}

// ClearObjectiveLink removes the objective reference and the allocations
// that depended on it. Applied when the linked objective is deleted.
func (a *Activity) ClearObjectiveLink() {
	a.LinkedObjectiveID = nil
	a.Allocations = nil
}

// ParseTags splits free text on commas, trims whitespace and drops empties.
func ParseTags(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(trimmed, ",") {
		tag := strings.TrimSpace(part)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// NormalizeNote trims the note and maps an empty result to absent.
func NormalizeNote(text string) *string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
