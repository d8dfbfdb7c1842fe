package tracker

import (
	"time"

	"github.com/google/uuid"

	"github.com/rgale/cadence/internal/domain/activity"
)

// ActivityDraft is an in-progress, uncommitted activity edit. A draft is
// either new (seeded by a stopped timer) or editing (seeded from an
// existing activity).
type ActivityDraft struct {
	original *activity.Activity

	StartedAt           time.Time
	Duration            float64
	SelectedObjectiveID *uuid.UUID
	TimeAllocations     map[uuid.UUID]float64
	QuantityValues      map[uuid.UUID]float64
	Note                string
	TagsText            string
}

// IsEditing reports whether the draft edits an existing activity.
func (d *ActivityDraft) IsEditing() bool {
	return d.original != nil
}

// OriginalActivity returns a copy of the activity being edited, if any.
func (d *ActivityDraft) OriginalActivity() (activity.Activity, bool) {
	if d.original == nil {
		return activity.Activity{}, false
	}
	return *d.original, true
}

func (d *ActivityDraft) clone() *ActivityDraft {
	copied := *d
	copied.TimeAllocations = make(map[uuid.UUID]float64, len(d.TimeAllocations))
	for id, seconds := range d.TimeAllocations {
		copied.TimeAllocations[id] = seconds
	}
	copied.QuantityValues = make(map[uuid.UUID]float64, len(d.QuantityValues))
	for id, value := range d.QuantityValues {
		copied.QuantityValues[id] = value
	}
	return &copied
}
