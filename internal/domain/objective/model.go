package objective

import (
	"time"

	"github.com/google/uuid"
)

// TimeUnit is the unit a time metric is denominated in.
type TimeUnit string

const (
	UnitMinutes TimeUnit = "minutes"
	UnitHours   TimeUnit = "hours"
)

// SecondsPerUnit returns the number of seconds in one unit.
func (u TimeUnit) SecondsPerUnit() float64 {
	switch u {
	case UnitHours:
		return 3600
	default:
		return 60
	}
}

// FromSeconds converts a duration in seconds into this unit.
func (u TimeUnit) FromSeconds(seconds float64) float64 {
	return seconds / u.SecondsPerUnit()
}

// ToSeconds converts a value in this unit into seconds.
func (u TimeUnit) ToSeconds(value float64) float64 {
	return value * u.SecondsPerUnit()
}

// TimeMetric tracks elapsed time against a target, both in Unit.
type TimeMetric struct {
	Unit   TimeUnit `json:"unit"`
	Target float64  `json:"target"`
	Logged float64  `json:"logged"`
}

// ProgressFraction returns logged/target clamped to [0,1].
// A non-positive target yields 0.
func (m TimeMetric) ProgressFraction() float64 {
	if m.Target <= 0 {
		return 0
	}
	return clamp01(m.Logged / m.Target)
}

// QuantityMetric tracks a free-form countable amount against a target.
type QuantityMetric struct {
	Unit    string  `json:"unit"`
	Target  float64 `json:"target"`
	Current float64 `json:"current"`
}

// ProgressFraction returns current/target clamped to [0,1].
// A non-positive target yields 0.
func (m QuantityMetric) ProgressFraction() float64 {
	if m.Target <= 0 {
		return 0
	}
	return clamp01(m.Current / m.Target)
}

// KeyResult is a measurable sub-goal of an objective. It carries at most
// one time metric and at most one quantity metric.
type KeyResult struct {
	ID             uuid.UUID       `json:"id"`
	Title          string          `json:"title"`
	TimeMetric     *TimeMetric     `json:"time_metric,omitempty"`
	QuantityMetric *QuantityMetric `json:"quantity_metric,omitempty"`
}

// Progress is the mean of the fractions of whichever metrics are present,
// or 0 when the key result has no metrics.
func (k KeyResult) Progress() float64 {
	var total float64
	var count int
	if k.TimeMetric != nil {
		total += k.TimeMetric.ProgressFraction()
		count++
	}
	if k.QuantityMetric != nil {
		total += k.QuantityMetric.ProgressFraction()
		count++
	}
	if count == 0 {
		return 0
	}
	return clamp01(total / float64(count))
}

// Objective is a goal composed of ordered key results.
type Objective struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	ColorHex    *string     `json:"color_hex,omitempty"`
	EndDate     *time.Time  `json:"end_date,omitempty"`
	KeyResults  []KeyResult `json:"key_results"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	ArchivedAt  *time.Time  `json:"archived_at,omitempty"`
}

// Progress is the arithmetic mean of key-result progress, clamped to [0,1].
// An objective with no key results has progress 0.
func (o Objective) Progress() float64 {
	if len(o.KeyResults) == 0 {
		return 0
	}
	var total float64
	for _, kr := range o.KeyResults {
		total += kr.Progress()
	}
	return clamp01(total / float64(len(o.KeyResults)))
}

// IsArchived reports whether the objective has been archived.
func (o Objective) IsArchived() bool {
	return o.ArchivedAt != nil
}

// UpdateCompletion stamps CompletedAt when progress reaches 1 and clears
// it when progress drops below 1. Called after every key-result mutation.
func (o *Objective) UpdateCompletion(now time.Time) {
	if o.Progress() >= 1 {
		if o.CompletedAt == nil {
			stamp := now
			o.CompletedAt = &stamp
		}
	} else {
		o.CompletedAt = nil
	}
}

// KeyResult returns the key result with the given ID, or nil.
func (o *Objective) KeyResult(id uuid.UUID) *KeyResult {
	for i := range o.KeyResults {
		if o.KeyResults[i].ID == id {
			return &o.KeyResults[i]
		}
	}
	return nil
}

// Submission carries the fields of an objective create/update form.
// A nil ID requests creation.
type Submission struct {
	ID         *uuid.UUID
	Title      string
	ColorHex   *string
	EndDate    *time.Time
	KeyResults []KeyResult
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
