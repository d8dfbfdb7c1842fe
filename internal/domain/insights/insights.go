package insights

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rgale/cadence/internal/domain/activity"
	"github.com/rgale/cadence/internal/domain/objective"
)

// ObjectiveStat aggregates the activities linked to one objective.
type ObjectiveStat struct {
	Objective     objective.Objective `json:"objective"`
	TotalDuration float64             `json:"total_duration_seconds"`
	SessionCount  int                 `json:"session_count"`
	Percentage    float64             `json:"percentage"`
}

// DayStat summarizes one calendar day of activity.
type DayStat struct {
	Date          time.Time `json:"date"`
	Label         string    `json:"label"`
	TotalDuration float64   `json:"total_duration_seconds"`
	SessionCount  int       `json:"session_count"`
}

// Snapshot is a derived view over the activity history. It is recomputed
// from scratch on every call and holds no state of its own.
type Snapshot struct {
	TotalDuration             float64         `json:"total_duration_seconds"`
	TotalSessions             int             `json:"total_sessions"`
	AverageDuration           float64         `json:"average_duration_seconds"`
	ActiveObjectivesCount     int             `json:"active_objectives_count"`
	TrackedDaysCount          int             `json:"tracked_days_count"`
	CurrentStreakCount        int             `json:"current_streak_count"`
	FocusObjective            *ObjectiveStat  `json:"focus_objective,omitempty"`
	TopObjectives             []ObjectiveStat `json:"top_objectives"`
	LastActivityDate          *time.Time      `json:"last_activity_date,omitempty"`
	LastSevenDays             []DayStat       `json:"last_seven_days"`
	LastSevenDaysDuration     float64         `json:"last_seven_days_duration_seconds"`
	LastSevenDaysSessionCount int             `json:"last_seven_days_session_count"`
}

// Compute derives a statistics snapshot from the given activities and
// objectives. Calendar arithmetic uses the location of now.
func Compute(activities []activity.Activity, objectives []objective.Objective, now time.Time) Snapshot {
	snap := Snapshot{TotalSessions: len(activities)}
	loc := now.Location()

	for _, obj := range objectives {
		if !obj.IsArchived() {
			snap.ActiveObjectivesCount++
		}
	}

	byDay := make(map[time.Time][]activity.Activity)
	for _, act := range activities {
		snap.TotalDuration += act.Duration
		day := startOfDay(act.Date, loc)
		byDay[day] = append(byDay[day], act)

		if snap.LastActivityDate == nil || act.Date.After(*snap.LastActivityDate) {
			date := act.Date
			snap.LastActivityDate = &date
		}
	}
	if snap.TotalSessions > 0 {
		snap.AverageDuration = snap.TotalDuration / float64(snap.TotalSessions)
	}
	snap.TrackedDaysCount = len(byDay)
	snap.CurrentStreakCount = streak(byDay)

	snap.TopObjectives = []ObjectiveStat{}
	stats := objectiveStats(activities, objectives)
	if len(stats) > 0 {
		focus := stats[0]
		snap.FocusObjective = &focus
		top := stats
		if len(top) > 3 {
			top = top[:3]
		}
		snap.TopObjectives = top
	}

	today := startOfDay(now, loc)
	snap.LastSevenDays = make([]DayStat, 0, 7)
	for offset := -6; offset <= 0; offset++ {
		day := today.AddDate(0, 0, offset)
		stat := DayStat{Date: day, Label: day.Weekday().String()[:3]}
		for _, act := range byDay[day] {
			stat.TotalDuration += act.Duration
			stat.SessionCount++
		}
		snap.LastSevenDaysDuration += stat.TotalDuration
		snap.LastSevenDaysSessionCount += stat.SessionCount
		snap.LastSevenDays = append(snap.LastSevenDays, stat)
	}

	return snap
}

// streak counts consecutive tracked calendar days ending at the most
// recent tracked day.
func streak(byDay map[time.Time][]activity.Activity) int {
	if len(byDay) == 0 {
		return 0
	}
	var latest time.Time
	for day := range byDay {
		if day.After(latest) {
			latest = day
		}
	}
	count := 1
	cursor := latest
	for {
		previous := cursor.AddDate(0, 0, -1)
		if _, ok := byDay[previous]; !ok {
			return count
		}
		count++
		cursor = previous
	}
}

func objectiveStats(activities []activity.Activity, objectives []objective.Objective) []ObjectiveStat {
	byID := make(map[uuid.UUID]objective.Objective, len(objectives))
	for _, obj := range objectives {
		byID[obj.ID] = obj
	}

	type aggregate struct {
		duration float64
		count    int
	}
	totals := make(map[uuid.UUID]*aggregate)
	var linkedTotal float64
	for _, act := range activities {
		if act.LinkedObjectiveID == nil {
			continue
		}
		id := *act.LinkedObjectiveID
		if _, known := byID[id]; !known {
			continue
		}
		agg := totals[id]
		if agg == nil {
			agg = &aggregate{}
			totals[id] = agg
		}
		agg.duration += act.Duration
		agg.count++
		linkedTotal += act.Duration
	}

	stats := make([]ObjectiveStat, 0, len(totals))
	for id, agg := range totals {
		percentage := 0.0
		if linkedTotal > 0 {
			percentage = agg.duration / linkedTotal
		}
		stats = append(stats, ObjectiveStat{
			Objective:     byID[id],
			TotalDuration: agg.duration,
			SessionCount:  agg.count,
			Percentage:    percentage,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalDuration != stats[j].TotalDuration {
			return stats[i].TotalDuration > stats[j].TotalDuration
		}
		return stats[i].Objective.Title < stats[j].Objective.Title
	})
	return stats
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
