package analytics

import (
	"dayplan/internal/clock"
	"dayplan/internal/model"
)

type TimeStatus string

const (
	StatusUpcoming          TimeStatus = "upcoming"
	StatusShouldBeActiveNow TimeStatus = "should_be_active_now"
	StatusPastScheduledTime TimeStatus = "past_scheduled_time"
)

// ItemProgress joins one plan row with its timer at read time.
type ItemProgress struct {
	ItemID           string           `json:"itemId"`
	Kind             model.ItemKind   `json:"kind"`
	Title            string           `json:"title"`
	Order            int              `json:"order"`
	EstimatedMinutes int              `json:"estimatedMinutes"`
	StartTime        *clock.TimeOfDay `json:"startTime,omitempty"`
	EndTime          *clock.TimeOfDay `json:"endTime,omitempty"`
	ExceedsWindow    bool             `json:"exceedsWindow"`
	Status           string           `json:"status"`
	TimeSpentSeconds int              `json:"timeSpentSeconds"`
	TimeStatus       TimeStatus       `json:"timeStatus,omitempty"`
}

// Snapshot is the schedule-wide progress report. Breaks are excluded from
// every count.
type Snapshot struct {
	Now                    clock.TimeOfDay `json:"now"`
	TotalWorkItems         int             `json:"totalWorkItems"`
	CompletedCount         int             `json:"completedCount"`
	TotalPlannedMinutes    int             `json:"totalPlannedMinutes"`
	TotalActualMinutes     float64         `json:"totalActualMinutes"`
	CurrentActiveItemTitle string          `json:"currentActiveItemTitle,omitempty"`
	OnTimeCount            int             `json:"onTimeCount"`
	UpcomingCount          int             `json:"upcomingCount"`
	OverdueCount           int             `json:"overdueCount"`
	CompletionRate         float64         `json:"completionRate"`
	Items                  []ItemProgress  `json:"items"`
}

// Progress folds plan rows and their timers into a snapshot as of now.
func Progress(items []model.ScheduledItem, states map[string]model.TimerState, now clock.TimeOfDay) Snapshot {
	snap := Snapshot{Now: now, Items: make([]ItemProgress, 0, len(items))}

	for _, item := range items {
		st := states[item.ID]
		row := ItemProgress{
			ItemID:           item.ID,
			Kind:             item.Kind,
			Title:            item.Title,
			Order:            item.Order,
			EstimatedMinutes: item.EstimatedMinutes,
			StartTime:        item.StartTime,
			EndTime:          item.EndTime,
			ExceedsWindow:    item.ExceedsWindow,
			TimeStatus:       classify(item, now),
		}
		if !item.IsWork() {
			row.Status = string(model.KindBreak)
			snap.Items = append(snap.Items, row)
			continue
		}
		row.Status = st.Status()
		row.TimeSpentSeconds = st.TimeSpentSeconds
		snap.Items = append(snap.Items, row)

		snap.TotalWorkItems++
		snap.TotalPlannedMinutes += item.EstimatedMinutes
		snap.TotalActualMinutes += float64(st.TimeSpentSeconds) / 60

		switch {
		case st.Completed:
			snap.CompletedCount++
		case st.IsActive:
			snap.CurrentActiveItemTitle = item.Title
		default:
			snap.UpcomingCount++
		}
		if !st.Completed && item.ExceedsWindow {
			snap.OverdueCount++
		}
	}

	snap.OnTimeCount = snap.CompletedCount
	if snap.TotalWorkItems > 0 {
		snap.CompletionRate = float64(snap.CompletedCount) / float64(snap.TotalWorkItems)
	}
	return snap
}

func classify(item model.ScheduledItem, now clock.TimeOfDay) TimeStatus {
	if item.StartTime == nil || item.EndTime == nil {
		return ""
	}
	switch {
	case now.Before(*item.StartTime):
		return StatusUpcoming
	case now.After(*item.EndTime):
		return StatusPastScheduledTime
	default:
		return StatusShouldBeActiveNow
	}
}
