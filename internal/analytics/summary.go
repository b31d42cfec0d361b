// Package analytics derives execution summaries and schedule progress from
// plan rows, timer states and event logs. Nothing here is stored.
package analytics

import (
	"sort"

	"dayplan/internal/model"
)

// Summarize compares planned and actual execution of one work item.
func Summarize(item model.ScheduledItem, state model.TimerState, events []model.ExecutionEvent) model.ExecutionSummary {
	ordered := append([]model.ExecutionEvent(nil), events...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	summary := model.ExecutionSummary{
		ItemID:                item.ID,
		Title:                 item.Title,
		EstimatedMinutes:      item.EstimatedMinutes,
		ActualDurationSeconds: state.TimeSpentSeconds,
		StartedAt:             state.ActualStartTime,
		CompletedAt:           state.ActualEndTime,
		Completed:             state.Completed,
		Events:                ordered,
	}
	for _, ev := range ordered {
		switch ev.Action {
		case model.ActionStart, model.ActionResume:
			summary.TotalSessions++
		case model.ActionPause:
			summary.TotalPauses++
		}
	}
	summary.ActualDurationMinutes = float64(state.TimeSpentSeconds) / 60
	summary.VarianceMinutes = summary.ActualDurationMinutes - float64(item.EstimatedMinutes)
	return summary
}
