package model

import "time"

type Action string

const (
	ActionStart    Action = "start"
	ActionPause    Action = "pause"
	ActionResume   Action = "resume"
	ActionComplete Action = "complete"
)

func (a Action) Valid() bool {
	switch a {
	case ActionStart, ActionPause, ActionResume, ActionComplete:
		return true
	}
	return false
}

// TimerState is the live execution status of one work item.
type TimerState struct {
	ItemID           string     `json:"itemId"`
	IsActive         bool       `json:"isActive"`
	IsPaused         bool       `json:"isPaused"`
	ActualStartTime  *time.Time `json:"actualStartTime,omitempty"`
	ActualEndTime    *time.Time `json:"actualEndTime,omitempty"`
	TimeSpentSeconds int        `json:"timeSpentSeconds"`
	Completed        bool       `json:"completed"`
}

// Status names the state machine node the timer is in.
func (s TimerState) Status() string {
	switch {
	case s.Completed:
		return "completed"
	case s.IsPaused:
		return "paused"
	case s.IsActive:
		return "active"
	default:
		return "not_started"
	}
}

// ExecutionEvent records one successful timer transition. Events are
// append-only; Seq orders them within a schedule.
type ExecutionEvent struct {
	ID               string    `json:"id"`
	ItemID           string    `json:"itemId"`
	Action           Action    `json:"action"`
	Timestamp        time.Time `json:"timestamp"`
	TimeSpentAtEvent int       `json:"timeSpentAtEvent"`
	Seq              int64     `json:"seq"`
}

// ExecutionSummary is derived from a timer state and its event log.
type ExecutionSummary struct {
	ItemID                string           `json:"itemId"`
	Title                 string           `json:"title"`
	EstimatedMinutes      int              `json:"estimatedMinutes"`
	ActualDurationSeconds int              `json:"actualDurationSeconds"`
	ActualDurationMinutes float64          `json:"actualDurationMinutes"`
	VarianceMinutes       float64          `json:"varianceMinutes"`
	TotalSessions         int              `json:"totalSessions"`
	TotalPauses           int              `json:"totalPauses"`
	StartedAt             *time.Time       `json:"startedAt,omitempty"`
	CompletedAt           *time.Time       `json:"completedAt,omitempty"`
	Completed             bool             `json:"completed"`
	Events                []ExecutionEvent `json:"events"`
}
