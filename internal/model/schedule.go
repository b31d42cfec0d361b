package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"dayplan/internal/clock"
)

type ItemKind string

const (
	KindWork  ItemKind = "work"
	KindBreak ItemKind = "break"
)

type BreakKind string

const (
	BreakShort BreakKind = "short"
	BreakLong  BreakKind = "long"
)

const (
	DefaultEstimatedMinutes = 30
	MaxEstimatedMinutes     = 480
	MaxTitleLength          = 500
)

// WorkItem is one actionable goal handed to the scheduler.
type WorkItem struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	Order            int    `json:"order"`
}

func (w WorkItem) Validate() error {
	title := strings.TrimSpace(w.Title)
	if title == "" {
		return Invalid("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return Invalid("title", "title must be at most 500 characters")
	}
	if w.EstimatedMinutes <= 0 {
		return Invalid("estimatedMinutes", "estimated minutes must be positive")
	}
	if w.EstimatedMinutes > MaxEstimatedMinutes {
		return Invalid("estimatedMinutes", "estimated minutes must be at most 480")
	}
	return nil
}

// ValidateWorkItems stops at the first invalid item and reports its index.
func ValidateWorkItems(items []WorkItem) error {
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return withIndex(err, i)
		}
	}
	return nil
}

// ScheduledItem is one row of a computed plan. It is never mutated after the
// scheduler emits it; live execution data sits in TimerState.
type ScheduledItem struct {
	ID               string           `json:"id,omitempty"`
	Kind             ItemKind         `json:"kind"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	EstimatedMinutes int              `json:"estimatedMinutes"`
	Order            int              `json:"order"`
	StartTime        *clock.TimeOfDay `json:"startTime,omitempty"`
	EndTime          *clock.TimeOfDay `json:"endTime,omitempty"`
	ExceedsWindow    bool             `json:"exceedsWindow"`
	BreakKind        BreakKind        `json:"breakKind,omitempty"`
}

func (s ScheduledItem) IsWork() bool { return s.Kind == KindWork }

// Schedule is the persisted plan for one day.
type Schedule struct {
	ID                    string           `json:"id"`
	UserInput             string           `json:"userInput"`
	StartTime             *clock.TimeOfDay `json:"startTime,omitempty"`
	EndTime               *clock.TimeOfDay `json:"endTime,omitempty"`
	Confirmed             bool             `json:"confirmed"`
	TotalEstimatedMinutes int              `json:"totalEstimatedMinutes"`
	Items                 []ScheduledItem  `json:"items"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}

// Item returns the plan row with the given id.
func (s *Schedule) Item(itemID string) (ScheduledItem, bool) {
	for _, item := range s.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return ScheduledItem{}, false
}
