// Package scheduler lays work items out across a day and interleaves rest
// breaks. It is a pure computation: no clock reads, no shared state.
package scheduler

import (
	"errors"

	"dayplan/internal/clock"
	"dayplan/internal/model"
)

const (
	ShortBreakTitle = "Short break"
	LongBreakTitle  = "Long break"
)

// Policy controls break insertion. A break is inserted after any work item
// that brings accumulated work to WorkThreshold minutes, except the last one.
// Every LongBreakEvery-th break is long.
type Policy struct {
	WorkThreshold     int `yaml:"work_threshold_minutes" json:"workThresholdMinutes"`
	ShortBreakMinutes int `yaml:"short_break_minutes" json:"shortBreakMinutes"`
	LongBreakMinutes  int `yaml:"long_break_minutes" json:"longBreakMinutes"`
	LongBreakEvery    int `yaml:"long_break_every" json:"longBreakEvery"`
}

var DefaultPolicy = Policy{
	WorkThreshold:     25,
	ShortBreakMinutes: 5,
	LongBreakMinutes:  15,
	LongBreakEvery:    3,
}

// Plan is the scheduler output. TotalEstimatedMinutes counts breaks too.
type Plan struct {
	Items                 []model.ScheduledItem `json:"items"`
	TotalEstimatedMinutes int                   `json:"totalEstimatedMinutes"`
}

// WorkMinutes sums estimated minutes over work items only.
func (p Plan) WorkMinutes() int {
	total := 0
	for _, item := range p.Items {
		if item.IsWork() {
			total += item.EstimatedMinutes
		}
	}
	return total
}

// Build schedules items with DefaultPolicy.
func Build(items []model.WorkItem, start, end *clock.TimeOfDay) (Plan, error) {
	return DefaultPolicy.Build(items, start, end)
}

// Build lays out items in input order. Without a start time no times are
// computed and no breaks are inserted. Items are assumed valid; callers run
// model.ValidateWorkItems first.
func (p Policy) Build(items []model.WorkItem, start, end *clock.TimeOfDay) (Plan, error) {
	p = p.withDefaults()
	out := make([]model.ScheduledItem, 0, len(items)+len(items)/2)

	if start == nil {
		for _, item := range items {
			out = append(out, workItem(item))
		}
		return finish(out), nil
	}

	cursor := *start
	accumulated := 0
	breaks := 0
	for i, item := range items {
		scheduled := workItem(item)
		next, err := place(&scheduled, cursor, end)
		if err != nil {
			return Plan{}, err
		}
		out = append(out, scheduled)
		cursor = next
		accumulated += item.EstimatedMinutes

		if accumulated < p.WorkThreshold || i == len(items)-1 {
			continue
		}
		breaks++
		rest := p.breakItem(breaks)
		next, err = place(&rest, cursor, end)
		if err != nil {
			return Plan{}, err
		}
		out = append(out, rest)
		cursor = next
		accumulated = 0
	}
	return finish(out), nil
}

func (p Policy) withDefaults() Policy {
	if p.WorkThreshold <= 0 {
		p.WorkThreshold = DefaultPolicy.WorkThreshold
	}
	if p.ShortBreakMinutes <= 0 {
		p.ShortBreakMinutes = DefaultPolicy.ShortBreakMinutes
	}
	if p.LongBreakMinutes <= 0 {
		p.LongBreakMinutes = DefaultPolicy.LongBreakMinutes
	}
	if p.LongBreakEvery <= 0 {
		p.LongBreakEvery = DefaultPolicy.LongBreakEvery
	}
	return p
}

func (p Policy) breakItem(n int) model.ScheduledItem {
	if n%p.LongBreakEvery == 0 {
		return model.ScheduledItem{
			Kind:             model.KindBreak,
			Title:            LongBreakTitle,
			Description:      "Step away and recharge.",
			EstimatedMinutes: p.LongBreakMinutes,
			BreakKind:        model.BreakLong,
		}
	}
	return model.ScheduledItem{
		Kind:             model.KindBreak,
		Title:            ShortBreakTitle,
		Description:      "Stretch, hydrate, rest your eyes.",
		EstimatedMinutes: p.ShortBreakMinutes,
		BreakKind:        model.BreakShort,
	}
}

func workItem(item model.WorkItem) model.ScheduledItem {
	return model.ScheduledItem{
		Kind:             model.KindWork,
		Title:            item.Title,
		Description:      item.Description,
		EstimatedMinutes: item.EstimatedMinutes,
	}
}

// place stamps start/end/overflow on item and returns the new cursor.
func place(item *model.ScheduledItem, cursor clock.TimeOfDay, windowEnd *clock.TimeOfDay) (clock.TimeOfDay, error) {
	end, err := cursor.AddMinutes(item.EstimatedMinutes)
	if err != nil {
		if errors.Is(err, clock.ErrDayOverflow) {
			return 0, &model.ValidationError{
				Field:   "startTime",
				Index:   -1,
				Message: "schedule would run past midnight",
				Err:     err,
			}
		}
		return 0, err
	}
	start := cursor
	item.StartTime = &start
	item.EndTime = &end
	item.ExceedsWindow = windowEnd != nil && end.After(*windowEnd)
	return end, nil
}

func finish(items []model.ScheduledItem) Plan {
	total := 0
	for i := range items {
		items[i].Order = i
		total += items[i].EstimatedMinutes
	}
	return Plan{Items: items, TotalEstimatedMinutes: total}
}
