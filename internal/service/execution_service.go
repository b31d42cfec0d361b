package service

import (
	"context"
	"fmt"
	"time"

	"dayplan/internal/analytics"
	"dayplan/internal/clock"
	apperrors "dayplan/internal/errors"
	"dayplan/internal/model"
	"dayplan/internal/observability"
	"dayplan/internal/repository"
	"dayplan/internal/timer"
)

// TimerView is the result of one transition: the target timer plus any item
// that lost its active flag because of it.
type TimerView struct {
	Timer       model.TimerState      `json:"timer"`
	Deactivated []model.TimerState    `json:"deactivated,omitempty"`
	Event       *model.ExecutionEvent `json:"event,omitempty"`
}

type transitionFunc func(b *timer.Board, itemID string, now time.Time) (timer.Transition, error)

func (s *ScheduleService) Start(ctx context.Context, itemID string) (*TimerView, *apperrors.APIError) {
	return s.transition(ctx, itemID, model.ActionStart, (*timer.Board).Start)
}

func (s *ScheduleService) Pause(ctx context.Context, itemID string) (*TimerView, *apperrors.APIError) {
	return s.transition(ctx, itemID, model.ActionPause, (*timer.Board).Pause)
}

func (s *ScheduleService) Resume(ctx context.Context, itemID string) (*TimerView, *apperrors.APIError) {
	return s.transition(ctx, itemID, model.ActionResume, (*timer.Board).Resume)
}

func (s *ScheduleService) Complete(ctx context.Context, itemID string) (*TimerView, *apperrors.APIError) {
	return s.transition(ctx, itemID, model.ActionComplete, (*timer.Board).Complete)
}

// ReportElapsed overwrites the stored time spent with a client-side count.
func (s *ScheduleService) ReportElapsed(ctx context.Context, itemID string, seconds int) (*TimerView, *apperrors.APIError) {
	scheduleID, apiErr := s.scheduleOf(ctx, itemID)
	if apiErr != nil {
		return nil, apiErr
	}

	unlock := s.locks.lock(scheduleID)
	defer unlock()

	loaded, apiErr := s.load(ctx, scheduleID, itemID)
	if apiErr != nil {
		return nil, apiErr
	}
	state, err := loaded.board.ReportElapsed(itemID, seconds)
	if err != nil {
		return nil, apperrors.FromDomain(err, "failed to report elapsed time")
	}
	if err := s.repo.CommitTransition(ctx, scheduleID, []model.TimerState{state}, nil, s.now()); err != nil {
		s.logger.Error().Err(err).Str("item_id", itemID).Msg("persist elapsed time")
		return nil, apperrors.Internal("failed to save elapsed time")
	}
	return &TimerView{Timer: state}, nil
}

// Summarize reports the execution of one work item.
func (s *ScheduleService) Summarize(ctx context.Context, itemID string) (*model.ExecutionSummary, *apperrors.APIError) {
	scheduleID, apiErr := s.scheduleOf(ctx, itemID)
	if apiErr != nil {
		return nil, apiErr
	}
	loaded, apiErr := s.load(ctx, scheduleID, itemID)
	if apiErr != nil {
		return nil, apiErr
	}
	state, _ := loaded.board.State(itemID)
	summary := analytics.Summarize(loaded.item, state, loaded.board.Events(itemID))
	return &summary, nil
}

// Progress reports the schedule as of the service clock read in the
// configured location.
func (s *ScheduleService) Progress(ctx context.Context, scheduleID string) (*analytics.Snapshot, *apperrors.APIError) {
	schedule, err := s.repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, scheduleErr(err, "failed to get schedule")
	}
	states, _, err := s.repo.LoadTimers(ctx, scheduleID)
	if err != nil {
		return nil, apperrors.Internal("failed to load timers")
	}

	byItem := make(map[string]model.TimerState, len(states))
	for _, st := range states {
		byItem[st.ItemID] = st
	}
	snap := analytics.Progress(schedule.Items, byItem, s.timeOfDay())
	return &snap, nil
}

func (s *ScheduleService) Tips(ctx context.Context, scheduleID string) ([]string, *apperrors.APIError) {
	snap, apiErr := s.Progress(ctx, scheduleID)
	if apiErr != nil {
		return nil, apiErr
	}
	return s.advisor.Tips(ctx, *snap), nil
}

// CompleteStale completes every running or paused item first started before
// cutoff. Items that changed state in the meantime are skipped.
func (s *ScheduleService) CompleteStale(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := s.repo.StaleActiveItems(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale items: %w", err)
	}

	completed := 0
	for _, item := range stale {
		if err := ctx.Err(); err != nil {
			return completed, err
		}
		_, apiErr := s.transition(ctx, item.ItemID, model.ActionComplete, (*timer.Board).Complete)
		if apiErr != nil {
			s.logger.Warn().
				Str("item_id", item.ItemID).
				Str("schedule_id", item.ScheduleID).
				Str("code", apiErr.Code).
				Msg("skip stale item")
			continue
		}
		completed++
	}
	observability.RecordAutoCompleted(completed)
	return completed, nil
}

func (s *ScheduleService) transition(ctx context.Context, itemID string, action model.Action, apply transitionFunc) (*TimerView, *apperrors.APIError) {
	scheduleID, apiErr := s.scheduleOf(ctx, itemID)
	if apiErr != nil {
		observability.RecordTransition(string(action), false)
		return nil, apiErr
	}

	unlock := s.locks.lock(scheduleID)
	defer unlock()

	loaded, apiErr := s.load(ctx, scheduleID, itemID)
	if apiErr != nil {
		observability.RecordTransition(string(action), false)
		return nil, apiErr
	}

	now := s.now()
	tr, err := apply(loaded.board, itemID, now)
	if err != nil {
		observability.RecordTransition(string(action), false)
		return nil, apperrors.FromDomain(err, "failed to update timer")
	}
	if err := s.repo.CommitTransition(ctx, scheduleID, tr.Changed, &tr.Event, now); err != nil {
		observability.RecordTransition(string(action), false)
		s.logger.Error().Err(err).Str("item_id", itemID).Str("action", string(action)).Msg("persist transition")
		return nil, apperrors.Internal("failed to save timer")
	}

	observability.RecordTransition(string(action), true)
	s.logger.Info().
		Str("schedule_id", scheduleID).
		Str("item_id", itemID).
		Str("action", string(action)).
		Int64("seq", tr.Event.Seq).
		Int("time_spent_seconds", tr.Changed[0].TimeSpentSeconds).
		Msg("timer transition")

	event := tr.Event
	return &TimerView{
		Timer:       tr.Changed[0],
		Deactivated: tr.Changed[1:],
		Event:       &event,
	}, nil
}

type loadedBoard struct {
	item  model.ScheduledItem
	board *timer.Board
}

// load rebuilds the board of a schedule and checks that itemID is a work
// item on it.
func (s *ScheduleService) load(ctx context.Context, scheduleID, itemID string) (*loadedBoard, *apperrors.APIError) {
	schedule, err := s.repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, scheduleErr(err, "failed to get schedule")
	}
	item, ok := schedule.Item(itemID)
	if !ok {
		return nil, apperrors.NotFound("item_not_found", "item not found")
	}
	if !item.IsWork() {
		return nil, apperrors.BadRequest("break_item", "breaks have no timer")
	}

	states, events, err := s.repo.LoadTimers(ctx, scheduleID)
	if err != nil {
		s.logger.Error().Err(err).Str("schedule_id", scheduleID).Msg("load timers")
		return nil, apperrors.Internal("failed to load timers")
	}

	workIDs := make([]string, 0, len(schedule.Items))
	for _, it := range schedule.Items {
		if it.IsWork() {
			workIDs = append(workIDs, it.ID)
		}
	}
	return &loadedBoard{item: item, board: timer.NewBoard(workIDs, states, events)}, nil
}

func (s *ScheduleService) scheduleOf(ctx context.Context, itemID string) (string, *apperrors.APIError) {
	scheduleID, err := s.repo.ScheduleIDForItem(ctx, itemID)
	if err == repository.ErrNotFound {
		return "", apperrors.NotFound("item_not_found", "item not found")
	}
	if err != nil {
		return "", apperrors.Internal("failed to find item")
	}
	return scheduleID, nil
}

func (s *ScheduleService) timeOfDay() clock.TimeOfDay {
	return clock.FromTime(s.now().In(s.location))
}
