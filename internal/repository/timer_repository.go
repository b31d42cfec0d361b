package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dayplan/internal/model"
)

// StaleItem identifies a running item for timeout policies.
type StaleItem struct {
	ItemID          string
	ScheduleID      string
	ActualStartTime time.Time
}

// LoadTimers returns every stored timer state and event of a schedule, events
// in sequence order.
func (r *ScheduleRepository) LoadTimers(ctx context.Context, scheduleID string) ([]model.TimerState, []model.ExecutionEvent, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT item_id, is_active, is_paused, actual_start_time, actual_end_time,
		        time_spent_seconds, completed
		 FROM timer_states
		 WHERE schedule_id = ?`,
		scheduleID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("list timer states: %w", err)
	}
	states := make([]model.TimerState, 0)
	for rows.Next() {
		state, scanErr := scanTimerState(rows)
		if scanErr != nil {
			rows.Close()
			return nil, nil, scanErr
		}
		states = append(states, *state)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, nil, fmt.Errorf("iterate timer states: %w", err)
	}
	rows.Close()

	events, err := r.listEvents(ctx, `WHERE schedule_id = ?`, scheduleID)
	if err != nil {
		return nil, nil, err
	}
	return states, events, nil
}

// ItemEvents returns one item's log in sequence order.
func (r *ScheduleRepository) ItemEvents(ctx context.Context, itemID string) ([]model.ExecutionEvent, error) {
	return r.listEvents(ctx, `WHERE item_id = ?`, itemID)
}

func (r *ScheduleRepository) listEvents(ctx context.Context, where string, arg string) ([]model.ExecutionEvent, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, item_id, seq, action, occurred_at, time_spent_at_event
		 FROM execution_events `+where+`
		 ORDER BY seq ASC`,
		arg,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]model.ExecutionEvent, 0)
	for rows.Next() {
		var ev model.ExecutionEvent
		var action, occurredAt string
		if err := rows.Scan(&ev.ID, &ev.ItemID, &ev.Seq, &action, &occurredAt, &ev.TimeSpentAtEvent); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Action = model.Action(action)
		if ev.Timestamp, err = parseTime(occurredAt); err != nil {
			return nil, fmt.Errorf("parse event occurred_at: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// CommitTransition stores the changed timers and the optional event in one
// transaction. Nothing is visible unless every write succeeds.
func (r *ScheduleRepository) CommitTransition(
	ctx context.Context,
	scheduleID string,
	changed []model.TimerState,
	event *model.ExecutionEvent,
	now time.Time,
) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := range changed {
		if err := r.upsertTimerStateTx(ctx, tx, scheduleID, &changed[i], now); err != nil {
			return err
		}
	}
	if event != nil {
		if err := r.insertEventTx(ctx, tx, scheduleID, event); err != nil {
			return err
		}
	}
	if err := touchScheduleTx(ctx, tx, scheduleID, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

// StaleActiveItems lists running or paused items first started before cutoff.
func (r *ScheduleRepository) StaleActiveItems(ctx context.Context, cutoff time.Time) ([]StaleItem, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT item_id, schedule_id, actual_start_time
		 FROM timer_states
		 WHERE completed = 0
		   AND (is_active = 1 OR is_paused = 1)
		   AND actual_start_time IS NOT NULL
		   AND actual_start_time < ?
		 ORDER BY actual_start_time ASC`,
		formatTime(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("list stale items: %w", err)
	}
	defer rows.Close()

	items := make([]StaleItem, 0)
	for rows.Next() {
		var item StaleItem
		var started string
		if err := rows.Scan(&item.ItemID, &item.ScheduleID, &started); err != nil {
			return nil, fmt.Errorf("scan stale item: %w", err)
		}
		if item.ActualStartTime, err = parseTime(started); err != nil {
			return nil, fmt.Errorf("parse stale item start: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale items: %w", err)
	}
	return items, nil
}

func (r *ScheduleRepository) upsertTimerStateTx(ctx context.Context, tx *sql.Tx, scheduleID string, state *model.TimerState, now time.Time) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO timer_states (
			item_id, schedule_id, is_active, is_paused, actual_start_time,
			actual_end_time, time_spent_seconds, completed, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			is_active = excluded.is_active,
			is_paused = excluded.is_paused,
			actual_start_time = excluded.actual_start_time,
			actual_end_time = excluded.actual_end_time,
			time_spent_seconds = excluded.time_spent_seconds,
			completed = excluded.completed,
			updated_at = excluded.updated_at`,
		state.ItemID,
		scheduleID,
		boolInt(state.IsActive),
		boolInt(state.IsPaused),
		nullableTime(state.ActualStartTime),
		nullableTime(state.ActualEndTime),
		state.TimeSpentSeconds,
		boolInt(state.Completed),
		formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("upsert timer state: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) insertEventTx(ctx context.Context, tx *sql.Tx, scheduleID string, event *model.ExecutionEvent) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO execution_events (
			id, schedule_id, item_id, seq, action, occurred_at, time_spent_at_event
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		scheduleID,
		event.ItemID,
		event.Seq,
		string(event.Action),
		formatTime(event.Timestamp),
		event.TimeSpentAtEvent,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func scanTimerState(s scanner) (*model.TimerState, error) {
	state := model.TimerState{}
	var isActive, isPaused, completed int
	var startedAt, endedAt sql.NullString
	err := s.Scan(
		&state.ItemID,
		&isActive,
		&isPaused,
		&startedAt,
		&endedAt,
		&state.TimeSpentSeconds,
		&completed,
	)
	if err != nil {
		return nil, fmt.Errorf("scan timer state: %w", err)
	}
	state.IsActive = isActive != 0
	state.IsPaused = isPaused != 0
	state.Completed = completed != 0

	if state.ActualStartTime, err = parseNullableTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse timer actual_start_time: %w", err)
	}
	if state.ActualEndTime, err = parseNullableTime(endedAt); err != nil {
		return nil, fmt.Errorf("parse timer actual_end_time: %w", err)
	}
	return &state, nil
}
