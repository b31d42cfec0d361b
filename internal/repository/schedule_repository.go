package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dayplan/internal/model"
)

type ScheduleRepository struct {
	db *sql.DB
}

func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

// CreateSchedule inserts the schedule row and all of its plan items.
func (r *ScheduleRepository) CreateSchedule(ctx context.Context, schedule *model.Schedule) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO schedules (
			id, user_input, start_time, end_time, confirmed,
			total_estimated_minutes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		schedule.ID,
		schedule.UserInput,
		nullableTimeOfDay(schedule.StartTime),
		nullableTimeOfDay(schedule.EndTime),
		boolInt(schedule.Confirmed),
		schedule.TotalEstimatedMinutes,
		formatTime(schedule.CreatedAt),
		formatTime(schedule.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}

	if err := r.insertItemsTx(ctx, tx, schedule.ID, schedule.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schedule: %w", err)
	}
	return nil
}

// ReplaceItems swaps the plan of an existing schedule. It refuses once any
// execution event exists so that history never points at a removed item.
func (r *ScheduleRepository) ReplaceItems(ctx context.Context, schedule *model.Schedule) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var events int
	if err := tx.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM execution_events WHERE schedule_id = ?`,
		schedule.ID,
	).Scan(&events); err != nil {
		return fmt.Errorf("count events: %w", err)
	}
	if events > 0 {
		return model.ErrScheduleStarted
	}

	res, err := tx.ExecContext(
		ctx,
		`UPDATE schedules
		 SET confirmed = ?,
		     total_estimated_minutes = ?,
			 updated_at = ?
		 WHERE id = ?`,
		boolInt(schedule.Confirmed),
		schedule.TotalEstimatedMinutes,
		formatTime(schedule.UpdatedAt),
		schedule.ID,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM timer_states WHERE schedule_id = ?`, schedule.ID); err != nil {
		return fmt.Errorf("delete timer states: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scheduled_items WHERE schedule_id = ?`, schedule.ID); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	if err := r.insertItemsTx(ctx, tx, schedule.ID, schedule.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit items: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) insertItemsTx(ctx context.Context, tx *sql.Tx, scheduleID string, items []model.ScheduledItem) error {
	for _, item := range items {
		var breakKind interface{}
		if item.BreakKind != "" {
			breakKind = string(item.BreakKind)
		}
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO scheduled_items (
				id, schedule_id, position, kind, title, description,
				estimated_minutes, start_time, end_time, exceeds_window, break_kind
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			scheduleID,
			item.Order,
			string(item.Kind),
			item.Title,
			item.Description,
			item.EstimatedMinutes,
			nullableTimeOfDay(item.StartTime),
			nullableTimeOfDay(item.EndTime),
			boolInt(item.ExceedsWindow),
			breakKind,
		)
		if err != nil {
			return fmt.Errorf("insert item %d: %w", item.Order, err)
		}
	}
	return nil
}

func (r *ScheduleRepository) GetSchedule(ctx context.Context, id string) (*model.Schedule, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_input, start_time, end_time, confirmed,
		        total_estimated_minutes, created_at, updated_at
		 FROM schedules WHERE id = ?`,
		id,
	)
	schedule, err := scanSchedule(row)
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	schedule.Items = items
	return schedule, nil
}

func (r *ScheduleRepository) ListSchedules(ctx context.Context, confirmedOnly bool) ([]model.Schedule, error) {
	query := `SELECT id, user_input, start_time, end_time, confirmed,
	                 total_estimated_minutes, created_at, updated_at
	          FROM schedules`
	if confirmedOnly {
		query += ` WHERE confirmed = 1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	schedules := make([]model.Schedule, 0)
	for rows.Next() {
		schedule, scanErr := scanSchedule(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		schedules = append(schedules, *schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}

	for i := range schedules {
		items, err := r.listItems(ctx, schedules[i].ID)
		if err != nil {
			return nil, err
		}
		schedules[i].Items = items
	}
	return schedules, nil
}

func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ScheduleRepository) ScheduleIDForItem(ctx context.Context, itemID string) (string, error) {
	var scheduleID string
	err := r.db.QueryRowContext(
		ctx,
		`SELECT schedule_id FROM scheduled_items WHERE id = ?`,
		itemID,
	).Scan(&scheduleID)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find item schedule: %w", err)
	}
	return scheduleID, nil
}

func (r *ScheduleRepository) listItems(ctx context.Context, scheduleID string) ([]model.ScheduledItem, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, position, kind, title, description, estimated_minutes,
		        start_time, end_time, exceeds_window, break_kind
		 FROM scheduled_items
		 WHERE schedule_id = ?
		 ORDER BY position ASC`,
		scheduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]model.ScheduledItem, 0)
	for rows.Next() {
		item, scanErr := scanItem(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSchedule(s scanner) (*model.Schedule, error) {
	schedule := model.Schedule{}
	var startTime, endTime sql.NullString
	var confirmed int
	var createdAt, updatedAt string
	err := s.Scan(
		&schedule.ID,
		&schedule.UserInput,
		&startTime,
		&endTime,
		&confirmed,
		&schedule.TotalEstimatedMinutes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan schedule: %w", err)
	}
	schedule.Confirmed = confirmed != 0

	if schedule.StartTime, err = parseNullableTimeOfDay(startTime); err != nil {
		return nil, fmt.Errorf("parse schedule start_time: %w", err)
	}
	if schedule.EndTime, err = parseNullableTimeOfDay(endTime); err != nil {
		return nil, fmt.Errorf("parse schedule end_time: %w", err)
	}
	if schedule.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse schedule created_at: %w", err)
	}
	if schedule.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse schedule updated_at: %w", err)
	}
	return &schedule, nil
}

func scanItem(s scanner) (*model.ScheduledItem, error) {
	item := model.ScheduledItem{}
	var kind string
	var startTime, endTime, breakKind sql.NullString
	var exceeds int
	err := s.Scan(
		&item.ID,
		&item.Order,
		&kind,
		&item.Title,
		&item.Description,
		&item.EstimatedMinutes,
		&startTime,
		&endTime,
		&exceeds,
		&breakKind,
	)
	if err != nil {
		return nil, fmt.Errorf("scan item: %w", err)
	}
	item.Kind = model.ItemKind(kind)
	item.ExceedsWindow = exceeds != 0
	if breakKind.Valid {
		item.BreakKind = model.BreakKind(breakKind.String)
	}
	if item.StartTime, err = parseNullableTimeOfDay(startTime); err != nil {
		return nil, fmt.Errorf("parse item start_time: %w", err)
	}
	if item.EndTime, err = parseNullableTimeOfDay(endTime); err != nil {
		return nil, fmt.Errorf("parse item end_time: %w", err)
	}
	return &item, nil
}

// touchScheduleTx bumps the schedule's updated_at inside tx.
func touchScheduleTx(ctx context.Context, tx *sql.Tx, scheduleID string, now time.Time) error {
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE schedules SET updated_at = ? WHERE id = ?`,
		formatTime(now),
		scheduleID,
	); err != nil {
		return fmt.Errorf("touch schedule: %w", err)
	}
	return nil
}
