package repository

import (
	"database/sql"
	"time"

	"dayplan/internal/clock"
	"dayplan/internal/model"
)

// ErrNotFound is returned for missing rows.
var ErrNotFound = model.ErrNotFound

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err == nil {
		return t.UTC(), nil
	}
	t, err = time.Parse(time.RFC3339, raw)
	if err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullableTime(raw sql.NullString) (*time.Time, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	t, err := parseTime(raw.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullableTimeOfDay(t *clock.TimeOfDay) interface{} {
	if t == nil {
		return nil
	}
	return t.String()
}

func parseNullableTimeOfDay(raw sql.NullString) (*clock.TimeOfDay, error) {
	if !raw.Valid {
		return nil, nil
	}
	return clock.ParseOptional(raw.String)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
