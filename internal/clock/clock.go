// Package clock implements wall-clock time-of-day arithmetic for schedules
// that live inside a single calendar day.
package clock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the exclusive upper bound for a start time and the
// inclusive upper bound for an end time (24:00).
const MinutesPerDay = 24 * 60

var (
	ErrInvalidFormat = errors.New("time of day must be HH:MM")
	ErrDayOverflow   = errors.New("time of day crosses midnight")
)

// TimeOfDay is a count of minutes since midnight.
type TimeOfDay int

func New(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidFormat, hour, minute)
	}
	t := TimeOfDay(hour*60 + minute)
	if t > MinutesPerDay {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidFormat, hour, minute)
	}
	return t, nil
}

// MustParse is Parse for constants in tests and defaults.
func MustParse(raw string) TimeOfDay {
	t, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse accepts "HH:MM" and "HH:MM:SS"; seconds are truncated.
func Parse(raw string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
		}
	}
	return New(hour, minute)
}

// ParseOptional treats an empty string as "no time".
func ParseOptional(raw string) (*TimeOfDay, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FromTime returns the time of day of t in its own location.
func FromTime(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// AddMinutes advances t. Results past 24:00 are rejected rather than wrapped.
func (t TimeOfDay) AddMinutes(minutes int) (TimeOfDay, error) {
	next := int(t) + minutes
	if next < 0 || next > MinutesPerDay {
		return 0, fmt.Errorf("%w: %s + %dm", ErrDayOverflow, t, minutes)
	}
	return TimeOfDay(next), nil
}

func (t TimeOfDay) Before(other TimeOfDay) bool { return t < other }
func (t TimeOfDay) After(other TimeOfDay) bool  { return t > other }

// Compare returns -1, 0 or +1.
func (t TimeOfDay) Compare(other TimeOfDay) int {
	switch {
	case t < other:
		return -1
	case t > other:
		return 1
	default:
		return 0
	}
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
