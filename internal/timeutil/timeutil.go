// Package timeutil holds the interval arithmetic shared by the scheduler,
// the reconciler and the lifecycle operations. Everything here is pure.
package timeutil

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the calendar-date key used to partition tasks.
const DateLayout = "2006-01-02"

// ClockLayout is the time-of-day format accepted from users.
const ClockLayout = "15:04"

var (
	ErrInvalidDate  = errors.New("invalid date, want YYYY-MM-DD")
	ErrInvalidClock = errors.New("invalid time of day, want HH:MM")
)

// AddMinutes returns t shifted by the given number of minutes.
func AddMinutes(t time.Time, minutes int) time.Time {
	return t.Add(time.Duration(minutes) * time.Minute)
}

// Overlaps reports whether [s1, e1) and [s2, e2) intersect.
// Touching intervals (e1 == s2) do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// MinutesBetween returns the whole minutes from start to end.
func MinutesBetween(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}

// ElapsedMinutes returns the elapsed time rounded to the nearest minute.
func ElapsedMinutes(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}

// Now returns the current instant truncated to the second.
func Now() time.Time {
	return time.Now().Truncate(time.Second)
}

// Today returns the date key of now in its own location.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// DateOf returns the date key of t.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate validates a YYYY-MM-DD key and returns it normalized.
func ParseDate(s string) (string, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d.Format(DateLayout), nil
}

// ParseClock combines a date key and an "HH:MM" time of day into an
// instant in loc.
func ParseClock(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(DateLayout+" "+ClockLayout, d+" "+strings.TrimSpace(clock), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	return t, nil
}

// ParseInstant accepts either RFC 3339 or a bare "HH:MM" on the given date.
func ParseInstant(date, s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return ParseClock(date, s, loc)
}

// FormatClock renders t as "HH:MM", or "" for the zero time.
func FormatClock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(ClockLayout)
}

// FormatRange renders "HH:MM - HH:MM", or "" when either end is unset.
func FormatRange(start, end time.Time) string {
	if start.IsZero() || end.IsZero() {
		return ""
	}
	return FormatClock(start) + " - " + FormatClock(end)
}

// FormatElapsed renders the time between start and end for the
// active-task readout, e.g. "1h 05m 09s", "4m 30s", "12s".
func FormatElapsed(start, end time.Time) string {
	d := end.Sub(start)
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h, m, s := total/3600, (total/60)%60, total%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
