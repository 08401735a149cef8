// Package timeslot holds the pure calendar and capacity arithmetic shared by
// the class and trainer booking paths. Nothing here touches storage or locks;
// results read outside a lock are advisory and must be re-checked inside one
// before acting on them.
package timeslot

import (
	"fmt"
	"regexp"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2)
// intersect. Touching endpoints (e1 == s2) do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// Contains reports whether [s,e) lies entirely inside [windowStart, windowEnd).
func Contains(windowStart, windowEnd, s, e time.Time) bool {
	return !s.Before(windowStart) && !e.After(windowEnd)
}

// Remaining returns the capacity left after counted holders, floored at zero.
func Remaining(capacity, counted int) int {
	if counted >= capacity {
		return 0
	}
	return capacity - counted
}

func IsAvailable(capacity, counted int) bool {
	return Remaining(capacity, counted) > 0
}

// Today returns the current calendar date as a UTC midnight instant.
func Today() time.Time {
	return DateOf(time.Now().UTC())
}

// DateOf strips the clock portion of t, keeping its calendar components.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekdayOf maps a calendar date to its weekday tag using the date's
// components only, so the answer never depends on a local timezone.
func WeekdayOf(date time.Time) string {
	return DateOf(date).Weekday().String()
}

// ParseDate parses an ISO calendar date into a UTC midnight instant.
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected %s", value, DateLayout)
	}
	return date, nil
}

// ParseClock validates an HH:MM wall-clock string and returns the minute
// offset from midnight.
func ParseClock(value string) (int, error) {
	if !clockRegex.MatchString(value) {
		return 0, fmt.Errorf("invalid clock time %q, expected %s", value, clockLayout)
	}
	parsed, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", value, err)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

// At composes a calendar date with an HH:MM wall-clock string into an instant.
func At(date time.Time, clock string) (time.Time, error) {
	minutes, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(date).Add(time.Duration(minutes) * time.Minute), nil
}

// DayWindow returns the half-open interval covering the whole calendar day.
func DayWindow(date time.Time) (time.Time, time.Time) {
	start := DateOf(date)
	return start, start.AddDate(0, 0, 1)
}

// CoversDate reports whether a span starting on startDate and ending on
// endDate (nil = open-ended) includes the query date.
func CoversDate(startDate time.Time, endDate *time.Time, date time.Time) bool {
	day := DateOf(date)
	if day.Before(DateOf(startDate)) {
		return false
	}
	return endDate == nil || !day.After(DateOf(*endDate))
}
