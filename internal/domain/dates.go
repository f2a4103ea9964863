package domain

import (
	"fmt"
	"time"
)

// Calendar dates are carried as time.Time at midnight UTC. The helpers here
// normalize, compare, and parse them so the rest of the module never deals
// with wall-clock components on pure dates.

// Date returns the given calendar date at midnight UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar date in its own location, normalized
// to midnight UTC.
func DateOf(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// DateKey formats a date as its canonical "YYYY-MM-DD" lookup key.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// SameDate reports whether a and b fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// IsWeekend reports whether d falls on Saturday or Sunday.
func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ParseDate parses a strict "YYYY-MM-DD" date string to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// Layouts accepted by ParseDateTime. All carry an explicit UTC offset;
// offset-less forms are recognized only to produce ErrTimezoneRequired.
var (
	zonedLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04Z07:00",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}
)

// ParseDateTime parses an RFC 3339 datetime string. The offset is
// mandatory: a string that parses as a datetime but carries no timezone
// information fails with ErrTimezoneRequired, never with a silent local
// fallback. Session boundaries are timezone-sensitive, so guessing would be
// a correctness hazard.
func ParseDateTime(s string) (time.Time, error) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return time.Time{}, fmt.Errorf("%w: %q has no UTC offset (use e.g. 2026-02-06T10:00:00+09:00)", ErrTimezoneRequired, s)
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q: use RFC 3339 with an explicit offset", s)
}
