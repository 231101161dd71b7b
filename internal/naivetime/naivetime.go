// Package naivetime bridges the backend's naive local date-time strings
// and in-memory wall-clock timestamps. The backend stores timestamps
// with no timezone marker; both sides interpret them as local time, so
// encoding must reproduce the wall-clock components exactly and never
// route through UTC.
package naivetime

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Layout is the naive local date-time format the backend expects.
const Layout = "2006-01-02T15:04:05"

// DateLayout is the bare-date form used for day-valued fields.
const DateLayout = "2006-01-02"

var timeOfDayPattern = regexp.MustCompile(`T(\d\d:\d\d)`)

// Encode renders t's own year/month/day/hour/minute/second as a naive
// local string. time.Time.Format reads the components in t's location,
// so the hour the user saw is the hour the backend receives, whatever
// the runtime's offset is.
func Encode(t time.Time) string {
	return t.Format(Layout)
}

// EncodeDate renders only the calendar day.
func EncodeDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Parse reads a backend or user supplied date-time string in loc.
// Accepted layouts, most specific first: naive local, RFC3339 (offset
// honored then ignored in favor of the wall clock it names), a spaced
// variant, minute precision, and a bare date.
func Parse(s string, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty date-time")
	}
	if loc == nil {
		loc = time.Local
	}
	layouts := []string{
		Layout,
		time.RFC3339,
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		DateLayout,
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date-time format: %s", s)
}

// TimeOfDay extracts a local "HH:MM" from a timestamp.
func TimeOfDay(t time.Time) string {
	return t.Format("15:04")
}

// TimeOfDayString extracts "HH:MM" from a raw value that may not parse
// as a timestamp. Falls back to pattern matching on T\d\d:\d\d, and to
// "00:00" when nothing matches.
func TimeOfDayString(v string, loc *time.Location) string {
	if t, err := Parse(v, loc); err == nil && strings.Contains(v, ":") {
		return TimeOfDay(t)
	}
	if m := timeOfDayPattern.FindStringSubmatch(v); m != nil {
		return m[1]
	}
	return "00:00"
}

// WithClock combines a day with an "HH:MM" clock value in the day's
// location. A malformed clock leaves the day at midnight. The instant
// is built from calendar components, not by adding a duration to
// midnight: on a DST-transition day the two differ by the shifted hour.
func WithClock(day time.Time, hhmm string) time.Time {
	d := DayOf(day)
	t, err := time.ParseInLocation("15:04", hhmm, day.Location())
	if err != nil {
		return d
	}
	y, m, dd := d.Date()
	return time.Date(y, m, dd, t.Hour(), t.Minute(), 0, 0, day.Location())
}

// DayOf truncates t to local midnight in its own location. All day
// comparisons in the resolver go through this.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DayOf(a).Equal(DayOf(b))
}

// DaysInMonth returns the number of days in the month containing t.
func DaysInMonth(t time.Time) int {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
