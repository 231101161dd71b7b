// Package view tracks the visible calendar window: an anchor day plus a
// zoom granularity. Navigation is calendar-aware, and every state
// change yields exactly one new fetch query for the store.
package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/hausmates/hcal/internal/naivetime"
)

type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
	Year  Granularity = "year"
)

// ParseGranularity reads a user-supplied granularity token.
func ParseGranularity(v string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "day", "daily":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	case "year", "yearly":
		return Year, nil
	default:
		return Day, fmt.Errorf("invalid granularity: %s", v)
	}
}

// ViewType is the wire tag the read endpoint expects for a granularity.
// The backend has no yearly tag; a year window queries untagged.
func (g Granularity) ViewType() string {
	switch g {
	case Day:
		return "DAILY"
	case Week:
		return "WEEKLY"
	case Month:
		return "MONTHLY"
	default:
		return "NONE"
	}
}

// Query is what a window state derives for the store to fetch.
type Query struct {
	ViewType string
	DateTime string // naive-encoded anchor instant
}

// Window is the view controller. Zero value is not usable; construct
// with New.
type Window struct {
	anchor time.Time
	gran   Granularity
	now    func() time.Time
}

func New(anchor time.Time, g Granularity) *Window {
	return &Window{anchor: anchor, gran: g, now: time.Now}
}

func (w *Window) Anchor() time.Time        { return w.anchor }
func (w *Window) Granularity() Granularity { return w.gran }

// SetGranularity changes the zoom level and returns the refetch query.
func (w *Window) SetGranularity(g Granularity) Query {
	w.gran = g
	return w.Query()
}

// Today resets the anchor to the current local moment.
func (w *Window) Today() Query {
	w.anchor = w.now()
	return w.Query()
}

// Next advances the anchor by one unit of the current granularity.
// Month and year steps clamp the day-of-month, so one month on from
// Jan 31 is Feb 28, never Mar 3.
func (w *Window) Next() Query { return w.step(1) }

// Prev moves the anchor back by one unit of the current granularity.
func (w *Window) Prev() Query { return w.step(-1) }

func (w *Window) step(n int) Query {
	switch w.gran {
	case Day:
		w.anchor = w.anchor.AddDate(0, 0, n)
	case Week:
		w.anchor = w.anchor.AddDate(0, 0, 7*n)
	case Month:
		w.anchor = addMonthsClamped(w.anchor, n)
	case Year:
		w.anchor = addMonthsClamped(w.anchor, 12*n)
	}
	return w.Query()
}

// Query derives the fetch parameters for the current state.
func (w *Window) Query() Query {
	return Query{ViewType: w.gran.ViewType(), DateTime: naivetime.Encode(w.anchor)}
}

// Bounds returns the first and last day the window covers, truncated to
// local midnight. Weeks start on Monday.
func (w *Window) Bounds() (time.Time, time.Time) {
	d := naivetime.DayOf(w.anchor)
	switch w.gran {
	case Week:
		offset := (int(d.Weekday()) - int(time.Monday) + 7) % 7
		start := d.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 6)
	case Month:
		start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
		return start, start.AddDate(0, 1, -1)
	case Year:
		start := time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, d.Location())
		return start, start.AddDate(1, 0, -1)
	default:
		return d, d
	}
}

// addMonthsClamped shifts t by n months, landing on the last valid day
// when the source day-of-month does not exist in the target month.
// time.AddDate alone would overflow Jan 31 + 1 month into March.
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	shifted := first.AddDate(0, n, 0)
	last := naivetime.DaysInMonth(shifted)
	if d > last {
		d = last
	}
	return time.Date(shifted.Year(), shifted.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
