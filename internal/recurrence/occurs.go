// Package recurrence decides whether a calendar event occurs on a given
// day. Matching is pure and day-granular: time-of-day never influences
// the result.
package recurrence

import (
	"fmt"
	"time"

	"github.com/hausmates/hcal/internal/contract"
	"github.com/hausmates/hcal/internal/naivetime"
)

// OccursOn reports whether e has an occurrence on day.
//
// Non-recurring events match every day of their [Date, EndDate] span
// inclusive. Recurring events match according to their rule between the
// anchor day and the repeat bound. A recurring event with no bound is
// treated as unbounded and matches forever going forward; the resolver
// is deliberately permissive here and leaves rejection of unbounded
// rules to pre-flight validation.
func OccursOn(e contract.Event, day time.Time) bool {
	start := naivetime.DayOf(e.Date)
	q := naivetime.DayOf(day)

	if !e.Recurring() {
		end := start
		if e.EndDate != nil {
			end = naivetime.DayOf(*e.EndDate)
		}
		return !q.Before(start) && !q.After(end)
	}

	if q.Before(start) {
		return false
	}
	if e.RepeatUntil != nil && q.After(naivetime.DayOf(*e.RepeatUntil)) {
		return false
	}

	switch e.Repeat {
	case contract.RepeatDaily:
		return true
	case contract.RepeatWeekly:
		return q.Weekday() == start.Weekday()
	case contract.RepeatMonthly:
		// An anchor day beyond the query month's length clamps to the
		// month's last day, so a rule anchored on the 31st still fires
		// in February instead of skipping it.
		target := start.Day()
		if last := naivetime.DaysInMonth(q); target > last {
			target = last
		}
		return q.Day() == target
	case contract.RepeatYearly:
		// Exact month+day match. A Feb-29 anchor never matches in a
		// non-leap year.
		return q.Month() == start.Month() && q.Day() == start.Day()
	}
	return false
}

// DaysOn filters days in [from, to] inclusive down to those on which e
// occurs. Both bounds are truncated to their calendar day.
func DaysOn(e contract.Event, from, to time.Time) []time.Time {
	start := naivetime.DayOf(from)
	end := naivetime.DayOf(to)
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if OccursOn(e, d) {
			out = append(out, d)
		}
	}
	return out
}

// Describe returns a short human-readable description of the event's
// recurrence, for agenda output.
func Describe(e contract.Event) string {
	if !e.Recurring() {
		return ""
	}
	var s string
	switch e.Repeat {
	case contract.RepeatDaily:
		s = "repeats daily"
	case contract.RepeatWeekly:
		s = fmt.Sprintf("repeats weekly on %s", naivetime.DayOf(e.Date).Weekday())
	case contract.RepeatMonthly:
		s = fmt.Sprintf("repeats monthly on day %d", naivetime.DayOf(e.Date).Day())
	case contract.RepeatYearly:
		s = fmt.Sprintf("repeats yearly on %s", naivetime.DayOf(e.Date).Format("Jan 2"))
	default:
		return ""
	}
	if e.RepeatUntil != nil {
		s += " until " + naivetime.EncodeDate(*e.RepeatUntil)
	}
	return s
}
