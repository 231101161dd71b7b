package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/hausmates/hcal/internal/contract"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func okEvent() contract.Event {
	return contract.Event{
		Title:     "dinner",
		Date:      day(2025, 6, 10),
		StartTime: "18:00",
		EndTime:   "19:00",
		Category:  contract.CategoryGeneral,
		Repeat:    contract.RepeatNone,
		Scope:     contract.ScopePersonal,
	}
}

func codes(vs []Violation) []Code {
	out := make([]Code, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Code)
	}
	return out
}

func hasCode(vs []Violation, c Code) bool {
	for _, v := range vs {
		if v.Code == c {
			return true
		}
	}
	return false
}

func TestEventAccepted(t *testing.T) {
	if vs := Event(okEvent()); len(vs) != 0 {
		t.Fatalf("valid event rejected: %v", codes(vs))
	}
	allDay := okEvent()
	allDay.AllDay = true
	allDay.StartTime = ""
	allDay.EndTime = ""
	if vs := Event(allDay); len(vs) != 0 {
		t.Fatalf("valid all-day event rejected: %v", codes(vs))
	}
}

func TestEventViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*contract.Event)
		want   Code
	}{
		{"empty title", func(e *contract.Event) { e.Title = "   " }, CodeTitleRequired},
		{"long title", func(e *contract.Event) { e.Title = strings.Repeat("x", 101) }, CodeTitleTooLong},
		{"bad clock", func(e *contract.Event) { e.StartTime = "6pm" }, CodeTimeFormat},
		{"end before start", func(e *contract.Event) { e.StartTime = "19:00"; e.EndTime = "18:00" }, CodeTimeOrder},
		{"end equals start", func(e *contract.Event) { e.EndTime = e.StartTime }, CodeTimeOrder},
		{"end date before start", func(e *contract.Event) { e.EndDate = ptr(day(2025, 6, 9)) }, CodeEndBeforeStart},
		{"unbounded repeat", func(e *contract.Event) { e.Repeat = contract.RepeatDaily }, CodeRepeatUnbounded},
		{"repeat ends early", func(e *contract.Event) {
			e.Repeat = contract.RepeatWeekly
			e.RepeatUntil = ptr(day(2025, 6, 1))
		}, CodeRepeatEndsEarly},
		{"group without id", func(e *contract.Event) { e.Scope = contract.ScopeGroup }, CodeScopeAmbiguous},
		{"personal with group id", func(e *contract.Event) { e.GroupID = 7 }, CodeScopeAmbiguous},
		{"unknown category", func(e *contract.Event) { e.Category = "party" }, CodeCategoryUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := okEvent()
			tc.mutate(&e)
			vs := Event(e)
			if !hasCode(vs, tc.want) {
				t.Fatalf("want violation %s, got %v", tc.want, codes(vs))
			}
		})
	}
}

func TestEventTitleAtLimit(t *testing.T) {
	e := okEvent()
	e.Title = strings.Repeat("ä", 100) // rune count, not byte count
	if vs := Event(e); hasCode(vs, CodeTitleTooLong) {
		t.Fatal("a 100-rune title is within the limit")
	}
}

func TestEventBoundedRepeatAccepted(t *testing.T) {
	e := okEvent()
	e.Repeat = contract.RepeatMonthly
	e.RepeatUntil = ptr(day(2025, 12, 31))
	if vs := Event(e); len(vs) != 0 {
		t.Fatalf("bounded repeat rejected: %v", codes(vs))
	}
}
