package app

import (
	"strings"
	"testing"
	"time"

	"github.com/hausmates/hcal/internal/contract"
)

func TestBuildICS(t *testing.T) {
	until := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	events := []contract.Event{
		{
			ID:        1,
			Title:     "dinner",
			Date:      time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
			StartTime: "18:00",
			EndTime:   "19:00",
		},
		{
			ID:          2,
			Title:       "rent",
			Date:        time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
			AllDay:      true,
			Repeat:      contract.RepeatMonthly,
			RepeatUntil: &until,
		},
	}
	payload, err := buildICS(events, time.UTC)
	if err != nil {
		t.Fatalf("buildICS: %v", err)
	}
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"SUMMARY:dinner",
		"SUMMARY:rent",
		"FREQ=MONTHLY",
		"END:VCALENDAR",
	} {
		if !strings.Contains(payload, want) {
			t.Fatalf("ICS output missing %q:\n%s", want, payload)
		}
	}
	if strings.Count(payload, "BEGIN:VEVENT") != 2 {
		t.Fatalf("expected two VEVENTs:\n%s", payload)
	}
	if !strings.Contains(payload, "RRULE") {
		t.Fatalf("recurring event lost its RRULE:\n%s", payload)
	}
	// The timed event keeps its wall clock.
	if !strings.Contains(payload, "20250610T180000") {
		t.Fatalf("start time not preserved:\n%s", payload)
	}
}

func TestExportRuleSkipsNonRecurring(t *testing.T) {
	if _, ok := exportRule(contract.Event{Title: "once"}, time.UTC); ok {
		t.Fatal("non-recurring events must not grow an RRULE")
	}
}
