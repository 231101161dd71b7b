package naivetime

import (
	"testing"
	"time"
)

func TestEncodePreservesWallClock(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	in := time.Date(2025, 6, 10, 18, 30, 0, 0, loc)
	if got, want := Encode(in), "2025-06-10T18:30:00"; got != want {
		t.Fatalf("Encode = %q, want %q", got, want)
	}
}

func TestParseLayouts(t *testing.T) {
	loc := time.UTC
	cases := []struct {
		in   string
		want string
	}{
		{"2025-06-10T18:30:00", "2025-06-10T18:30:00"},
		{"2025-06-10T18:30", "2025-06-10T18:30:00"},
		{"2025-06-10 18:30:00", "2025-06-10T18:30:00"},
		{"2025-06-10 18:30", "2025-06-10T18:30:00"},
		{"2025-06-10", "2025-06-10T00:00:00"},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in, loc)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tc.in, err)
		}
		if Encode(got) != tc.want {
			t.Fatalf("Parse(%q) = %s, want %s", tc.in, Encode(got), tc.want)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	loc := time.UTC
	in := time.Date(2025, 12, 31, 23, 59, 59, 0, loc)
	got, err := Parse(Encode(in), loc)
	if err != nil {
		t.Fatalf("round trip error: %v", err)
	}
	if !got.Equal(in) {
		t.Fatalf("round trip = %v, want %v", got, in)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "  ", "not-a-date", "10/06/2025"} {
		if _, err := Parse(in, time.UTC); err == nil {
			t.Fatalf("Parse(%q) expected error", in)
		}
	}
}

func TestTimeOfDayString(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2025-06-10T18:30:00", "18:30"},
		{"2025-06-10T07:05", "07:05"},
		{"garbageT12:45garbage", "12:45"},
		{"2025-06-10", "00:00"},
		{"nonsense", "00:00"},
	}
	for _, tc := range cases {
		if got := TimeOfDayString(tc.in, time.UTC); got != tc.want {
			t.Fatalf("TimeOfDayString(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWithClock(t *testing.T) {
	day := time.Date(2025, 6, 10, 14, 22, 9, 0, time.UTC)
	got := WithClock(day, "08:15")
	want := time.Date(2025, 6, 10, 8, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("WithClock = %v, want %v", got, want)
	}
	if got := WithClock(day, "bogus"); !got.Equal(DayOf(day)) {
		t.Fatalf("malformed clock should land at midnight, got %v", got)
	}
}

func TestWithClockAcrossDSTTransitions(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	cases := []struct {
		name string
		day  time.Time
		hhmm string
		want string
	}{
		// 2025-03-09: clocks jump 02:00 -> 03:00. Midnight plus nine
		// hours of duration would land on 10:00; the wall clock the
		// user entered must survive.
		{"spring forward", time.Date(2025, 3, 9, 0, 0, 0, 0, loc), "09:00", "2025-03-09T09:00:00"},
		// 2025-11-02: clocks fall back, the day is 25 hours long.
		{"fall back", time.Date(2025, 11, 2, 0, 0, 0, 0, loc), "09:00", "2025-11-02T09:00:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Encode(WithClock(tc.day, tc.hhmm)); got != tc.want {
				t.Fatalf("WithClock = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		y    int
		m    time.Month
		want int
	}{
		{2025, time.January, 31},
		{2025, time.February, 28},
		{2024, time.February, 29},
		{2025, time.April, 30},
	}
	for _, tc := range cases {
		in := time.Date(tc.y, tc.m, 10, 0, 0, 0, 0, time.UTC)
		if got := DaysInMonth(in); got != tc.want {
			t.Fatalf("DaysInMonth(%d-%02d) = %d, want %d", tc.y, tc.m, got, tc.want)
		}
	}
}
