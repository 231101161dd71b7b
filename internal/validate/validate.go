// Package validate holds the pre-flight checks applied to event drafts
// before any network call. Checks are pure and return tagged
// violations so callers can render them however they like.
package validate

import (
	"fmt"
	"strings"

	"github.com/hausmates/hcal/internal/contract"
	"github.com/hausmates/hcal/internal/naivetime"
)

const maxTitleLength = 100

type Code string

const (
	CodeTitleRequired   Code = "title_required"
	CodeTitleTooLong    Code = "title_too_long"
	CodeTimeOrder       Code = "time_order"
	CodeTimeFormat      Code = "time_format"
	CodeEndBeforeStart  Code = "end_before_start"
	CodeRepeatUnbounded Code = "repeat_unbounded"
	CodeRepeatEndsEarly Code = "repeat_ends_early"
	CodeScopeAmbiguous  Code = "scope_ambiguous"
	CodeCategoryUnknown Code = "category_unknown"
)

type Violation struct {
	Field   string `json:"field"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// Event checks a draft against the data-model invariants. A nil slice
// means the draft is acceptable to send.
func Event(e contract.Event) []Violation {
	var out []Violation

	title := strings.TrimSpace(e.Title)
	if title == "" {
		out = append(out, Violation{Field: "title", Code: CodeTitleRequired, Message: "title is required"})
	} else if len([]rune(title)) > maxTitleLength {
		out = append(out, Violation{Field: "title", Code: CodeTitleTooLong,
			Message: fmt.Sprintf("title exceeds %d characters", maxTitleLength)})
	}

	if !e.AllDay {
		start, okStart := parseClock(e.StartTime)
		end, okEnd := parseClock(e.EndTime)
		switch {
		case !okStart || !okEnd:
			out = append(out, Violation{Field: "start_time", Code: CodeTimeFormat,
				Message: "start and end times must be HH:MM"})
		case end <= start:
			out = append(out, Violation{Field: "end_time", Code: CodeTimeOrder,
				Message: "end time must be after start time"})
		}
	}

	if e.EndDate != nil && naivetime.DayOf(*e.EndDate).Before(naivetime.DayOf(e.Date)) {
		out = append(out, Violation{Field: "end_date", Code: CodeEndBeforeStart,
			Message: "end date must not be before start date"})
	}

	if e.Recurring() {
		if e.RepeatUntil == nil {
			out = append(out, Violation{Field: "repeat_until", Code: CodeRepeatUnbounded,
				Message: "recurring events need an end date"})
		} else if naivetime.DayOf(*e.RepeatUntil).Before(naivetime.DayOf(e.Date)) {
			out = append(out, Violation{Field: "repeat_until", Code: CodeRepeatEndsEarly,
				Message: "recurrence end must not be before the first occurrence"})
		}
	}

	if e.Scope == contract.ScopeGroup && e.GroupID == 0 {
		out = append(out, Violation{Field: "group_id", Code: CodeScopeAmbiguous,
			Message: "group events need a group id"})
	}
	if e.Scope == contract.ScopePersonal && e.GroupID != 0 {
		out = append(out, Violation{Field: "scope", Code: CodeScopeAmbiguous,
			Message: "personal events must not carry a group id"})
	}

	if e.Category != "" && !validCategory(e.Category) {
		out = append(out, Violation{Field: "category", Code: CodeCategoryUnknown,
			Message: fmt.Sprintf("unknown category: %s", e.Category)})
	}

	return out
}

func validCategory(c contract.Category) bool {
	for _, v := range contract.Categories() {
		if v == c {
			return true
		}
	}
	return false
}

// parseClock reads "HH:MM" into minutes since midnight.
func parseClock(v string) (int, bool) {
	if len(v) != 5 || v[2] != ':' {
		return 0, false
	}
	h := int(v[0]-'0')*10 + int(v[1]-'0')
	m := int(v[3]-'0')*10 + int(v[4]-'0')
	if v[0] < '0' || v[0] > '9' || v[1] < '0' || v[1] > '9' ||
		v[3] < '0' || v[3] > '9' || v[4] < '0' || v[4] > '9' {
		return 0, false
	}
	if h > 23 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
