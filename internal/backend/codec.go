package backend

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hausmates/hcal/internal/contract"
	"github.com/hausmates/hcal/internal/naivetime"
)

// wireEvent is an event as the backend serializes it. Time-of-day rides
// inside the naive startDate/endDate strings; there are no separate
// clock fields on the wire.
type wireEvent struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	IsAllDay      bool   `json:"isAllDay"`
	Category      string `json:"category"`
	Type          string `json:"type"`
	RepeatType    string `json:"repeatType"`
	RepeatEndDate string `json:"repeatEndDate"`
	UserID        int64  `json:"userId"`
	GroupID       int64  `json:"groupId"`
}

// Category tokens are lowercase internally and uppercase enum names on
// the wire. The one irregular pair is bill/PAYMENT.
var categoryToWire = map[contract.Category]string{
	contract.CategoryGeneral:     "GENERAL",
	contract.CategoryBill:        "PAYMENT",
	contract.CategoryCleaning:    "CLEANING",
	contract.CategoryMeeting:     "MEETING",
	contract.CategoryAppointment: "APPOINTMENT",
	contract.CategoryHealth:      "HEALTH",
	contract.CategoryShopping:    "SHOPPING",
	contract.CategoryTravel:      "TRAVEL",
}

var categoryFromWire = func() map[string]contract.Category {
	m := make(map[string]contract.Category, len(categoryToWire))
	for k, v := range categoryToWire {
		m[v] = k
	}
	return m
}()

func encodeCategory(c contract.Category) string {
	if v, ok := categoryToWire[c]; ok {
		return v
	}
	return "GENERAL"
}

// decodeCategory maps a wire value to an internal token; unrecognized
// or missing values default to general rather than failing the decode.
func decodeCategory(v string) contract.Category {
	if c, ok := categoryFromWire[strings.ToUpper(strings.TrimSpace(v))]; ok {
		return c
	}
	return contract.CategoryGeneral
}

func encodeRepeat(r contract.Repeat) string {
	switch r {
	case contract.RepeatDaily, contract.RepeatWeekly, contract.RepeatMonthly, contract.RepeatYearly:
		return strings.ToUpper(string(r))
	default:
		return "NONE"
	}
}

func decodeRepeat(v string) contract.Repeat {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "DAILY":
		return contract.RepeatDaily
	case "WEEKLY":
		return contract.RepeatWeekly
	case "MONTHLY":
		return contract.RepeatMonthly
	case "YEARLY":
		return contract.RepeatYearly
	default:
		return contract.RepeatNone
	}
}

func encodeScope(s contract.Scope) string {
	if s == contract.ScopeGroup {
		return "GROUP"
	}
	return "PERSONAL"
}

func decodeScope(v string) contract.Scope {
	if strings.ToUpper(strings.TrimSpace(v)) == "GROUP" {
		return contract.ScopeGroup
	}
	return contract.ScopePersonal
}

// encodeEvent builds the mutation body for an internal event. The
// naive strings are assembled from the event's own wall-clock
// components; nothing here converts through UTC.
func encodeEvent(e contract.Event) wireEvent {
	start := e.Date
	endDay := naivetime.DayOf(e.Date)
	if e.EndDate != nil {
		endDay = naivetime.DayOf(*e.EndDate)
	}
	end := endDay
	if !e.AllDay {
		start = naivetime.WithClock(e.Date, e.StartTime)
		end = naivetime.WithClock(endDay, e.EndTime)
	}

	w := wireEvent{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		StartDate:   naivetime.Encode(start),
		EndDate:     naivetime.Encode(end),
		IsAllDay:    e.AllDay,
		Category:    encodeCategory(e.Category),
		Type:        encodeScope(e.Scope),
		RepeatType:  encodeRepeat(e.Repeat),
		GroupID:     e.GroupID,
	}
	if e.RepeatUntil != nil {
		w.RepeatEndDate = naivetime.Encode(naivetime.DayOf(*e.RepeatUntil))
	}
	return w
}

// decodeEvent rebuilds an internal event from the wire form. Missing or
// malformed fields take defaults; shape problems never surface as
// errors to the caller.
func decodeEvent(w wireEvent, loc *time.Location) contract.Event {
	e := contract.Event{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		AllDay:      w.IsAllDay,
		Category:    decodeCategory(w.Category),
		Repeat:      decodeRepeat(w.RepeatType),
		Scope:       decodeScope(w.Type),
		OwnerID:     w.UserID,
		GroupID:     w.GroupID,
	}

	if t, err := naivetime.Parse(w.StartDate, loc); err == nil {
		e.Date = t
	}
	if !e.AllDay {
		e.StartTime = naivetime.TimeOfDayString(w.StartDate, loc)
		e.EndTime = naivetime.TimeOfDayString(w.EndDate, loc)
	}
	if t, err := naivetime.Parse(w.EndDate, loc); err == nil {
		if day := naivetime.DayOf(t); day.After(naivetime.DayOf(e.Date)) && !e.Recurring() {
			e.EndDate = &day
		}
	}
	if w.RepeatEndDate != "" {
		if t, err := naivetime.Parse(w.RepeatEndDate, loc); err == nil {
			day := naivetime.DayOf(t)
			e.RepeatUntil = &day
		}
	}
	return e
}

// decodeCollection accepts the response shapes the read endpoint is
// known to produce: a bare array, a {"content":[...]} page wrapper, a
// {"data":[...]} wrapper, and a bare single object, which is treated as
// a one-element collection.
func decodeCollection(raw []byte) ([]wireEvent, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var list []wireEvent
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Content json.RawMessage `json:"content"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		for _, inner := range [][]byte{wrapped.Content, wrapped.Data} {
			if len(inner) == 0 {
				continue
			}
			if err := json.Unmarshal(inner, &list); err == nil {
				return list, nil
			}
			var one wireEvent
			if err := json.Unmarshal(inner, &one); err == nil {
				return []wireEvent{one}, nil
			}
		}
	}

	var one wireEvent
	if err := json.Unmarshal(raw, &one); err == nil {
		return []wireEvent{one}, nil
	}
	return nil, fmt.Errorf("unrecognized response shape")
}
