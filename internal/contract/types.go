package contract

import "time"

const SchemaVersion = "v1"

type ErrorCode string

const (
	ErrGeneric    ErrorCode = "GENERIC_FAILURE"
	ErrUsage      ErrorCode = "INVALID_USAGE"
	ErrValidation ErrorCode = "VALIDATION_FAILED"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrTransport  ErrorCode = "TRANSPORT_FAILURE"
	ErrRemote     ErrorCode = "REMOTE_REJECTED"
)

type ErrorEnvelope struct {
	SchemaVersion string         `json:"schema_version"`
	Error         ErrorBody      `json:"error"`
	Meta          map[string]any `json:"meta,omitempty"`
}

type ErrorBody struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Hint    string    `json:"hint,omitempty"`
}

type SuccessEnvelope struct {
	SchemaVersion string         `json:"schema_version"`
	Command       string         `json:"command"`
	GeneratedAt   time.Time      `json:"generated_at"`
	Data          any            `json:"data"`
	Meta          map[string]any `json:"meta"`
	Warnings      []string       `json:"warnings"`
}

// Category is the internal lowercase category token set. The wire
// protocol uses uppercase enum names; translation lives in
// internal/backend.
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryBill        Category = "bill"
	CategoryCleaning    Category = "cleaning"
	CategoryMeeting     Category = "meeting"
	CategoryAppointment Category = "appointment"
	CategoryHealth      Category = "health"
	CategoryShopping    Category = "shopping"
	CategoryTravel      Category = "travel"
)

// Categories lists every valid token, in display order.
func Categories() []Category {
	return []Category{
		CategoryGeneral, CategoryBill, CategoryCleaning, CategoryMeeting,
		CategoryAppointment, CategoryHealth, CategoryShopping, CategoryTravel,
	}
}

type Repeat string

const (
	RepeatNone    Repeat = "none"
	RepeatDaily   Repeat = "daily"
	RepeatWeekly  Repeat = "weekly"
	RepeatMonthly Repeat = "monthly"
	RepeatYearly  Repeat = "yearly"
)

// Scope says who an event belongs to: exactly one of a personal owner
// or a shared household group.
type Scope string

const (
	ScopePersonal Scope = "personal"
	ScopeGroup    Scope = "group"
)

// ViewMode selects the ownership filter applied when projecting cached
// events onto a day. Personal mode shows the actor's own events plus
// every group event; group mode shows only the selected group.
type ViewMode string

const (
	ModePersonal ViewMode = "personal"
	ModeGroup    ViewMode = "group"
)

// Event is a calendar entry as the client core understands it. Date is
// the anchor day in local wall-clock time; recurrence and span matching
// are computed from it.
type Event struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Date        time.Time  `json:"date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	StartTime   string     `json:"start_time,omitempty"`
	EndTime     string     `json:"end_time,omitempty"`
	AllDay      bool       `json:"all_day"`
	Category    Category   `json:"category"`
	Repeat      Repeat     `json:"repeat"`
	RepeatUntil *time.Time `json:"repeat_until,omitempty"`
	Scope       Scope      `json:"scope"`
	OwnerID     int64      `json:"owner_id,omitempty"`
	GroupID     int64      `json:"group_id,omitempty"`
}

// Recurring reports whether the event carries a recurrence rule.
func (e Event) Recurring() bool {
	return e.Repeat != "" && e.Repeat != RepeatNone
}

// DeleteType is the per-instance delete scope the backend accepts. The
// client forwards it on the wire, but local removal is always the whole
// record: the core has no representation for a single excluded
// occurrence within a series.
type DeleteType string

const (
	DeleteSingle DeleteType = "single"
	DeleteFuture DeleteType = "future"
	DeleteAll    DeleteType = "all"
)
