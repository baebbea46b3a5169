package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar days
const DateLayout = "2006-01-02"

// Date is a calendar day, stored as midnight UTC
type Date struct {
	t time.Time
}

// NewDate builds a Date from year, month and day
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day in the timestamp's own location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a "2006-01-02" string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// MustParseDate is ParseDate for literals in tests and fixtures
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns the day as midnight UTC
func (d Date) Time() time.Time { return d.t }

// IsZero reports whether the date was never set
func (d Date) IsZero() bool { return d.t.IsZero() }

// AddDays returns the date n calendar days later (n may be negative)
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Before reports whether d is strictly earlier than o
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// After reports whether d is strictly later than o
func (d Date) After(o Date) bool { return d.t.After(o.t) }

// Equal reports whether both dates are the same day
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// Compare returns -1, 0 or +1
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

// DaysUntil returns the number of days from d to o
func (d Date) DaysUntil(o Date) int {
	return int(o.t.Sub(d.t).Hours() / 24)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// MarshalJSON encodes the date as "2006-01-02"
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "2006-01-02", full RFC3339 timestamps, or null
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*d = DateOf(t)
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MinDate returns the earlier of two dates
func MinDate(a, b Date) Date {
	if b.Before(a) {
		return b
	}
	return a
}

// Interval is an inclusive range of calendar days
type Interval struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Days returns the number of calendar days covered, counting both ends
func (iv Interval) Days() int {
	return iv.Start.DaysUntil(iv.End) + 1
}

func (iv Interval) String() string {
	return iv.Start.String() + ".." + iv.End.String()
}

// MaxWindowDays is the longest task window accepted, counting both ends
const MaxWindowDays = 731

// TaskWindow bounds every intervention interval of a task
type TaskWindow struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Validate checks that both ends are set and ordered
func (w TaskWindow) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("task window requires both start and end")
	}
	if w.End.Before(w.Start) {
		return fmt.Errorf("task window end %s is before start %s", w.End, w.Start)
	}
	if w.Days()+1 > MaxWindowDays {
		return fmt.Errorf("task window %s..%s is longer than %d days", w.Start, w.End, MaxWindowDays)
	}
	return nil
}

// Contains reports whether the interval lies inside the window
func (w TaskWindow) Contains(iv Interval) bool {
	return !iv.Start.Before(w.Start) && !iv.End.After(w.End)
}

// Days returns the number of calendar days from start to end (zero for a single-day window)
func (w TaskWindow) Days() int {
	return w.Start.DaysUntil(w.End)
}

// SlotStatus is the lifecycle stage of a slot
type SlotStatus string

const (
	StatusUnassigned         SlotStatus = "unassigned"
	StatusPartiallyScheduled SlotStatus = "partially_scheduled"
	StatusFullyScheduled     SlotStatus = "fully_scheduled"
)

// InterventionSlot is the per-intervention record of staff, ward and interval within a task
type InterventionSlot struct {
	InterventionID string    `json:"intervention_id"`
	Name           string    `json:"name,omitempty"`
	StaffID        string    `json:"staff_id,omitempty"`
	WardID         string    `json:"ward_id,omitempty"`
	Interval       *Interval `json:"interval,omitempty"`
}

// Label is the human-facing name of the slot's intervention
func (s *InterventionSlot) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.InterventionID
}

// Scheduled reports whether both interval ends are set
func (s *InterventionSlot) Scheduled() bool {
	return s.Interval != nil && !s.Interval.Start.IsZero() && !s.Interval.End.IsZero()
}

// Complete reports whether staff, ward and interval are all set
func (s *InterventionSlot) Complete() bool {
	return s.StaffID != "" && s.WardID != "" && s.Scheduled()
}

// Status derives the lifecycle stage from the populated fields
func (s *InterventionSlot) Status() SlotStatus {
	switch {
	case s.Complete():
		return StatusFullyScheduled
	case s.StaffID != "" || s.WardID != "" || s.Interval != nil:
		return StatusPartiallyScheduled
	default:
		return StatusUnassigned
	}
}

// ExecutionOrder maps intervention IDs to 1-based ranks
type ExecutionOrder map[string]int

// FailureKind classifies a validation failure or rejected edit
type FailureKind string

const (
	KindNoSelection       FailureKind = "NoSelection"
	KindMissingAssignment FailureKind = "MissingAssignment"
	KindInvalidRange      FailureKind = "InvalidRange"
	KindOutOfWindow       FailureKind = "OutOfWindow"
	KindOverlap           FailureKind = "Overlap"

	// KindUnknownIntervention is only produced by edits against an unselected intervention
	KindUnknownIntervention FailureKind = "UnknownIntervention"
)

// ValidationResult is the outcome of validating a schedule
type ValidationResult struct {
	OK              bool        `json:"ok"`
	Kind            FailureKind `json:"kind,omitempty"`
	Message         string      `json:"message,omitempty"`
	InterventionIDs []string    `json:"intervention_ids,omitempty"`
}

// ExportEntry is one scheduled intervention in submission form
type ExportEntry struct {
	Rank           int    `json:"rank"`
	InterventionID string `json:"intervention_id"`
	StaffID        string `json:"staff_id"`
	WardID         string `json:"ward_id"`
	Start          Date   `json:"start"`
	End            Date   `json:"end"`
}

// ScheduleExport is the normalized shape handed to the task create/update request builder
type ScheduleExport struct {
	Window  TaskWindow     `json:"window"`
	Entries []ExportEntry  `json:"entries"`
	Order   ExecutionOrder `json:"order"`
}

// SlotInput is a slot as supplied to the stateless validation endpoint and the CLI
type SlotInput struct {
	InterventionID string `json:"intervention_id" binding:"required"`
	Name           string `json:"name,omitempty"`
	StaffID        string `json:"staff_id,omitempty"`
	WardID         string `json:"ward_id,omitempty"`
	Start          Date   `json:"start"`
	End            Date   `json:"end"`
}

// ScheduleInput is the body of the stateless validation endpoint
type ScheduleInput struct {
	Window TaskWindow  `json:"window"`
	Slots  []SlotInput `json:"slots"`
}

// SlotView is a slot enriched with its derived status and rank
type SlotView struct {
	InterventionSlot
	Status SlotStatus `json:"status"`
	Rank   int        `json:"rank,omitempty"`
}

// ScheduleResponse is the snapshot returned for a session
type ScheduleResponse struct {
	SessionID string         `json:"session_id,omitempty"`
	Window    TaskWindow     `json:"window"`
	Slots     []SlotView     `json:"slots"`
	Order     ExecutionOrder `json:"order"`
}
