package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Frequency is the fixed cadence governing how a task's next date advances.
type Frequency string

const (
	FrequencyDaily        Frequency = "DAILY"
	FrequencyWeekly       Frequency = "WEEKLY"
	FrequencyMonthly      Frequency = "MONTHLY"
	FrequencyQuarterly    Frequency = "QUARTERLY"
	FrequencyAnnual       Frequency = "ANNUAL"
	FrequencyQuinquennial Frequency = "QUINQUENNIAL"
)

// Frequencies lists every valid cadence in display order.
var Frequencies = []Frequency{
	FrequencyDaily,
	FrequencyWeekly,
	FrequencyMonthly,
	FrequencyQuarterly,
	FrequencyAnnual,
	FrequencyQuinquennial,
}

var (
	ErrInvalidFrequency = errors.New("model: invalid frequency")
	ErrInvalidPriority  = errors.New("model: invalid priority")
	ErrInvalidStatus    = errors.New("model: invalid task status")
)

// IsValid reports whether f is one of the known cadences.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly,
		FrequencyQuarterly, FrequencyAnnual, FrequencyQuinquennial:
		return true
	default:
		return false
	}
}

// Label returns the human-readable name of the cadence.
func (f Frequency) Label() string {
	switch f {
	case FrequencyDaily:
		return "Daily"
	case FrequencyWeekly:
		return "Weekly"
	case FrequencyMonthly:
		return "Monthly"
	case FrequencyQuarterly:
		return "Quarterly"
	case FrequencyAnnual:
		return "Annual"
	case FrequencyQuinquennial:
		return "Every 5 years"
	default:
		return string(f)
	}
}

// Priority is the display-ordering urgency of a task. It has no effect on
// scheduling.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Priorities lists every valid priority from least to most urgent.
var Priorities = []Priority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityCritical,
}

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// Rank returns a sortable weight; higher means more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Label returns the human-readable name of the priority.
func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityCritical:
		return "Critical"
	default:
		return string(p)
	}
}

// TaskStatus is the stored lifecycle state of a task. Only PENDING and
// COMPLETED are ever persisted; overdue-ness is derived at read time from
// the next date and never written back.
type TaskStatus string

const (
	StatusPending   TaskStatus = "PENDING"
	StatusCompleted TaskStatus = "COMPLETED"
)

// StatusOverdue is the display-only tag for a pending task whose next date
// has passed. It is never a valid stored status.
const StatusOverdue = "OVERDUE"

// IsValid reports whether s is a storable status.
func (s TaskStatus) IsValid() bool {
	return s == StatusPending || s == StatusCompleted
}

// MaintenanceTask is a recurring maintenance obligation with a cadence and a
// next-due date.
type MaintenanceTask struct {
	// ID is the opaque unique identifier, assigned at creation.
	ID string `json:"id"`

	Title       string `json:"title"`
	Description string `json:"description"`

	// Category is a free-form label that must belong to the current
	// category set.
	Category string `json:"category"`

	// Location is where in the building the work happens.
	Location string `json:"location"`

	Frequency Frequency `json:"frequency"`
	Priority  Priority  `json:"priority"`

	// NextDate is the calendar date of the next scheduled occurrence.
	// Mutated only by the completion workflow or a manual edit.
	NextDate Date `json:"next_date"`

	// LastPerformed is the date of the most recent completed execution,
	// if any.
	LastPerformed *Date `json:"last_performed,omitempty"`

	Status TaskStatus `json:"status"`

	Responsible       string `json:"responsible,omitempty"`
	ResponsibleEmail  string `json:"responsible_email,omitempty"`
	DocumentationLink string `json:"documentation_link,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks structural invariants on a task before it is stored.
func (t MaintenanceTask) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Frequency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, t.Frequency)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if t.NextDate.IsZero() {
		return errors.New("model: task next_date is required")
	}
	return nil
}

// IsOverdue reports whether the task is logically overdue at the given
// instant: pending, with a next date strictly before today.
func (t MaintenanceTask) IsOverdue(now time.Time) bool {
	return t.Status == StatusPending && t.NextDate.Before(Today(now))
}

// DisplayStatus returns the status tag shown to the user, deriving OVERDUE
// from the date comparison without touching the stored status.
func (t MaintenanceTask) DisplayStatus(now time.Time) string {
	if t.IsOverdue(now) {
		return StatusOverdue
	}
	return string(t.Status)
}
