package model

import "time"

// NotificationKind classifies an alert about a task's due state.
type NotificationKind string

const (
	NotificationUpcoming NotificationKind = "UPCOMING"
	NotificationOverdue  NotificationKind = "OVERDUE"
)

// Notification is a transient, deduplicated alert surfaced to the user about
// a task's due or overdue state.
type Notification struct {
	// ID is deterministically derived from the kind, task id, and the
	// task's next date; it is the dedup key across repeated evaluations.
	ID string `json:"id"`

	Title   string           `json:"title"`
	Message string           `json:"message"`
	Kind    NotificationKind `json:"kind"`

	// Date is the instant the notification was generated.
	Date time.Time `json:"date"`

	// Read is flipped by user action and is the only mutable field.
	Read bool `json:"read"`
}
