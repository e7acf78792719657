// Package schedule derives due-state alerts from the task list and advances a
// task's cadence when an execution is recorded. It performs no I/O and trusts
// its input; all guard conditions belong to callers.
package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"edificaflow/internal/model"
)

// MaxNotifications caps the notification feed; the oldest entries are
// dropped first once the cap is reached.
const MaxNotifications = 50

// DefaultUpcomingWindowDays is how far ahead a pending task counts as
// upcoming when no override is configured.
const DefaultUpcomingWindowDays = 2

// Engine evaluates the task list for due-state alerts.
type Engine struct {
	// UpcomingWindowDays is the inclusive number of days ahead within
	// which a pending task produces an UPCOMING candidate.
	UpcomingWindowDays int
}

// NewEngine returns an Engine with the default upcoming window.
func NewEngine() Engine {
	return Engine{UpcomingWindowDays: DefaultUpcomingWindowDays}
}

// OverdueID returns the deterministic notification id for an overdue alert.
// The next date participates so that a rolled-over task gets a fresh id and
// is never suppressed by the stale notification for its previous occurrence.
func OverdueID(taskID string, next model.Date) string {
	return fmt.Sprintf("overdue-%s-%s", taskID, next)
}

// UpcomingID returns the deterministic notification id for an upcoming alert.
func UpcomingID(taskID string, next model.Date) string {
	return fmt.Sprintf("upcoming-%s-%s", taskID, next)
}

// Evaluate scans the task list at the given instant and returns candidate
// notifications. Every pending task yields at most one candidate per next
// date: OVERDUE when the next date is strictly before today, otherwise
// UPCOMING when it falls inside the upcoming window (boundary inclusive).
// Candidates are not deduplicated against any existing feed; see Merge.
func (e Engine) Evaluate(tasks []model.MaintenanceTask, now time.Time) []model.Notification {
	window := e.UpcomingWindowDays
	if window <= 0 {
		window = DefaultUpcomingWindowDays
	}

	today := model.Today(now)
	horizon := today.AddDays(window)

	var candidates []model.Notification
	for _, t := range tasks {
		if t.Status != model.StatusPending {
			continue
		}

		switch {
		case t.NextDate.Before(today):
			candidates = append(candidates, model.Notification{
				ID:    OverdueID(t.ID, t.NextDate),
				Title: "Maintenance overdue",
				Message: fmt.Sprintf(
					"Task %q was due on %s.", t.Title, t.NextDate,
				),
				Kind: model.NotificationOverdue,
				Date: now,
			})
		case !t.NextDate.After(horizon):
			candidates = append(candidates, model.Notification{
				ID:    UpcomingID(t.ID, t.NextDate),
				Title: "Upcoming maintenance",
				Message: fmt.Sprintf(
					"Task %q is due on %s.", t.Title, t.NextDate,
				),
				Kind: model.NotificationUpcoming,
				Date: now,
			})
		}
	}

	return candidates
}

// Merge folds candidates into the existing feed. Candidates whose id is
// already present are discarded, so repeated evaluation of an unchanged task
// list grows nothing. Surviving candidates are prepended and the combined
// feed is truncated to MaxNotifications, newest first.
func Merge(existing, candidates []model.Notification) []model.Notification {
	seen := make(map[string]bool, len(existing))
	for _, n := range existing {
		seen[n.ID] = true
	}

	merged := make([]model.Notification, 0, len(existing)+len(candidates))
	for _, c := range candidates {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		merged = append(merged, c)
	}
	merged = append(merged, existing...)

	if len(merged) > MaxNotifications {
		merged = merged[:MaxNotifications]
	}
	return merged
}

// Completion carries the caller-validated inputs of one execution record.
type Completion struct {
	ExecutedBy      string
	WorkDescription string
	Attachments     []model.Attachment

	// DocumentationLink, when non-empty, replaces the task's stored link
	// and is recorded on the history entry.
	DocumentationLink string
}

// Advance records one completed execution: it produces the immutable history
// snapshot and returns the task shifted forward by one cadence unit.
//
// The new next date is computed from the task's current next date, never from
// now, so a late completion does not float the schedule to today; the cadence
// anchor stays fixed. Month and year arithmetic follow time.AddDate rollover.
func Advance(task model.MaintenanceTask, c Completion, now time.Time) (model.MaintenanceTask, model.HistoryEntry) {
	entry := model.HistoryEntry{
		ID:                uuid.New().String(),
		TaskID:            task.ID,
		TaskTitle:         task.Title,
		Category:          task.Category,
		Location:          task.Location,
		CompletedAt:       now,
		ExecutedBy:        c.ExecutedBy,
		WorkDescription:   c.WorkDescription,
		Attachments:       c.Attachments,
		DocumentationLink: c.DocumentationLink,
	}

	performed := model.Today(now)
	task.LastPerformed = &performed
	task.NextDate = nextOccurrence(task.NextDate, task.Frequency)
	task.Status = model.StatusPending
	if c.DocumentationLink != "" {
		task.DocumentationLink = c.DocumentationLink
	}
	task.UpdatedAt = now

	return task, entry
}

// nextOccurrence advances a date by one unit of the given cadence.
func nextOccurrence(d model.Date, f model.Frequency) model.Date {
	switch f {
	case model.FrequencyDaily:
		return d.AddDays(1)
	case model.FrequencyWeekly:
		return d.AddDays(7)
	case model.FrequencyMonthly:
		return d.AddDate(0, 1, 0)
	case model.FrequencyQuarterly:
		return d.AddDate(0, 3, 0)
	case model.FrequencyAnnual:
		return d.AddDate(1, 0, 0)
	case model.FrequencyQuinquennial:
		return d.AddDate(5, 0, 0)
	default:
		return d
	}
}
