package schedule

import (
	"fmt"
	"testing"
	"time"

	"edificaflow/internal/model"
)

var evalNow = time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)

func pendingTask(id string, next model.Date) model.MaintenanceTask {
	return model.MaintenanceTask{
		ID:        id,
		Title:     "Inspect " + id,
		Category:  "General",
		Location:  "Basement",
		Frequency: model.FrequencyMonthly,
		Priority:  model.PriorityMedium,
		NextDate:  next,
		Status:    model.StatusPending,
	}
}

func TestEvaluateBoundaries(t *testing.T) {
	today := model.Today(evalNow)

	cases := []struct {
		name string
		next model.Date
		want model.NotificationKind
		none bool
	}{
		{name: "yesterday is overdue", next: today.AddDays(-1), want: model.NotificationOverdue},
		{name: "today is upcoming", next: today, want: model.NotificationUpcoming},
		{name: "tomorrow is upcoming", next: today.AddDays(1), want: model.NotificationUpcoming},
		{name: "window boundary inclusive", next: today.AddDays(2), want: model.NotificationUpcoming},
		{name: "beyond window is silent", next: today.AddDays(3), none: true},
	}

	engine := NewEngine()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.Evaluate([]model.MaintenanceTask{pendingTask("t1", tc.next)}, evalNow)
			if tc.none {
				if len(got) != 0 {
					t.Fatalf("expected no candidates, got %d", len(got))
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("expected 1 candidate, got %d", len(got))
			}
			if got[0].Kind != tc.want {
				t.Fatalf("kind = %s, want %s", got[0].Kind, tc.want)
			}
		})
	}
}

func TestEvaluateSkipsCompletedTasks(t *testing.T) {
	task := pendingTask("t1", model.Today(evalNow).AddDays(-10))
	task.Status = model.StatusCompleted

	got := NewEngine().Evaluate([]model.MaintenanceTask{task}, evalNow)
	if len(got) != 0 {
		t.Fatalf("completed task produced %d candidates", len(got))
	}
}

func TestEvaluateKindsAreMutuallyExclusive(t *testing.T) {
	today := model.Today(evalNow)
	engine := NewEngine()

	// Sweep a wide range of dates around today; no date may ever yield
	// more than one candidate for the same task.
	for offset := -30; offset <= 30; offset++ {
		task := pendingTask("t1", today.AddDays(offset))
		got := engine.Evaluate([]model.MaintenanceTask{task}, evalNow)
		if len(got) > 1 {
			t.Fatalf("offset %d produced %d candidates", offset, len(got))
		}
	}
}

func TestEvaluateDeterministicIDs(t *testing.T) {
	today := model.Today(evalNow)
	overdue := pendingTask("task-9", today.AddDays(-3))
	upcoming := pendingTask("task-7", today.AddDays(1))

	got := NewEngine().Evaluate([]model.MaintenanceTask{overdue, upcoming}, evalNow)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}

	wantOverdue := "overdue-task-9-" + today.AddDays(-3).String()
	if got[0].ID != wantOverdue {
		t.Errorf("overdue id = %s, want %s", got[0].ID, wantOverdue)
	}
	wantUpcoming := "upcoming-task-7-" + today.AddDays(1).String()
	if got[1].ID != wantUpcoming {
		t.Errorf("upcoming id = %s, want %s", got[1].ID, wantUpcoming)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	tasks := []model.MaintenanceTask{
		pendingTask("t1", model.Today(evalNow).AddDays(-1)),
		pendingTask("t2", model.Today(evalNow).AddDays(1)),
	}
	engine := NewEngine()

	feed := Merge(nil, engine.Evaluate(tasks, evalNow))
	if len(feed) != 2 {
		t.Fatalf("first merge produced %d notifications, want 2", len(feed))
	}

	again := Merge(feed, engine.Evaluate(tasks, evalNow))
	if len(again) != len(feed) {
		t.Fatalf("repeated evaluation grew the feed: %d -> %d", len(feed), len(again))
	}
}

func TestMergeFreshIDAfterRollover(t *testing.T) {
	task := pendingTask("t1", model.Today(evalNow).AddDays(-1))
	engine := NewEngine()

	feed := Merge(nil, engine.Evaluate([]model.MaintenanceTask{task}, evalNow))

	// Completing the task moves its next date; the next evaluation must
	// produce a new notification despite the stale one for the old date.
	task.NextDate = model.Today(evalNow).AddDays(1)
	feed = Merge(feed, engine.Evaluate([]model.MaintenanceTask{task}, evalNow))

	if len(feed) != 2 {
		t.Fatalf("expected stale + fresh notifications, got %d", len(feed))
	}
	if feed[0].Kind != model.NotificationUpcoming {
		t.Errorf("fresh notification not prepended: kind = %s", feed[0].Kind)
	}
}

func TestMergeCapsAtFifty(t *testing.T) {
	var existing []model.Notification
	for i := 0; i < MaxNotifications; i++ {
		existing = append(existing, model.Notification{
			ID:   fmt.Sprintf("overdue-old-%d", i),
			Kind: model.NotificationOverdue,
		})
	}

	fresh := []model.Notification{
		{ID: "overdue-new-a", Kind: model.NotificationOverdue},
		{ID: "overdue-new-b", Kind: model.NotificationOverdue},
	}

	merged := Merge(existing, fresh)
	if len(merged) != MaxNotifications {
		t.Fatalf("feed length = %d, want %d", len(merged), MaxNotifications)
	}
	if merged[0].ID != "overdue-new-a" || merged[1].ID != "overdue-new-b" {
		t.Errorf("newest notifications not retained at the front")
	}
	if merged[len(merged)-1].ID == fmt.Sprintf("overdue-old-%d", MaxNotifications-1) {
		t.Errorf("oldest notification was not dropped")
	}
}

func TestAdvanceRecurrence(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		freq model.Frequency
		next string
		want string
	}{
		{name: "daily", freq: model.FrequencyDaily, next: "2024-05-01", want: "2024-05-02"},
		{name: "weekly", freq: model.FrequencyWeekly, next: "2024-05-01", want: "2024-05-08"},
		{name: "monthly", freq: model.FrequencyMonthly, next: "2024-04-15", want: "2024-05-15"},
		// time.AddDate normalizes Jan 31 + 1 month past the end of
		// February instead of clamping.
		{name: "monthly rollover", freq: model.FrequencyMonthly, next: "2024-01-31", want: "2024-03-02"},
		{name: "quarterly", freq: model.FrequencyQuarterly, next: "2024-01-10", want: "2024-04-10"},
		{name: "annual", freq: model.FrequencyAnnual, next: "2024-03-01", want: "2025-03-01"},
		// Feb 29 + 1 year normalizes to Mar 1 in a non-leap year.
		{name: "annual leap day", freq: model.FrequencyAnnual, next: "2024-02-29", want: "2025-03-01"},
		{name: "quinquennial", freq: model.FrequencyQuinquennial, next: "2024-05-01", want: "2029-05-01"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := model.ParseDate(tc.next)
			if err != nil {
				t.Fatalf("parsing next date: %v", err)
			}
			task := pendingTask("t1", next)
			task.Frequency = tc.freq

			updated, _ := Advance(task, Completion{
				ExecutedBy:      "J. Silva",
				WorkDescription: "routine check",
			}, now)

			if got := updated.NextDate.String(); got != tc.want {
				t.Errorf("next date = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestAdvanceAnchorsOnScheduleNotNow(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	next, _ := model.ParseDate("2024-01-01")
	task := pendingTask("t1", next)
	task.Frequency = model.FrequencyDaily

	updated, _ := Advance(task, Completion{ExecutedBy: "a", WorkDescription: "b"}, now)
	if got := updated.NextDate.String(); got != "2024-01-02" {
		t.Fatalf("next date = %s, want 2024-01-02 (advance from schedule, not from now)", got)
	}
}

func TestAdvanceSnapshotsHistory(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	next, _ := model.ParseDate("2024-05-20")

	task := pendingTask("pump-1", next)
	task.Title = "Inspect water pump"
	task.Category = "Plumbing"
	task.Location = "Roof"

	completion := Completion{
		ExecutedBy:      "M. Costa",
		WorkDescription: "Replaced gasket",
		Attachments: []model.Attachment{
			{Name: "before.jpg", URL: "https://files/1", Kind: model.AttachmentImage},
		},
		DocumentationLink: "https://docs/pump",
	}

	updated, entry := Advance(task, completion, now)

	if entry.TaskID != "pump-1" || entry.TaskTitle != "Inspect water pump" {
		t.Errorf("history did not snapshot task identity: %+v", entry)
	}
	if entry.Category != "Plumbing" || entry.Location != "Roof" {
		t.Errorf("history did not snapshot category/location: %+v", entry)
	}
	if !entry.CompletedAt.Equal(now) {
		t.Errorf("completedAt = %v, want %v", entry.CompletedAt, now)
	}
	if entry.ExecutedBy != "M. Costa" || entry.WorkDescription != "Replaced gasket" {
		t.Errorf("history did not record execution details: %+v", entry)
	}
	if len(entry.Attachments) != 1 || entry.Attachments[0].Kind != model.AttachmentImage {
		t.Errorf("history did not record attachments: %+v", entry.Attachments)
	}
	if entry.ID == "" {
		t.Error("history entry id not assigned")
	}

	if updated.Status != model.StatusPending {
		t.Errorf("status after completion = %s, want PENDING", updated.Status)
	}
	if updated.DocumentationLink != "https://docs/pump" {
		t.Errorf("documentation link not carried onto task: %q", updated.DocumentationLink)
	}
	if updated.LastPerformed == nil || updated.LastPerformed.String() != "2024-06-01" {
		t.Errorf("last performed not recorded: %v", updated.LastPerformed)
	}
}

func TestAdvancePreservesExistingDocumentationLink(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	next, _ := model.ParseDate("2024-05-20")
	task := pendingTask("t1", next)
	task.DocumentationLink = "https://docs/original"

	updated, entry := Advance(task, Completion{ExecutedBy: "a", WorkDescription: "b"}, now)
	if updated.DocumentationLink != "https://docs/original" {
		t.Errorf("existing link overwritten: %q", updated.DocumentationLink)
	}
	if entry.DocumentationLink != "" {
		t.Errorf("history gained a link the caller never supplied: %q", entry.DocumentationLink)
	}
}
