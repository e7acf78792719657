package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"edificaflow/internal/ai"
	"edificaflow/internal/model"
	"edificaflow/internal/schedule"
	"edificaflow/internal/store"
	"edificaflow/tests/testutil"
)

// fixedNow keeps derived-status math deterministic across the suite.
var fixedNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*Manager, *store.SQLiteStore) {
	t.Helper()

	s := testutil.NewTestStore(t)

	m, err := New(context.Background(), s, nil, Options{
		// Long enough that the debounce never fires during a test; every
		// test that needs evaluation calls EvaluateNow directly.
		DebounceDelay: time.Hour,
		Now:           func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("creating manager: %v", err)
	}
	t.Cleanup(m.Close)

	return m, s
}

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("parsing date %s: %v", s, err)
	}
	return d
}

func TestNewSeedsDefaultCategories(t *testing.T) {
	m, s := newTestManager(t)

	got := m.Categories()
	want := model.DefaultCategories()
	if len(got) != len(want) {
		t.Fatalf("seeded %d categories, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("category[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// The seed must also be persisted, not just in memory.
	persisted, err := s.LoadCategories(context.Background())
	if err != nil {
		t.Fatalf("loading categories: %v", err)
	}
	if len(persisted) != len(want) {
		t.Errorf("persisted %d categories, want %d", len(persisted), len(want))
	}
}

func TestNewKeepsExistingCategories(t *testing.T) {
	s := testutil.NewTestStore(t)

	if err := s.SaveCategories(context.Background(), []string{"HVAC"}); err != nil {
		t.Fatalf("saving categories: %v", err)
	}

	m, err := New(context.Background(), s, nil, Options{DebounceDelay: time.Hour})
	if err != nil {
		t.Fatalf("creating manager: %v", err)
	}
	t.Cleanup(m.Close)

	got := m.Categories()
	if len(got) != 1 || got[0] != "HVAC" {
		t.Errorf("existing categories replaced: %v", got)
	}
}

func TestAddTaskAppliesDefaults(t *testing.T) {
	m, s := newTestManager(t)

	task, err := m.AddTask(model.MaintenanceTask{Title: "Check elevator"})
	if err != nil {
		t.Fatalf("adding task: %v", err)
	}

	if task.ID == "" {
		t.Error("task got no id")
	}
	if task.Category != "General" {
		t.Errorf("category = %q, want General", task.Category)
	}
	if task.Frequency != model.FrequencyMonthly {
		t.Errorf("frequency = %q, want MONTHLY", task.Frequency)
	}
	if task.Priority != model.PriorityMedium {
		t.Errorf("priority = %q, want MEDIUM", task.Priority)
	}
	if task.NextDate.String() != "2024-06-15" {
		t.Errorf("next date = %s, want today", task.NextDate)
	}
	if task.Status != model.StatusPending {
		t.Errorf("status = %q, want PENDING", task.Status)
	}

	persisted, err := s.LoadTasks(context.Background())
	if err != nil {
		t.Fatalf("loading tasks: %v", err)
	}
	if len(persisted) != 1 || persisted[0].ID != task.ID {
		t.Errorf("task not persisted: %v", persisted)
	}
}

func TestAddTaskGrowsCategoriesOnce(t *testing.T) {
	m, _ := newTestManager(t)

	for i := 0; i < 2; i++ {
		_, err := m.AddTask(model.MaintenanceTask{Title: "Service boiler", Category: "HVAC"})
		if err != nil {
			t.Fatalf("adding task: %v", err)
		}
	}

	count := 0
	for _, c := range m.Categories() {
		if c == "HVAC" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("category HVAC appears %d times, want 1", count)
	}
}

func TestAddTaskRejectsInvalidInput(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.AddTask(model.MaintenanceTask{Title: "Bad", Frequency: "FORTNIGHTLY"})
	if !errors.Is(err, model.ErrInvalidFrequency) {
		t.Fatalf("error = %v, want ErrInvalidFrequency", err)
	}
	if len(m.Tasks()) != 0 {
		t.Error("invalid task was stored")
	}
}

func TestUpdateTaskNotFound(t *testing.T) {
	m, _ := newTestManager(t)

	err := m.UpdateTask(model.MaintenanceTask{
		ID:        "missing",
		Title:     "x",
		Category:  "General",
		Frequency: model.FrequencyDaily,
		Priority:  model.PriorityLow,
		NextDate:  model.Today(fixedNow),
		Status:    model.StatusPending,
	})
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("error = %v, want ErrTaskNotFound", err)
	}
}

func TestUpdateTaskPreservesCreatedAt(t *testing.T) {
	m, _ := newTestManager(t)

	task, err := m.AddTask(model.MaintenanceTask{Title: "Inspect roof"})
	if err != nil {
		t.Fatalf("adding task: %v", err)
	}

	task.Title = "Inspect roof drainage"
	task.CreatedAt = time.Time{} // caller cannot override
	if err := m.UpdateTask(task); err != nil {
		t.Fatalf("updating task: %v", err)
	}

	got, ok := m.Task(task.ID)
	if !ok {
		t.Fatal("task disappeared")
	}
	if got.Title != "Inspect roof drainage" {
		t.Errorf("title = %q", got.Title)
	}
	if !got.CreatedAt.Equal(fixedNow) {
		t.Errorf("created at = %v, want original %v", got.CreatedAt, fixedNow)
	}
}

func TestDeleteTaskKeepsHistory(t *testing.T) {
	m, _ := newTestManager(t)

	task, err := m.AddTask(model.MaintenanceTask{Title: "Test generator"})
	if err != nil {
		t.Fatalf("adding task: %v", err)
	}
	if _, err := m.CompleteTask(task.ID, schedule.Completion{
		ExecutedBy:      "J. Silva",
		WorkDescription: "Load test at 80%",
	}); err != nil {
		t.Fatalf("completing task: %v", err)
	}

	if err := m.DeleteTask(task.ID); err != nil {
		t.Fatalf("deleting task: %v", err)
	}

	if len(m.Tasks()) != 0 {
		t.Error("task still listed after delete")
	}
	if len(m.History()) != 1 {
		t.Error("history pruned on task delete")
	}
}

func TestCompleteTaskGuards(t *testing.T) {
	m, _ := newTestManager(t)

	task, err := m.AddTask(model.MaintenanceTask{Title: "Flush pipes"})
	if err != nil {
		t.Fatalf("adding task: %v", err)
	}

	_, err = m.CompleteTask(task.ID, schedule.Completion{WorkDescription: "done"})
	if !errors.Is(err, ErrMissingExecutor) {
		t.Errorf("error = %v, want ErrMissingExecutor", err)
	}

	_, err = m.CompleteTask(task.ID, schedule.Completion{ExecutedBy: "J. Silva", WorkDescription: "   "})
	if !errors.Is(err, ErrMissingWork) {
		t.Errorf("error = %v, want ErrMissingWork", err)
	}

	if len(m.History()) != 0 {
		t.Error("rejected completion left a history entry")
	}
}

func TestCompleteTaskAdvancesAndRecordsHistory(t *testing.T) {
	m, s := newTestManager(t)

	task, err := m.AddTask(model.MaintenanceTask{
		Title:     "Service HVAC filters",
		Frequency: model.FrequencyMonthly,
		NextDate:  mustDate(t, "2024-06-01"),
	})
	if err != nil {
		t.Fatalf("adding task: %v", err)
	}

	entry, err := m.CompleteTask(task.ID, schedule.Completion{
		ExecutedBy:      "Clima Service",
		WorkDescription: "Replaced all filters",
	})
	if err != nil {
		t.Fatalf("completing task: %v", err)
	}

	if entry.TaskID != task.ID || entry.TaskTitle != task.Title {
		t.Errorf("history snapshot wrong: %+v", entry)
	}

	got, _ := m.Task(task.ID)
	if got.NextDate.String() != "2024-07-01" {
		t.Errorf("next date = %s, want 2024-07-01", got.NextDate)
	}
	if got.Status != model.StatusPending {
		t.Errorf("status = %q, want PENDING", got.Status)
	}
	if got.LastPerformed == nil || got.LastPerformed.String() != "2024-06-15" {
		t.Errorf("last performed = %v, want today", got.LastPerformed)
	}

	persisted, err := s.LoadHistory(context.Background())
	if err != nil {
		t.Fatalf("loading history: %v", err)
	}
	if len(persisted) != 1 {
		t.Errorf("persisted %d history entries, want 1", len(persisted))
	}
}

func TestImportPlanDefaults(t *testing.T) {
	m, _ := newTestManager(t)

	items := []ai.PlanItem{
		{Title: "Inspect facade", Category: "Structural", Frequency: model.FrequencyAnnual, Priority: model.PriorityHigh},
		{Title: "Seal joints", Category: "Structural", Frequency: model.FrequencyAnnual, Priority: model.PriorityMedium},
	}

	created, err := m.ImportPlan(items)
	if err != nil {
		t.Fatalf("importing plan: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d tasks, want 2", len(created))
	}

	for _, task := range created {
		if task.Location != AIImportLocation {
			t.Errorf("location = %q, want %q", task.Location, AIImportLocation)
		}
		if task.Status != model.StatusPending {
			t.Errorf("status = %q, want PENDING", task.Status)
		}
		if task.NextDate.String() != "2024-06-15" {
			t.Errorf("next date = %s, want today", task.NextDate)
		}
		if task.ID == "" {
			t.Error("imported task got no id")
		}
	}

	// Both items share the new category; it must be appended exactly once.
	count := 0
	for _, c := range m.Categories() {
		if c == "Structural" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("category Structural appears %d times, want 1", count)
	}
}

func TestImportPlanRejectsInvalidItem(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.ImportPlan([]ai.PlanItem{
		{Title: "Good", Category: "General", Frequency: model.FrequencyDaily, Priority: model.PriorityLow},
		{Title: "Bad", Category: "General", Frequency: "SOMETIMES", Priority: model.PriorityLow},
	})
	if err == nil {
		t.Fatal("invalid plan item accepted")
	}
	if len(m.Tasks()) != 0 {
		t.Error("partial import left tasks behind")
	}
}

func TestEvaluateNowBuildsFeed(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.AddTask(model.MaintenanceTask{
		Title:    "Overdue pump check",
		NextDate: mustDate(t, "2024-06-10"),
	}); err != nil {
		t.Fatalf("adding task: %v", err)
	}
	if _, err := m.AddTask(model.MaintenanceTask{
		Title:    "Upcoming lamp swap",
		NextDate: mustDate(t, "2024-06-16"),
	}); err != nil {
		t.Fatalf("adding task: %v", err)
	}

	added, err := m.EvaluateNow()
	if err != nil {
		t.Fatalf("evaluating: %v", err)
	}
	if added != 2 {
		t.Fatalf("added %d notifications, want 2", added)
	}

	// Idempotent: a second pass adds nothing.
	added, err = m.EvaluateNow()
	if err != nil {
		t.Fatalf("re-evaluating: %v", err)
	}
	if added != 0 {
		t.Errorf("second evaluation added %d notifications", added)
	}

	if m.UnreadCount() != 2 {
		t.Errorf("unread = %d, want 2", m.UnreadCount())
	}
}

func TestNotificationOperations(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.AddTask(model.MaintenanceTask{
		Title:    "Overdue check",
		NextDate: mustDate(t, "2024-06-01"),
	}); err != nil {
		t.Fatalf("adding task: %v", err)
	}
	if _, err := m.EvaluateNow(); err != nil {
		t.Fatalf("evaluating: %v", err)
	}

	feed := m.Notifications()
	if len(feed) != 1 {
		t.Fatalf("feed has %d notifications, want 1", len(feed))
	}

	if err := m.MarkNotificationRead("no-such-id"); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("error = %v, want ErrNotificationNotFound", err)
	}

	if err := m.MarkNotificationRead(feed[0].ID); err != nil {
		t.Fatalf("marking read: %v", err)
	}
	if m.UnreadCount() != 0 {
		t.Errorf("unread = %d after mark read", m.UnreadCount())
	}

	if err := m.ClearNotifications(); err != nil {
		t.Fatalf("clearing: %v", err)
	}
	if len(m.Notifications()) != 0 {
		t.Error("feed not cleared")
	}

	// The task is still overdue, so evaluation re-raises the same alert.
	added, err := m.EvaluateNow()
	if err != nil {
		t.Fatalf("re-evaluating: %v", err)
	}
	if added != 1 {
		t.Errorf("re-evaluation added %d notifications, want 1", added)
	}
	if m.Notifications()[0].ID != feed[0].ID {
		t.Errorf("re-raised alert changed id: %s vs %s", m.Notifications()[0].ID, feed[0].ID)
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	m, _ := newTestManager(t)

	for _, d := range []string{"2024-06-01", "2024-06-05"} {
		if _, err := m.AddTask(model.MaintenanceTask{Title: "t-" + d, NextDate: mustDate(t, d)}); err != nil {
			t.Fatalf("adding task: %v", err)
		}
	}
	if _, err := m.EvaluateNow(); err != nil {
		t.Fatalf("evaluating: %v", err)
	}

	if err := m.MarkAllNotificationsRead(); err != nil {
		t.Fatalf("marking all read: %v", err)
	}
	if m.UnreadCount() != 0 {
		t.Errorf("unread = %d, want 0", m.UnreadCount())
	}
}

func TestStats(t *testing.T) {
	m, _ := newTestManager(t)

	add := func(title, next string, status model.TaskStatus) {
		t.Helper()
		if _, err := m.AddTask(model.MaintenanceTask{
			Title:    title,
			NextDate: mustDate(t, next),
			Status:   status,
		}); err != nil {
			t.Fatalf("adding %s: %v", title, err)
		}
	}

	add("overdue", "2024-06-10", model.StatusPending)
	add("due today", "2024-06-15", model.StatusPending)
	add("due in window", "2024-06-17", model.StatusPending)
	add("far out", "2024-09-01", model.StatusPending)
	add("done", "2024-07-01", model.StatusCompleted)

	s := m.Stats()
	if s.TotalTasks != 5 {
		t.Errorf("total = %d, want 5", s.TotalTasks)
	}
	if s.OverdueTasks != 1 {
		t.Errorf("overdue = %d, want 1", s.OverdueTasks)
	}
	if s.UpcomingTasks != 2 {
		t.Errorf("upcoming = %d, want 2", s.UpcomingTasks)
	}
	if s.CompletedTasks != 1 {
		t.Errorf("completed = %d, want 1", s.CompletedTasks)
	}
	if s.ByCategory["General"] != 5 {
		t.Errorf("by category General = %d, want 5", s.ByCategory["General"])
	}
}

func TestUpdatesSignalIsNonBlocking(t *testing.T) {
	m, _ := newTestManager(t)

	// Several mutations without a reader must not deadlock; the channel
	// holds at most one pending signal.
	for i := 0; i < 3; i++ {
		if _, err := m.AddTask(model.MaintenanceTask{Title: "t"}); err != nil {
			t.Fatalf("adding task: %v", err)
		}
	}

	select {
	case <-m.Updates():
	default:
		t.Error("no pending update signal after mutations")
	}
}
