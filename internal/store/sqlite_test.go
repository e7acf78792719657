package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"edificaflow/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})
	return s
}

func TestAbsentCollectionsLoadEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tasks, err := s.LoadTasks(ctx)
	if err != nil {
		t.Fatalf("loading tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("fresh store returned %d tasks", len(tasks))
	}

	history, err := s.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("loading history: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("fresh store returned %d history entries", len(history))
	}

	categories, err := s.LoadCategories(ctx)
	if err != nil {
		t.Fatalf("loading categories: %v", err)
	}
	if len(categories) != 0 {
		t.Errorf("fresh store returned %d categories", len(categories))
	}

	notifications, err := s.LoadNotifications(ctx)
	if err != nil {
		t.Fatalf("loading notifications: %v", err)
	}
	if len(notifications) != 0 {
		t.Errorf("fresh store returned %d notifications", len(notifications))
	}
}

func TestTasksRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	next, _ := model.ParseDate("2024-07-15")
	performed, _ := model.ParseDate("2024-06-15")
	want := []model.MaintenanceTask{
		{
			ID:                "t1",
			Title:             "Test generator",
			Description:       "Monthly load test",
			Category:          "Electrical",
			Location:          "Basement",
			Frequency:         model.FrequencyMonthly,
			Priority:          model.PriorityCritical,
			NextDate:          next,
			LastPerformed:     &performed,
			Status:            model.StatusPending,
			Responsible:       "A. Souza",
			ResponsibleEmail:  "a.souza@example.com",
			DocumentationLink: "https://docs/generator",
			CreatedAt:         time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
			UpdatedAt:         time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC),
		},
	}

	if err := s.SaveTasks(ctx, want); err != nil {
		t.Fatalf("saving tasks: %v", err)
	}

	got, err := s.LoadTasks(ctx)
	if err != nil {
		t.Fatalf("loading tasks: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("loaded %d tasks, want 1", len(got))
	}
	if got[0].ID != "t1" || got[0].Frequency != model.FrequencyMonthly {
		t.Errorf("task fields lost in round trip: %+v", got[0])
	}
	if got[0].NextDate.String() != "2024-07-15" {
		t.Errorf("next date = %s, want 2024-07-15", got[0].NextDate)
	}
	if got[0].LastPerformed == nil || got[0].LastPerformed.String() != "2024-06-15" {
		t.Errorf("last performed lost: %v", got[0].LastPerformed)
	}
}

func TestSaveReplacesWholeCollection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveCategories(ctx, []string{"Electrical", "Plumbing"}); err != nil {
		t.Fatalf("saving categories: %v", err)
	}
	if err := s.SaveCategories(ctx, []string{"General"}); err != nil {
		t.Fatalf("re-saving categories: %v", err)
	}

	got, err := s.LoadCategories(ctx)
	if err != nil {
		t.Fatalf("loading categories: %v", err)
	}
	if len(got) != 1 || got[0] != "General" {
		t.Errorf("save did not replace the collection: %v", got)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := []model.HistoryEntry{
		{
			ID:              "h1",
			TaskID:          "t1",
			TaskTitle:       "Inspect sprinklers",
			Category:        "Fire Safety",
			Location:        "All floors",
			CompletedAt:     time.Date(2024, 5, 2, 14, 0, 0, 0, time.UTC),
			ExecutedBy:      "Firetech Ltda",
			WorkDescription: "Annual inspection",
			Attachments: []model.Attachment{
				{Name: "report.pdf", URL: "https://files/report", Kind: model.AttachmentDocument},
			},
		},
	}

	if err := s.SaveHistory(ctx, want); err != nil {
		t.Fatalf("saving history: %v", err)
	}

	got, err := s.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("loading history: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("loaded %d entries, want 1", len(got))
	}
	if len(got[0].Attachments) != 1 || got[0].Attachments[0].Kind != model.AttachmentDocument {
		t.Errorf("attachments lost in round trip: %+v", got[0].Attachments)
	}
}

func TestNotificationsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := []model.Notification{
		{
			ID:      "overdue-t1-2024-05-01",
			Title:   "Maintenance overdue",
			Message: `Task "x" was due on 2024-05-01.`,
			Kind:    model.NotificationOverdue,
			Date:    time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
			Read:    true,
		},
	}

	if err := s.SaveNotifications(ctx, want); err != nil {
		t.Fatalf("saving notifications: %v", err)
	}

	got, err := s.LoadNotifications(ctx)
	if err != nil {
		t.Fatalf("loading notifications: %v", err)
	}
	if len(got) != 1 || !got[0].Read || got[0].Kind != model.NotificationOverdue {
		t.Errorf("notification lost in round trip: %+v", got)
	}
}

func TestMalformedCollectionFailsLoudly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO collections (name, payload) VALUES ('tasks', '{not json')",
	)
	if err != nil {
		t.Fatalf("seeding malformed payload: %v", err)
	}

	_, err = s.LoadTasks(ctx)
	if err == nil {
		t.Fatal("malformed payload loaded without error")
	}
	if !strings.Contains(err.Error(), "decoding collection tasks") {
		t.Errorf("unexpected error: %v", err)
	}
}
