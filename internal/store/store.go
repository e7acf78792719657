package store

import (
	"context"

	"edificaflow/internal/model"
)

// Store is the persistence boundary for the four application collections.
// Each collection is read whole at startup and replaced whole on every
// change; there is exactly one writer, so no finer-grained contract is
// needed. An absent collection loads as empty; a malformed one fails loudly.
type Store interface {
	LoadTasks(ctx context.Context) ([]model.MaintenanceTask, error)
	SaveTasks(ctx context.Context, tasks []model.MaintenanceTask) error

	LoadHistory(ctx context.Context) ([]model.HistoryEntry, error)
	SaveHistory(ctx context.Context, entries []model.HistoryEntry) error

	LoadCategories(ctx context.Context) ([]string, error)
	SaveCategories(ctx context.Context, categories []string) error

	LoadNotifications(ctx context.Context) ([]model.Notification, error)
	SaveNotifications(ctx context.Context, notifications []model.Notification) error

	Close() error
}
