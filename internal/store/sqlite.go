package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"edificaflow/internal/model"
)

// Collection names; each maps to one whole-JSON payload row.
const (
	collectionTasks         = "tasks"
	collectionHistory       = "history"
	collectionCategories    = "categories"
	collectionNotifications = "notifications"
)

// SQLiteStore implements Store on a local SQLite database holding one JSON
// payload per collection.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, enables WAL
// mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// loadCollection reads a collection payload. Absence returns (nil, nil);
// the caller supplies its empty default. A payload that fails to decode is
// a loud error by policy, not a silent reset, so corruption never masquerades
// as a fresh install.
func (s *SQLiteStore) loadCollection(ctx context.Context, name string, out any) (bool, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload,
		"SELECT payload FROM collections WHERE name = ?", name,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading collection %s: %w", name, err)
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, fmt.Errorf("decoding collection %s: %w", name, err)
	}
	return true, nil
}

// saveCollection replaces a collection payload in full.
func (s *SQLiteStore) saveCollection(ctx context.Context, name string, in any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding collection %s: %w", name, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO collections (name, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		name, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing collection %s: %w", name, err)
	}
	return nil
}

// LoadTasks reads the full task list; an absent collection is empty.
func (s *SQLiteStore) LoadTasks(ctx context.Context) ([]model.MaintenanceTask, error) {
	var tasks []model.MaintenanceTask
	if _, err := s.loadCollection(ctx, collectionTasks, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// SaveTasks replaces the full task list.
func (s *SQLiteStore) SaveTasks(ctx context.Context, tasks []model.MaintenanceTask) error {
	return s.saveCollection(ctx, collectionTasks, tasks)
}

// LoadHistory reads the full history list; an absent collection is empty.
func (s *SQLiteStore) LoadHistory(ctx context.Context) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	if _, err := s.loadCollection(ctx, collectionHistory, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveHistory replaces the full history list.
func (s *SQLiteStore) SaveHistory(ctx context.Context, entries []model.HistoryEntry) error {
	return s.saveCollection(ctx, collectionHistory, entries)
}

// LoadCategories reads the category set; an absent collection is empty.
func (s *SQLiteStore) LoadCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if _, err := s.loadCollection(ctx, collectionCategories, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// SaveCategories replaces the category set.
func (s *SQLiteStore) SaveCategories(ctx context.Context, categories []string) error {
	return s.saveCollection(ctx, collectionCategories, categories)
}

// LoadNotifications reads the notification feed; an absent collection is
// empty.
func (s *SQLiteStore) LoadNotifications(ctx context.Context) ([]model.Notification, error) {
	var notifications []model.Notification
	if _, err := s.loadCollection(ctx, collectionNotifications, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// SaveNotifications replaces the notification feed.
func (s *SQLiteStore) SaveNotifications(ctx context.Context, notifications []model.Notification) error {
	return s.saveCollection(ctx, collectionNotifications, notifications)
}
