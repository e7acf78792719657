// Package state owns the application state: the four persisted collections
// and every mutation operation on them. All writes funnel through one
// Manager, which persists whole collections on each change and re-derives
// the notification feed behind a debounce.
package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"edificaflow/internal/ai"
	"edificaflow/internal/model"
	"edificaflow/internal/schedule"
	"edificaflow/internal/store"
)

var (
	ErrTaskNotFound         = errors.New("state: task not found")
	ErrNotificationNotFound = errors.New("state: notification not found")
	ErrMissingExecutor      = errors.New("state: executed-by is required")
	ErrMissingWork          = errors.New("state: work description is required")
)

// AIImportLocation is the placeholder location assigned to generated tasks
// until the user edits them.
const AIImportLocation = "Main building"

// Options tunes a Manager.
type Options struct {
	// DebounceDelay is how long to wait after the last task change before
	// re-evaluating alerts. Zero means 2 seconds.
	DebounceDelay time.Duration

	// UpcomingWindowDays overrides the engine's upcoming window when > 0.
	UpcomingWindowDays int

	// Now substitutes the clock in tests. Nil means time.Now.
	Now func() time.Time
}

// Stats summarizes the task list for the dashboard.
type Stats struct {
	TotalTasks     int
	CompletedTasks int
	OverdueTasks   int
	UpcomingTasks  int
	ByCategory     map[string]int
}

// Manager is the single serialized-access point for application state.
type Manager struct {
	mu sync.Mutex

	store  store.Store
	log    *zap.Logger
	engine schedule.Engine
	now    func() time.Time

	debounce *schedule.Debouncer
	updates  chan struct{}

	tasks         []model.MaintenanceTask
	history       []model.HistoryEntry
	categories    []string
	notifications []model.Notification
}

// New loads all four collections from the store and returns a ready Manager.
// A load failure is fatal by policy: corrupted state must surface at startup,
// not be silently replaced.
func New(ctx context.Context, s store.Store, log *zap.Logger, opts Options) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}

	engine := schedule.NewEngine()
	if opts.UpcomingWindowDays > 0 {
		engine.UpcomingWindowDays = opts.UpcomingWindowDays
	}

	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	delay := opts.DebounceDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	m := &Manager{
		store:   s,
		log:     log,
		engine:  engine,
		now:     nowFn,
		updates: make(chan struct{}, 1),
	}
	m.debounce = schedule.NewDebouncer(delay, func() {
		if _, err := m.EvaluateNow(); err != nil {
			log.Error("debounced alert evaluation failed", zap.Error(err))
		}
	})

	var err error
	if m.tasks, err = s.LoadTasks(ctx); err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	if m.history, err = s.LoadHistory(ctx); err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	if m.categories, err = s.LoadCategories(ctx); err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}
	if m.notifications, err = s.LoadNotifications(ctx); err != nil {
		return nil, fmt.Errorf("loading notifications: %w", err)
	}

	if len(m.categories) == 0 {
		m.categories = model.DefaultCategories()
		if err := s.SaveCategories(ctx, m.categories); err != nil {
			return nil, fmt.Errorf("seeding categories: %w", err)
		}
	}

	return m, nil
}

// Close stops the debounce timer. The store is closed by the caller that
// opened it.
func (m *Manager) Close() {
	m.debounce.Stop()
}

// Updates returns a channel that receives a signal whenever state changed.
// The channel has capacity one; a pending signal absorbs later ones.
func (m *Manager) Updates() <-chan struct{} {
	return m.updates
}

func (m *Manager) signalUpdate() {
	select {
	case m.updates <- struct{}{}:
	default:
	}
}

// Tasks returns a copy of the task list, newest first.
func (m *Manager) Tasks() []model.MaintenanceTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.MaintenanceTask, len(m.tasks))
	copy(out, m.tasks)
	return out
}

// Task returns the task with the given id.
func (m *Manager) Task(id string) (model.MaintenanceTask, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.MaintenanceTask{}, false
}

// History returns a copy of the history list, newest first.
func (m *Manager) History() []model.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.HistoryEntry, len(m.history))
	copy(out, m.history)
	return out
}

// Categories returns a copy of the category set in insertion order.
func (m *Manager) Categories() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.categories))
	copy(out, m.categories)
	return out
}

// Notifications returns a copy of the notification feed, newest first.
func (m *Manager) Notifications() []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

// UnreadCount returns the number of unread notifications.
func (m *Manager) UnreadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// Stats summarizes the task list at the current instant.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	today := model.Today(now)
	horizon := today.AddDays(m.engine.UpcomingWindowDays)

	s := Stats{ByCategory: make(map[string]int)}
	for _, t := range m.tasks {
		s.TotalTasks++
		s.ByCategory[t.Category]++

		switch {
		case t.Status == model.StatusCompleted:
			s.CompletedTasks++
		case t.IsOverdue(now):
			s.OverdueTasks++
		case !t.NextDate.Before(today) && !t.NextDate.After(horizon):
			s.UpcomingTasks++
		}
	}
	return s
}

// AddTask creates a new task from the given input. Missing fields take the
// defaults of a fresh task: category General, monthly cadence, medium
// priority, next date today, pending status. The category set grows if the
// task names a new category.
func (m *Manager) AddTask(input model.MaintenanceTask) (model.MaintenanceTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	task := input
	task.ID = uuid.New().String()
	if task.Category == "" {
		task.Category = "General"
	}
	if task.Frequency == "" {
		task.Frequency = model.FrequencyMonthly
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if task.NextDate.IsZero() {
		task.NextDate = model.Today(now)
	}
	if task.Status == "" {
		task.Status = model.StatusPending
	}
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := task.Validate(); err != nil {
		return model.MaintenanceTask{}, err
	}

	if err := m.growCategoryLocked(task.Category); err != nil {
		return model.MaintenanceTask{}, err
	}

	m.tasks = append([]model.MaintenanceTask{task}, m.tasks...)
	if err := m.persistTasksLocked(); err != nil {
		return model.MaintenanceTask{}, err
	}

	m.afterTaskChangeLocked()
	return task, nil
}

// UpdateTask replaces an existing task's mutable fields in place.
func (m *Manager) UpdateTask(task model.MaintenanceTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOfLocked(task.ID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, task.ID)
	}

	task.CreatedAt = m.tasks[idx].CreatedAt
	task.LastPerformed = m.tasks[idx].LastPerformed
	task.UpdatedAt = m.now()

	if err := task.Validate(); err != nil {
		return err
	}
	if err := m.growCategoryLocked(task.Category); err != nil {
		return err
	}

	m.tasks[idx] = task
	if err := m.persistTasksLocked(); err != nil {
		return err
	}

	m.afterTaskChangeLocked()
	return nil
}

// DeleteTask removes a task. History entries referencing it are kept; the
// back-reference is not an ownership relation.
func (m *Manager) DeleteTask(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOfLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	m.tasks = append(m.tasks[:idx], m.tasks[idx+1:]...)
	if err := m.persistTasksLocked(); err != nil {
		return err
	}

	m.afterTaskChangeLocked()
	return nil
}

// CompleteTask records one execution of a pending task: it appends the
// history snapshot, advances the schedule by one cadence unit, and resets
// the task to pending for its next occurrence. The guard conditions the
// engine does not check live here.
func (m *Manager) CompleteTask(id string, c schedule.Completion) (model.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(c.ExecutedBy) == "" {
		return model.HistoryEntry{}, ErrMissingExecutor
	}
	if strings.TrimSpace(c.WorkDescription) == "" {
		return model.HistoryEntry{}, ErrMissingWork
	}

	idx := m.indexOfLocked(id)
	if idx < 0 {
		return model.HistoryEntry{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	updated, entry := schedule.Advance(m.tasks[idx], c, m.now())
	m.tasks[idx] = updated
	m.history = append([]model.HistoryEntry{entry}, m.history...)

	if err := m.persistTasksLocked(); err != nil {
		return model.HistoryEntry{}, err
	}
	if err := m.store.SaveHistory(context.Background(), m.history); err != nil {
		return model.HistoryEntry{}, fmt.Errorf("persisting history: %w", err)
	}

	m.afterTaskChangeLocked()
	return entry, nil
}

// ImportPlan turns generated plan items into tasks. Each gets a fresh id,
// pending status, a placeholder location, and today as its next date. A
// category unknown to the set is appended exactly once, no matter how many
// items share it.
func (m *Manager) ImportPlan(items []ai.PlanItem) ([]model.MaintenanceTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	today := model.Today(now)

	created := make([]model.MaintenanceTask, 0, len(items))
	for _, item := range items {
		task := model.MaintenanceTask{
			ID:          uuid.New().String(),
			Title:       item.Title,
			Description: item.Description,
			Category:    item.Category,
			Location:    AIImportLocation,
			Frequency:   item.Frequency,
			Priority:    item.Priority,
			NextDate:    today,
			Status:      model.StatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := task.Validate(); err != nil {
			return nil, fmt.Errorf("generated task %q: %w", item.Title, err)
		}
		if err := m.growCategoryLocked(task.Category); err != nil {
			return nil, err
		}
		created = append(created, task)
	}

	m.tasks = append(created, m.tasks...)
	if err := m.persistTasksLocked(); err != nil {
		return nil, err
	}

	m.afterTaskChangeLocked()
	return created, nil
}

// AddCategory appends a category to the set if not already present.
func (m *Manager) AddCategory(category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.growCategoryLocked(category); err != nil {
		return err
	}
	m.signalUpdate()
	return nil
}

// MarkNotificationRead flips a single notification to read.
func (m *Manager) MarkNotificationRead(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.notifications {
		if m.notifications[i].ID == id {
			m.notifications[i].Read = true
			if err := m.persistNotificationsLocked(); err != nil {
				return err
			}
			m.signalUpdate()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotificationNotFound, id)
}

// MarkAllNotificationsRead flips the whole feed to read.
func (m *Manager) MarkAllNotificationsRead() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := false
	for i := range m.notifications {
		if !m.notifications[i].Read {
			m.notifications[i].Read = true
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if err := m.persistNotificationsLocked(); err != nil {
		return err
	}
	m.signalUpdate()
	return nil
}

// ClearNotifications empties the feed. Cleared alerts for still-due tasks
// will reappear on the next evaluation with the same deterministic ids.
func (m *Manager) ClearNotifications() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.notifications) == 0 {
		return nil
	}
	m.notifications = nil
	if err := m.persistNotificationsLocked(); err != nil {
		return err
	}
	m.signalUpdate()
	return nil
}

// EvaluateNow runs alert evaluation immediately, bypassing the debounce.
// It returns the number of new notifications added to the feed.
func (m *Manager) EvaluateNow() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidates := m.engine.Evaluate(m.tasks, m.now())

	// Length comparison is not enough: at the feed cap, a fresh alert
	// displaces an old one without changing the length.
	existing := make(map[string]bool, len(m.notifications))
	for _, n := range m.notifications {
		existing[n.ID] = true
	}
	added := 0
	for _, c := range candidates {
		if !existing[c.ID] {
			added++
		}
	}
	if added == 0 {
		return 0, nil
	}

	m.notifications = schedule.Merge(m.notifications, candidates)
	if err := m.persistNotificationsLocked(); err != nil {
		return 0, err
	}
	m.signalUpdate()
	return added, nil
}

// afterTaskChangeLocked kicks the debounced evaluation and signals the UI.
func (m *Manager) afterTaskChangeLocked() {
	m.debounce.Notify()
	m.signalUpdate()
}

func (m *Manager) indexOfLocked(id string) int {
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) growCategoryLocked(category string) error {
	grown := model.AppendCategory(m.categories, category)
	if len(grown) == len(m.categories) {
		return nil
	}
	m.categories = grown
	if err := m.store.SaveCategories(context.Background(), m.categories); err != nil {
		return fmt.Errorf("persisting categories: %w", err)
	}
	return nil
}

func (m *Manager) persistTasksLocked() error {
	if err := m.store.SaveTasks(context.Background(), m.tasks); err != nil {
		return fmt.Errorf("persisting tasks: %w", err)
	}
	return nil
}

func (m *Manager) persistNotificationsLocked() error {
	if err := m.store.SaveNotifications(context.Background(), m.notifications); err != nil {
		return fmt.Errorf("persisting notifications: %w", err)
	}
	return nil
}
