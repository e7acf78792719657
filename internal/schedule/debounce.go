package schedule

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of task-list changes into a single evaluation.
// Each Notify restarts the timer; fn runs once, on its own goroutine, after
// the delay elapses with no further notifications.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	stopped bool
}

// NewDebouncer creates a Debouncer that invokes fn after delay of quiet.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Notify signals that a change happened, restarting (not queueing) the timer.
func (d *Debouncer) Notify() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Stop cancels any pending invocation. Further notifications are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
