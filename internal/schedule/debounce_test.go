package schedule

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { calls.Add(1) })
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Notify()
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("burst of notifications ran fn %d times, want 1", got)
	}
}

func TestDebouncerRestartsOnNotify(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { calls.Add(1) })
	defer d.Stop()

	d.Notify()
	time.Sleep(30 * time.Millisecond)
	// Still inside the window; this must push the deadline out.
	d.Notify()
	time.Sleep(30 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Fatalf("fn ran before the restarted delay elapsed")
	}

	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("fn ran %d times after quiet period, want 1", got)
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { calls.Add(1) })

	d.Notify()
	d.Stop()
	d.Notify()

	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("fn ran %d times after Stop", got)
	}
}
