package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Recheck periodically re-runs alert evaluation so that date rollover at
// midnight raises alerts without any user action.
type Recheck struct {
	cron *cron.Cron
}

// NewRecheck registers job to run every interval.
func NewRecheck(interval time.Duration, job func()) (*Recheck, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("schedule: recheck interval must be positive")
	}

	c := cron.New()
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	if _, err := c.AddFunc(fmt.Sprintf("@every %ds", seconds), job); err != nil {
		return nil, fmt.Errorf("registering recheck job: %w", err)
	}

	return &Recheck{cron: c}, nil
}

// Start begins the periodic schedule.
func (r *Recheck) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running job to finish.
func (r *Recheck) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}
