// Package scheduler runs periodic background checks. Today that's a
// single job: re-probing adapter availability on a cron schedule so a
// tool that was missing at startup (or went missing mid-run) is
// reflected without a process restart.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/bountyforge/bountyforge/internal/adapter"
)

// Scheduler wraps a cron.Cron instance with the jobs BountyForge needs.
type Scheduler struct {
	cron   *cron.Cron
	logger arbor.ILogger
}

// New constructs a Scheduler using cron.v3's default parser: specs passed
// to ScheduleAvailabilityRefresh are standard five-field cron expressions
// (minute resolution) or descriptors such as "@every 5m".
func New(logger arbor.ILogger) *Scheduler {
	return &Scheduler{cron: cron.New(), logger: logger}
}

// ScheduleAvailabilityRefresh registers a job that re-runs
// registry.CheckAvailability on the given cron spec and logs any tool
// whose availability changed since the last check.
func (s *Scheduler) ScheduleAvailabilityRefresh(spec string, registry *adapter.Registry) error {
	last := make(map[string]bool)

	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		statuses := registry.CheckAvailability(ctx)
		for name, status := range statuses {
			if prev, ok := last[name]; ok && prev != status.Available {
				s.logger.Info().Str("tool", name).Bool("available", status.Available).Msg("adapter availability changed")
			}
			last[name] = status.Available
		}
	})
	return err
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
