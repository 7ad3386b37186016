package usecase

import (
	"context"
	"time"

	"GameHarvester/internal/ports"
)

// Scheduler wires an interval driver with the harvester for daemon mode.
type Scheduler struct {
	driver    ports.Scheduler
	harvester *Harvester
}

// NewScheduler returns a helper to start/stop recurring harvest runs.
func NewScheduler(driver ports.Scheduler, harvester *Harvester) *Scheduler {
	return &Scheduler{driver: driver, harvester: harvester}
}

// Start registers the harvester with the provided scheduler driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.harvester == nil {
		return nil
	}

	job := func(time.Time) {
		_, _ = s.harvester.Run(ctx)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
