// Package scheduler runs periodic content rescans.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Rescanner is the slice of the document store the scheduler drives.
type Rescanner interface {
	Scan(ctx context.Context) error
}

// Scheduler wraps gocron for the periodic rescan job.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// New creates a scheduler instance.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// ScheduleRescan registers a periodic rescan of the content store. An
// optional sync step (git pull) runs before each scan.
func (s *Scheduler) ScheduleRescan(interval time.Duration, store Rescanner, sync func() error) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			if sync != nil {
				if err := sync(); err != nil {
					slog.Warn("content sync failed, scanning existing checkout", "error", err)
				}
			}
			if err := store.Scan(ctx); err != nil {
				slog.Error("scheduled rescan failed", "error", err)
			}
		}),
		gocron.WithName("content-rescan"),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create rescan job: %w", err)
	}

	slog.Info("scheduled periodic rescan", "interval", interval)
	return job.ID().String(), nil
}

// Start begins executing scheduled jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
