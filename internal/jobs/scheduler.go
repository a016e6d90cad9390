package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/ledger"
)

// Scheduler owns the recurring background jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	log       *zap.Logger
}

// NewScheduler creates a new job scheduler
func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		log:       log,
	}
}

// ScheduleRecurringJobs registers the recurring jobs and starts the
// scheduler in the background.
func (s *Scheduler) ScheduleRecurringJobs(store ledger.Store) error {
	reconcile := NewReconcileCommissionsJob(store, s.log)

	if _, err := s.scheduler.Every(10).Minutes().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := reconcile.Run(ctx); err != nil {
			s.log.Error("commission reconciliation sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
