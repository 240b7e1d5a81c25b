package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"temperature-stats/pkg/logging"
)

// Refresher reloads the statistics snapshot
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler periodically re-analyzes the data file served by the API.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *logging.StructuredLogger
}

// New creates a new Scheduler. A non-positive interval disables reloads.
func New(refresher Refresher, interval time.Duration, logger *logging.StructuredLogger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		interval:  interval,
		timeout:   time.Minute,
		logger:    logger,
	}
}

// Start schedules the reload job and starts the underlying scheduler. The
// first run happens one interval after Start; overlapping runs are skipped.
func (s *Scheduler) Start() error {
	ctx := context.Background()

	if s.interval <= 0 {
		s.logger.Info(ctx, "[SCHEDULER_DISABLED] No reload interval configured", logging.Fields{})
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().SingletonMode().Do(s.runOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info(ctx, "[SCHEDULER_STARTED] Statistics reload scheduled", logging.Fields{
		"interval": s.interval.String(),
	})
	return nil
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Debug(ctx, "[SCHEDULER_RELOAD_START] Running statistics reload", logging.Fields{})
	if err := s.refresher.Refresh(ctx); err != nil {
		// the previous snapshot stays in place
		s.logger.Warn(ctx, "[SCHEDULER_RELOAD_FAILED] Statistics reload failed", logging.Fields{
			"error": err.Error(),
		})
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}
