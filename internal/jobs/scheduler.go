package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/queue"
)

// Scheduler enqueues recurring maintenance tasks for the worker.
type Scheduler struct {
	cron     *cron.Cron
	producer *queue.Producer
	log      zerolog.Logger
}

func NewScheduler(producer *queue.Producer, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		producer: producer,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.producer == nil {
		return nil
	}

	// 04:00 UTC, after the night rollover window everywhere that matters.
	if _, err := s.cron.AddFunc("0 0 4 * * *", s.enqueueCleanup); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop prevents further runs and waits for in-flight jobs, up to the
// caller's deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out with jobs still running")
	}
}

func (s *Scheduler) enqueueCleanup() {
	if err := s.producer.Enqueue(context.Background(), queue.TaskCleanup, nil); err != nil {
		s.log.Error().Err(err).Msg("enqueue cleanup failed")
	}
}
