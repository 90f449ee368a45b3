// -----------------------------------------------------------------------
// Cycle Scheduler
// Cron-driven recurring scrape cycles for daemon mode
// -----------------------------------------------------------------------

package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
)

// CycleFunc runs one scrape cycle
type CycleFunc func(ctx context.Context) error

// Scheduler triggers scrape cycles on a cron schedule. Overlapping runs are
// suppressed: a tick that fires while a cycle is in flight is skipped.
type Scheduler struct {
	config common.SchedulerConfig
	cycle  CycleFunc
	logger arbor.ILogger

	cron    *cron.Cron
	running sync.Mutex
	started bool
}

// NewScheduler creates a cycle scheduler
func NewScheduler(config common.SchedulerConfig, cycle CycleFunc, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		config: config,
		cycle:  cycle,
		logger: logger,
		cron:   cron.New(),
	}
}

// Start registers the schedule and begins firing cycles. The context bounds
// every triggered cycle.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.config.Schedule, err)
	}

	s.cron.Start()
	s.started = true

	s.logger.Info().Str("schedule", s.config.Schedule).Msg("Scheduler started")

	if s.config.RunOnStart {
		go s.runCycle(ctx)
	}

	return nil
}

// Stop halts the schedule and waits for a running cycle to finish
func (s *Scheduler) Stop() {
	if !s.started {
		return
	}

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	// Block until any in-flight cycle releases the lock
	s.running.Lock()
	s.running.Unlock()

	s.started = false
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if !s.running.TryLock() {
		s.logger.Warn().Msg("Previous cycle still running, skipping this tick")
		return
	}
	defer s.running.Unlock()

	if ctx.Err() != nil {
		return
	}

	if err := s.cycle(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Scheduled cycle failed")
	}
}
