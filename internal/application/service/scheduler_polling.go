package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"remindme/internal/domain/entity"
	"remindme/internal/infrastructure/scheduler"
	appErrors "remindme/internal/pkg/errors"
	"remindme/internal/pkg/logger"
	"remindme/internal/pkg/metrics"
)

// unhealthyAfter is the number of consecutive failed ticks after which the
// polling scheduler reports itself unhealthy.
const unhealthyAfter = 5

type pollingScheduler struct {
	engine            EngineService
	runner            *scheduler.Scheduler
	log               logger.Logger
	tickInterval      time.Duration
	cleanupCron       string
	consecutiveErrors atomic.Int64
}

// NewPollingScheduler creates the self-driven SchedulerService: it ticks the
// engine every tickInterval and runs the cleanup sweep on cleanupCron.
func NewPollingScheduler(
	engine EngineService,
	runner *scheduler.Scheduler,
	log logger.Logger,
	tickInterval time.Duration,
	cleanupCron string,
) SchedulerService {
	return &pollingScheduler{
		engine:       engine,
		runner:       runner,
		log:          log,
		tickInterval: tickInterval,
		cleanupCron:  cleanupCron,
	}
}

// Start registers the tick and cleanup jobs and starts the runner.
func (s *pollingScheduler) Start(ctx context.Context) error {
	if _, err := s.runner.AddEvery(s.tickInterval, s.tick); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrScheduling, err)
	}
	if _, err := s.runner.AddJob(s.cleanupCron, s.sweep); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrScheduling, err)
	}
	s.runner.Start()
	s.log.Info(fmt.Sprintf("Polling scheduler started: tick every %s, cleanup on %q", s.tickInterval, s.cleanupCron))
	return nil
}

func (s *pollingScheduler) tick() {
	if err := s.engine.RunTick(context.Background()); err != nil {
		n := s.consecutiveErrors.Add(1)
		metrics.SetConsecutiveTickErrors(int(n))
		s.log.Error(fmt.Sprintf("Tick failed (%d consecutive)", n), err)
		return
	}
	s.consecutiveErrors.Store(0)
	metrics.SetConsecutiveTickErrors(0)
}

func (s *pollingScheduler) sweep() {
	if _, err := s.engine.RunCleanup(context.Background()); err != nil {
		s.log.Error("Cleanup sweep failed", err)
	}
}

// Stop stops the runner. An in-progress tick finishes first.
func (s *pollingScheduler) Stop() {
	s.runner.Stop()
}

// OnReminderSaved is a no-op: the loop reads the store fresh every tick.
func (s *pollingScheduler) OnReminderSaved(ctx context.Context, reminder *entity.Reminder) error {
	return nil
}

// OnReminderDeleted is a no-op: a deleted reminder stops appearing in the
// active set.
func (s *pollingScheduler) OnReminderDeleted(ctx context.Context, reminderID uint) error {
	return nil
}

// Healthy reports false once ticks keep failing back to back.
func (s *pollingScheduler) Healthy() bool {
	return s.consecutiveErrors.Load() < unhealthyAfter
}
