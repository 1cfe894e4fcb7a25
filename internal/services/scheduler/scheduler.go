package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
)

// RunFunc executes one collection run
type RunFunc func(ctx context.Context) error

// Service runs the collection pipeline on a cron schedule. Overlapping
// runs are skipped rather than queued.
type Service struct {
	cron     *cron.Cron
	schedule string
	run      RunFunc
	logger   arbor.ILogger
	mu       sync.Mutex
	running  bool
	active   bool
	lastRun  *time.Time
	lastErr  string
}

// NewService creates a scheduler for the given run function
func NewService(schedule string, run RunFunc, logger arbor.ILogger) *Service {
	return &Service{
		cron:     cron.New(),
		schedule: schedule,
		run:      run,
		logger:   logger,
	}
}

// Start validates the schedule and begins periodic execution. The
// context bounds each scheduled run.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if err := common.ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid schedule '%s': %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() { s.execute(ctx) })
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", s.schedule).
		Msg("Scheduler started")

	return nil
}

// execute runs the pipeline unless a run is already in flight
func (s *Service) execute(ctx context.Context) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous run still in progress, skipping scheduled run")
		return
	}
	s.active = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active = false
		now := time.Now()
		s.lastRun = &now
		s.mu.Unlock()
	}()

	if err := s.run(ctx); err != nil {
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		s.logger.Error().Err(err).Msg("Scheduled run failed")
		return
	}

	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

// Stop halts the scheduler and waits for an in-flight run to finish
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	s.logger.Info().Msg("Scheduler stopped")
}

// IsRunning reports whether the scheduler is started
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastError returns the error message of the most recent failed run,
// empty if the last run succeeded
func (s *Service) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
