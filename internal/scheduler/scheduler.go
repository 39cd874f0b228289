// Package scheduler runs the ingest-then-score cycle on a fixed
// interval in daemon mode. Cycles are serialized: a slow upstream must
// never cause two overlapping runs to race on the history tables.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"freightpulse/internal/app"
	"freightpulse/internal/config"
)

// Scheduler periodically runs the full pipeline cycle.
type Scheduler struct {
	scheduler *gocron.Scheduler
	app       *app.Application
	cfg       config.SchedulerConfig
	logger    *slog.Logger
}

// New creates a scheduler for the application.
func New(a *app.Application, cfg config.SchedulerConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		app:       a,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start schedules the periodic cycle and begins running it in the
// background. The first cycle fires immediately.
func (s *Scheduler) Start() error {
	interval := s.cfg.Interval
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	_, err := s.scheduler.Every(interval).StartImmediately().Do(s.runCycle)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", slog.Duration("interval", interval))
	return nil
}

func (s *Scheduler) runCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	s.logger.InfoContext(ctx, "scheduled cycle starting")

	if err := s.app.RunIngest(ctx, nil); err != nil {
		s.logger.ErrorContext(ctx, "scheduled ingest failed", slog.String("error", err.Error()))
		// Scoring still runs: stale status documents beat no score.
	}

	if _, err := s.app.RunScore(ctx); err != nil {
		s.logger.ErrorContext(ctx, "scheduled scoring failed", slog.String("error", err.Error()))
		return
	}

	s.logger.InfoContext(ctx, "scheduled cycle complete")
}

// Stop halts the scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.logger.Info("scheduler stopped")
}
