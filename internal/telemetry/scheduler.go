package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler runs Exporter.Push periodically.
type Scheduler struct {
	scheduler *gocron.Scheduler
	exporter  *Exporter
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

func NewScheduler(exporter *Exporter, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		exporter:  exporter,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    logger,
	}
}

// Start schedules the push job and starts the scheduler in the background.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 5
	}
	_, err := s.scheduler.Every(minutes).Minutes().Do(s.runPush)
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop halts the scheduler and closes the exporter's writer.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	if err := s.exporter.Close(); err != nil {
		s.logger.Warn("error closing metrics writer", "error", err)
	}
}

func (s *Scheduler) runPush() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.exporter.Push(ctx); err != nil {
		s.logger.Error("error during metrics push", "error", err)
		return
	}
	s.logger.Info("successfully pushed metrics")
}
