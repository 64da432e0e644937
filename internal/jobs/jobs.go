// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Job func(ctx context.Context) error

type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	logger *slog.Logger
}

func NewScheduler(ctx context.Context) *Scheduler {
	logger := slog.With("component", "jobs")
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger{logger}),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger}), cron.Recover(cronLogger{logger})),
		),
		ctx:    ctx,
		logger: logger,
	}
}

// Add registers a job. An empty schedule leaves the job disabled.
func (s *Scheduler) Add(name string, schedule string, job Job) error {
	if schedule == "" {
		s.logger.Info("Job disabled", "job", name)
		return nil
	}
	_, err := s.cron.AddFunc(schedule, func() {
		start := time.Now()
		if err := job(s.ctx); err != nil {
			s.logger.Error("Job failed", "job", name, "error", err)
			return
		}
		s.logger.Debug("Job finished", "job", name, "duration", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, name, err)
	}
	s.logger.Info("Job scheduled", "job", name, "schedule", schedule)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
