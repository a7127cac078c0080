package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
	"github.com/angelmondragon/vendorhub-backend/pkg/metrics"
)

const defaultInterval = time.Hour

type ServiceParams struct {
	Logger   *logger.Logger
	Jobs     *Jobs
	Lock     Lock
	Metrics  *metrics.Jobs
	Interval time.Duration
}

// Service runs every job once per interval while holding the lock.
type Service struct {
	logg     *logger.Logger
	jobs     *Jobs
	lock     Lock
	metrics  *metrics.Jobs
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	jobs := params.Jobs
	if jobs == nil {
		jobs, _ = NewJobs()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		jobs:     jobs,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run executes a cycle immediately and then on every tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	s.cycle(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron.stopped")
			return ctx.Err()
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Service) cycle(ctx context.Context) {
	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "cron.cycle_failed", err)
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	held, err := s.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !held {
		s.logg.Info(ctx, "cron.cycle_skipped")
		return nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "cron.lock_release_failed", err)
		}
	}()

	for _, job := range s.jobs.List() {
		s.runJob(ctx, job)
	}
	return nil
}

// runJob never stops the cycle; a failing job is logged and counted.
func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	start := time.Now()
	err := job.Run(jobCtx)
	elapsed := time.Since(start)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())

	result := "success"
	if err != nil {
		result = "failure"
		s.logg.Error(jobCtx, "cron.job_failed", err)
	} else {
		s.logg.Info(jobCtx, "cron.job_completed")
	}
	s.metrics.Observe(job.Name(), result, elapsed)
}
