package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/univlive/univlive-backend/pkg/logger"
	"github.com/univlive/univlive-backend/pkg/metrics"
)

const defaultInterval = 24 * time.Hour

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs registered jobs on a fixed cadence, one replica at a time.
type Service struct {
	log      *logger.Logger
	jobs     *Registry
	lock     Lock
	stats    *metrics.CronJobMetrics
	interval time.Duration
}

// NewService builds the cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("cron service needs a logger")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("cron service needs a lock")
	}
	svc := &Service{
		log:      params.Logger,
		jobs:     params.Registry,
		lock:     params.Lock,
		stats:    params.Metrics,
		interval: params.Interval,
	}
	if svc.jobs == nil {
		svc.jobs = NewRegistry()
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	return svc, nil
}

// Run executes one cycle immediately, then ticks until the context ends.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.cycle(ctx); err != nil {
		s.log.Error(ctx, "cron cycle failed", err)
	}
	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info(ctx, "cron loop stopped")
			return ctx.Err()
		case <-tick.C:
			if err := s.cycle(ctx); err != nil {
				s.log.Error(ctx, "cron cycle failed", err)
			}
		}
	}
}

func (s *Service) cycle(ctx context.Context) error {
	held, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire cron lock: %w", err)
	}
	if !held {
		s.log.Info(ctx, "cron lock held by another replica, skipping cycle")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.log.Error(ctx, "release cron lock", relErr)
		}
	}()

	s.log.Info(ctx, "cron cycle starting")
	for _, job := range s.jobs.Jobs() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.execute(ctx, job)
	}
	s.log.Info(ctx, "cron cycle done")
	return nil
}

func (s *Service) execute(ctx context.Context, job Job) {
	jobCtx := s.log.WithField(ctx, "job", job.Name())
	s.log.Info(jobCtx, "job start")

	started := time.Now()
	err := job.Run(jobCtx)
	elapsed := time.Since(started)

	if s.stats != nil {
		s.stats.ObserveDuration(job.Name(), elapsed)
	}
	jobCtx = s.log.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.log.Error(jobCtx, "job failed", err)
		if s.stats != nil {
			s.stats.IncFailure(job.Name())
		}
		return
	}
	s.log.Info(jobCtx, "job done")
	if s.stats != nil {
		s.stats.IncSuccess(job.Name())
	}
}
