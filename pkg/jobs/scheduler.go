package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job is one scheduled run.
type Job struct {
	ID        string
	Type      string
	Attempt   int
	Scheduled time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// Config controls retries of a failed run.
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Scheduler runs a single job type on a fixed interval. Runs never overlap:
// a tick that arrives while a run is in progress is dropped.
type Scheduler struct {
	name       string
	handler    Handler
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler builds a scheduler for handler.
func NewScheduler(name string, handler Handler, cfg Config) *Scheduler {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Scheduler{
		name:       name,
		handler:    handler,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
	}
}

// Start runs jobType once right away and then every interval until ctx is
// cancelled or Stop is called. A non-positive interval means a single run.
// Calling Start on a running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration, jobType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, interval, jobType, s.done)
	s.logger.Info("scheduler started", zap.String("scheduler", s.name), zap.Duration("interval", interval))
}

// Stop cancels the loop and waits for an in-flight run to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if done == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("scheduler stopped", zap.String("scheduler", s.name))
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, jobType string, done chan struct{}) {
	defer close(done)
	s.run(ctx, jobType)
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.run(ctx, jobType)
		}
	}
}

// run executes one job, retrying up to maxRetries times with a linear backoff.
func (s *Scheduler) run(ctx context.Context, jobType string) {
	job := Job{ID: uuid.NewString(), Type: jobType, Scheduled: time.Now().UTC()}
	for job.Attempt = 1; ; job.Attempt++ {
		err := s.handler(ctx, job)
		if err == nil || ctx.Err() != nil {
			return
		}
		fields := []zap.Field{zap.String("scheduler", s.name), zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err)}
		if job.Attempt > s.maxRetries {
			s.logger.Error("job failed, giving up", fields...)
			return
		}
		s.logger.Warn("job failed, retrying", fields...)

		timer := time.NewTimer(s.retryDelay * time.Duration(job.Attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
