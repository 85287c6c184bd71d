// Package scheduler runs periodic background jobs, such as settling auctions
// whose end time has passed, on robfig/cron.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of periodic work
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job
type JobFunc struct {
	JobName string
	Fn      func(ctx context.Context) error
}

func (f JobFunc) Name() string                  { return f.JobName }
func (f JobFunc) Run(ctx context.Context) error { return f.Fn(ctx) }

// JobObserver is told about every finished run
type JobObserver func(name string, duration time.Duration, err error)

// CronScheduler runs registered jobs on cron specs. A run that is still in
// progress when the next tick fires causes that tick to be skipped.
type CronScheduler struct {
	cron     *cron.Cron
	logger   *zap.Logger
	timeout  time.Duration
	observer JobObserver

	mu      sync.Mutex
	running bool
	baseCtx context.Context
	cancel  context.CancelFunc
	entries map[string]cron.EntryID
}

// Option configures the scheduler
type Option func(*CronScheduler)

// WithTimeout bounds each job run
func WithTimeout(d time.Duration) Option {
	return func(s *CronScheduler) {
		s.timeout = d
	}
}

func WithObserver(o JobObserver) Option {
	return func(s *CronScheduler) {
		s.observer = o
	}
}

func NewCronScheduler(logger *zap.Logger, opts ...Option) *CronScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CronScheduler{
		logger:  logger,
		timeout: time.Minute,
		entries: make(map[string]cron.EntryID),
	}
	for _, opt := range opts {
		opt(s)
	}

	cl := cronLogger{sugar: logger.Sugar()}
	s.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s.baseCtx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Register schedules job on spec, e.g. "@every 15s" or "*/5 * * * *"
func (s *CronScheduler) Register(spec string, job Job) error {
	if job == nil || job.Name() == "" {
		return ErrInvalidJob
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSchedulerRunning
	}

	id, err := s.cron.AddFunc(spec, func() { s.runJob(job) })
	if err != nil {
		return fmt.Errorf("invalid cron spec %q for job %s: %w", spec, job.Name(), err)
	}
	s.entries[job.Name()] = id
	s.logger.Info("Scheduled job registered",
		zap.String("job", job.Name()),
		zap.String("spec", spec),
	)
	return nil
}

// Start begins firing registered jobs
func (s *CronScheduler) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.entries)))
	return nil
}

// Stop prevents new runs, cancels in-flight ones and waits for them to return
func (s *CronScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow executes a registered job immediately through the same wrapper
// chain, so it will not overlap a scheduled run.
func (s *CronScheduler) RunNow(name string) bool {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return false
	}
	entry := s.cron.Entry(id)
	if entry.WrappedJob == nil {
		return false
	}
	entry.WrappedJob.Run()
	return true
}

// NextRun reports when the named job fires next
func (s *CronScheduler) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

func (s *CronScheduler) runJob(job Job) {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.timeout)
	defer cancel()

	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)

	if s.observer != nil {
		s.observer(job.Name(), elapsed, err)
	}
	if err != nil {
		s.logger.Error("Scheduled job failed",
			zap.String("job", job.Name()),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("Scheduled job finished",
		zap.String("job", job.Name()),
		zap.Duration("duration", elapsed),
	)
}

// cronLogger routes robfig/cron's logging through zap
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.With(zap.Error(err)).Errorw("cron: "+msg, keysAndValues...)
}
