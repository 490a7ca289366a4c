// Package schedule runs the reconciliation job on a cron schedule.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/indieinfra/hydrogen/config"
	"github.com/indieinfra/hydrogen/reconcile"
)

const (
	OverlapSkip  = "skip"
	OverlapDelay = "delay"
)

type Runner interface {
	Run(ctx context.Context) (reconcile.Report, error)
}

type Scheduler struct {
	cron    *cron.Cron
	job     cron.Job
	spec    string
	runner  Runner
	timeout time.Duration
	logger  zerolog.Logger

	mu      sync.Mutex
	parent  context.Context
	started bool
}

func New(cfg *config.Sync, runner Runner, logger zerolog.Logger) (*Scheduler, error) {
	if _, err := config.ScheduleParser.Parse(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}

	logger = logger.With().Str("component", "scheduler").Logger()
	cl := cronLogger{logger: logger}

	var wrapper cron.JobWrapper
	switch cfg.Overlap {
	case OverlapDelay:
		wrapper = cron.DelayIfStillRunning(cl)
	case OverlapSkip, "":
		wrapper = cron.SkipIfStillRunning(cl)
	default:
		return nil, fmt.Errorf("unknown overlap policy %q", cfg.Overlap)
	}

	s := &Scheduler{
		spec:    cfg.Schedule,
		runner:  runner,
		timeout: cfg.Timeout,
		logger:  logger,
		parent:  context.Background(),
	}
	s.job = cron.NewChain(cron.Recover(cl), wrapper).Then(cron.FuncJob(s.run))
	s.cron = cron.New(cron.WithParser(config.ScheduleParser), cron.WithLogger(cl))

	if _, err := s.cron.AddJob(s.spec, s.job); err != nil {
		return nil, fmt.Errorf("register reconciliation job: %w", err)
	}

	return s, nil
}

// Start begins firing the job. Runs derive their context from ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true
	s.parent = ctx
	s.cron.Start()

	s.logger.Info().Str("schedule", s.spec).Msg("scheduler started")
}

// Stop prevents new runs and waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	if !started {
		return nil
	}

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running reconciliation: %w", ctx.Err())
	}
}

func (s *Scheduler) run() {
	s.mu.Lock()
	parent := s.parent
	s.mu.Unlock()

	ctx := parent
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.timeout)
		defer cancel()
	}

	start := time.Now()
	report, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", report.RunID).Msg("scheduled reconciliation failed")
		return
	}

	s.logger.Debug().
		Str("run_id", report.RunID).
		Dur("took", time.Since(start)).
		Msg("scheduled reconciliation complete")
}

// cronLogger adapts zerolog to cron's logr-style logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
