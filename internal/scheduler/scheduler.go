// Package scheduler periodically regenerates the shortlists of open jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"talent-match/internal/usecase"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type OpenJobsRegenerator interface {
	RegenerateOpenJobs(ctx context.Context) (usecase.RegenerationSummary, error)
}

// Scheduler wraps robfig/cron. Overlapping runs are skipped.
type Scheduler struct {
	cron   *cron.Cron
	svc    OpenJobsRegenerator
	spec   string
	logger *zap.Logger

	// first tracks the immediate run, which cron's own job waiter does not see.
	first sync.WaitGroup
}

func New(svc OpenJobsRegenerator, spec string, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("scheduler")
	cl := cronLogger{l: logger.Sugar()}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		svc:    svc,
		spec:   spec,
		logger: logger,
	}
}

// Start registers the regeneration job, starts the cron loop and kicks
// off one run immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) })
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	s.logger.Info("cron started", zap.String("spec", s.spec))

	// through the entry so SkipIfStillRunning also covers the first run
	job := s.cron.Entry(id).WrappedJob
	s.first.Add(1)
	go func() {
		defer s.first.Done()
		job.Run()
	}()
	return nil
}

// Stop halts the cron loop and waits for running jobs, including the
// immediate first run, to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.first.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("stop timed out waiting for running job")
	}
	s.logger.Info("cron stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Info("regeneration cycle started")
	sum, err := s.svc.RegenerateOpenJobs(ctx)
	if err != nil {
		s.logger.Error("regeneration cycle failed", zap.Error(err))
		return
	}
	s.logger.Info("regeneration cycle complete",
		zap.Int("jobs", sum.Jobs),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
	)
}

type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
