// Package refresh reloads the view's ticker on a cron schedule.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dgnsrekt/paneview/internal/view"
)

// Reloader re-fetches the loaded ticker.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Scheduler manages the periodic reload task.
type Scheduler struct {
	cron    *cron.Cron
	target  Reloader
	ctx     context.Context
	timeout time.Duration
	runs    atomic.Int64

	onFailure func(ctx context.Context, err error)
}

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func NewScheduler(ctx context.Context, target Reloader, timeout time.Duration) *Scheduler {
	logger := slogLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		target:  target,
		ctx:     ctx,
		timeout: timeout,
	}
}

// Register adds the reload task. Both five-field and seconds-first specs
// are accepted, as are descriptors like "@every 5m".
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.reloadTask); err != nil {
		return fmt.Errorf("register refresh task %q: %w", spec, err)
	}
	slog.Info("refresh task registered", "schedule", spec)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("refresh scheduler started", "entries", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for a running reload.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("refresh scheduler stopped")
}

// OnFailure sets a hook called after a reload fails. Skipped runs do not
// count as failures.
func (s *Scheduler) OnFailure(fn func(ctx context.Context, err error)) {
	s.onFailure = fn
}

// RunNow executes the reload task immediately.
func (s *Scheduler) RunNow() {
	s.reloadTask()
}

// Runs counts completed reload attempts.
func (s *Scheduler) Runs() int64 { return s.runs.Load() }

func (s *Scheduler) reloadTask() {
	defer s.runs.Add(1)
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := s.target.Reload(ctx)
	switch {
	case err == nil:
		slog.Info("refresh reload done", "duration", time.Since(start))
	case errors.Is(err, view.ErrNoTicker):
		slog.Debug("refresh skipped, no ticker loaded")
	case errors.Is(err, view.ErrClosed):
		slog.Debug("refresh skipped, view closed")
	default:
		slog.Error("refresh reload failed", "error", err)
		if s.onFailure != nil {
			s.onFailure(s.ctx, err)
		}
	}
}

// slogLogger adapts cron's logger to slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron "+msg, append(keysAndValues, "error", err)...)
}
