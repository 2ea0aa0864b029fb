package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/TobiSchelling/bizwire/internal/ingest"
	"github.com/TobiSchelling/bizwire/internal/logger"
)

// Runner performs one cycle.
type Runner interface {
	RunOnce(ctx context.Context) *ingest.Result
}

// Scheduler runs one cycle per interval on the calling goroutine. Cycles
// never overlap: ticks that fire while a cycle is running are dropped by the
// ticker.
type Scheduler struct {
	runner     Runner
	interval   time.Duration
	runOnStart bool
	onCycle    func(*ingest.Result)
	logger     *slog.Logger
}

// Options configures a Scheduler.
type Options struct {
	Interval   time.Duration
	RunOnStart bool
	// OnCycle is called after every cycle with its result.
	OnCycle func(*ingest.Result)
	Logger  *slog.Logger
}

// New creates a new scheduler. A non-positive interval defaults to one minute.
func New(runner Runner, opts Options) *Scheduler {
	s := &Scheduler{
		runner:     runner,
		interval:   opts.Interval,
		runOnStart: opts.RunOnStart,
		onCycle:    opts.OnCycle,
		logger:     opts.Logger,
	}
	if s.interval <= 0 {
		s.interval = time.Minute
	}
	if s.logger == nil {
		s.logger = logger.Discard()
	}
	return s
}

// Run blocks until ctx is cancelled and returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "run_on_start", s.runOnStart)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if s.runOnStart {
		s.tick(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	r := s.runner.RunOnce(ctx)
	s.logger.Debug("cycle finished", "outcome", r.Outcome(), "duration", time.Since(start))
	if s.onCycle != nil {
		s.onCycle(r)
	}
}
