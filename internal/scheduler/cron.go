package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"inbox2notion/internal/config"
)

// Scheduler arms the fixed-time and interval triggers
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New builds a scheduler that fires engine.RunWithCatchUp on every trigger.
// Every trigger registers the one wrapped job below. SkipIfStillRunning
// guards per wrapper instance, so sharing the wrapper is what keeps passes
// from overlapping: a trigger arriving while any pass is still running is
// skipped, and its work is folded into the catch-up computation of the
// next one.
func New(ctx context.Context, sched config.Schedule, engine *Engine, logger *slog.Logger) (*Scheduler, error) {
	logger = logger.With("component", "cron")

	c := cron.New()

	job := cron.NewChain(
		cron.SkipIfStillRunning(cronLogger{logger}),
		cron.Recover(cronLogger{logger}),
	).Then(cron.FuncJob(func() {
		if err := engine.RunWithCatchUp(ctx); err != nil {
			logger.Error("scheduled run failed", "error", err)
		}
	}))

	for _, ft := range sched.FixedTimes {
		clock, err := time.Parse("15:04", ft)
		if err != nil {
			return nil, fmt.Errorf("invalid fixed time %q: %w", ft, err)
		}
		spec := fmt.Sprintf("%d %d * * *", clock.Minute(), clock.Hour())
		if _, err := c.AddJob(spec, job); err != nil {
			return nil, fmt.Errorf("arming fixed time %s: %w", ft, err)
		}
	}

	if _, err := c.AddJob(fmt.Sprintf("@every %dm", sched.IntervalMinutes), job); err != nil {
		return nil, fmt.Errorf("arming interval trigger: %w", err)
	}

	return &Scheduler{cron: c, logger: logger}, nil
}

// Start arms the triggers
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("triggers armed", "entries", len(s.cron.Entries()))
}

// Stop disarms the triggers and waits for a running pass to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("triggers stopped")
}

// cronLogger adapts slog to the cron logger interface
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
