package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"inbox2notion/internal/config"
)

// currentWindow is the fetch window for the immediate pass of a trigger.
const currentWindow = 24 * time.Hour

// RunClock persists the timestamp processing has caught up to.
type RunClock interface {
	Load(now time.Time) (time.Time, error)
	Save(t time.Time) error
}

// PassFunc executes one processing pass over messages received since the
// given instant.
type PassFunc func(ctx context.Context, since time.Time) error

// Engine replays missed runs and executes the current pass on every trigger
type Engine struct {
	schedule config.Schedule
	clock    RunClock
	pass     PassFunc
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngine creates a catch-up engine around one pass function
func NewEngine(sched config.Schedule, clock RunClock, pass PassFunc, logger *slog.Logger) *Engine {
	return &Engine{
		schedule: sched,
		clock:    clock,
		pass:     pass,
		logger:   logger.With("component", "scheduler"),
		now:      time.Now,
	}
}

// RunWithCatchUp replays every missed trigger oldest-first, then runs the
// current pass. The run clock advances once per invocation and only when
// every pass succeeded, so a failure replays an overlapping window on the
// next trigger; the dedup ledger keeps replays harmless.
func (e *Engine) RunWithCatchUp(ctx context.Context) error {
	now := e.now()

	lastRun, err := e.clock.Load(now)
	if err != nil {
		return fmt.Errorf("loading run clock: %w", err)
	}

	missed := MissedRuns(e.schedule, lastRun, now)
	if len(missed) > 0 {
		e.logger.Info("catching up missed runs", "count", len(missed), "last_run", lastRun)
	}

	var firstErr error
	for _, runAt := range missed {
		if err := ctx.Err(); err != nil {
			return err
		}

		e.logger.Info("replaying missed run", "scheduled_at", runAt)
		if err := e.pass(ctx, runAt); err != nil {
			e.logger.Error("missed run failed", "scheduled_at", runAt, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if err := e.pass(ctx, now.Add(-currentWindow)); err != nil {
		e.logger.Error("current pass failed", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return fmt.Errorf("catch-up incomplete, run clock not advanced: %w", firstErr)
	}

	if err := e.clock.Save(now); err != nil {
		return fmt.Errorf("saving run clock: %w", err)
	}

	return nil
}
