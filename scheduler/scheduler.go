// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/danielhkuo/courtside/engine"
)

// DefaultInterval is the sweep cadence when none is configured.
const DefaultInterval = time.Minute

// Sweeper is satisfied by *engine.Engine.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (engine.SweepReport, error)
}

// Runner drives deadline sweeps.
type Runner struct {
	target   Sweeper
	interval time.Duration
	now      func() time.Time
}

func New(target Sweeper, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{target: target, interval: interval, now: time.Now}
}

// SetClock replaces the time passed to each sweep, for tests.
func (r *Runner) SetClock(now func() time.Time) { r.now = now }

// Run sweeps once immediately, recovering anything that came due while
// the process was down, then on every tick until ctx is done.
func (r *Runner) Run(ctx context.Context) {
	slog.Info("deadline sweeper started", "interval", r.interval)
	r.sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("deadline sweeper stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Runner) sweep(ctx context.Context) {
	if _, err := r.target.Sweep(ctx, r.now()); err != nil && ctx.Err() == nil {
		slog.Error("sweep failed", "error", err)
	}
}
