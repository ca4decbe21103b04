// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/courtside/engine"
	"go.uber.org/goleak"
)

type countingSweeper struct {
	calls atomic.Int32
	fail  bool
}

func (c *countingSweeper) Sweep(ctx context.Context, now time.Time) (engine.SweepReport, error) {
	c.calls.Add(1)
	if c.fail {
		return engine.SweepReport{}, errors.New("store unavailable")
	}
	return engine.SweepReport{}, nil
}

func TestRunSweepsImmediately(t *testing.T) {
	defer goleak.VerifyNone(t)

	sw := &countingSweeper{}
	r := New(sw, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for sw.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sw.calls.Load() != 1 {
		t.Errorf("expected one startup sweep, got %d", sw.calls.Load())
	}

	cancel()
	<-done
}

func TestRunTicksUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	sw := &countingSweeper{fail: true}
	r := New(sw, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for sw.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if sw.calls.Load() < 3 {
		t.Errorf("failed sweeps should keep ticking, got %d calls", sw.calls.Load())
	}
}

func TestNewDefaultsInterval(t *testing.T) {
	if r := New(&countingSweeper{}, 0); r.interval != DefaultInterval {
		t.Errorf("expected default interval, got %v", r.interval)
	}
}
