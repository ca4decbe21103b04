// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scheduler runs the engine's deadline sweep in the background.

Deadlines are stored on proposals rather than held in timers, so nothing
is lost across a restart: Run sweeps once at startup, which expires or
decides anything that came due while the process was down, then sweeps on
every tick.

	go scheduler.New(eng, cfg.SweepInterval).Run(ctx)

A failed sweep is logged and retried on the next tick.
*/
package scheduler
