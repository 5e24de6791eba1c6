// Package sequencer implements the tempo-driven step clock: a self-scheduling
// timer that advances a step index through the sequence, firing a callback on
// every tick. The clock owns the transport state; everything it triggers
// (voice teardown and construction) lives behind the tick callback.
package sequencer

import (
	"sync"
	"time"
)

// Scheduler arms a single deferred call and hands back a cancel handle.
// Canceling after the timer fired is harmless. The indirection exists so
// tests can drive ticks by hand; production code uses the wall clock.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

// WallClock schedules on the runtime timer heap.
type WallClock struct{}

func (WallClock) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Clock advances a step index at an interval derived from tempo. The interval
// is recomputed at every fire, so a tempo edit is audible within one step.
type Clock struct {
	mu      sync.Mutex
	sched   Scheduler
	cancel  func()
	playing bool
	gen     uint64
	step    int
	steps   int

	interval func() time.Duration
	onStep   func(step int)
	onStop   func()
}

// New builds a clock over a sequence of the given length. interval is read at
// fire time; onStep runs once per tick with the step index just published;
// onStop runs once per Stop call after playback state is cleared.
func New(steps int, sched Scheduler, interval func() time.Duration, onStep func(int), onStop func()) *Clock {
	return &Clock{
		sched:    sched,
		steps:    steps,
		step:     -1,
		interval: interval,
		onStep:   onStep,
		onStop:   onStop,
	}
}

// Start arms the first tick with zero delay. No-op if already running.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		return
	}
	c.playing = true
	c.gen++
	c.step = -1
	gen := c.gen
	c.cancel = c.sched.AfterFunc(0, func() { c.fire(gen) })
}

// Stop cancels the pending tick, clears transport state, and runs the stop
// callback (which tears down the live voice). Stopping an idle clock is a
// no-op. A timer that already fired but has not yet run is tolerated by the
// generation guard in fire.
func (c *Clock) Stop() {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return
	}
	c.playing = false
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.step = -1
	c.mu.Unlock()
	if c.onStop != nil {
		c.onStop()
	}
}

// Playing reports whether the transport is running.
func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Step returns the current step index, or -1 when idle.
func (c *Clock) Step() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

func (c *Clock) fire(gen uint64) {
	c.mu.Lock()
	if !c.playing || gen != c.gen {
		// A stop or restart raced the timer; the stale tick must not run.
		c.mu.Unlock()
		return
	}
	c.step = (c.step + 1) % c.steps
	idx := c.step
	c.mu.Unlock()

	// The callback runs without the lock so it may query Step or stop or
	// restart the clock without deadlocking.
	c.onStep(idx)

	c.mu.Lock()
	// Reschedule only if this run is still the current one. A Stop (or a
	// Stop+Start) inside the callback bumps the generation, and the new run
	// already owns its own timer chain.
	if c.playing && gen == c.gen {
		c.cancel = c.sched.AfterFunc(c.interval(), func() { c.fire(gen) })
	}
	c.mu.Unlock()
}

// StepInterval derives the sixteenth-note duration for a tempo:
// 60000/bpm/4 milliseconds.
func StepInterval(bpm float64) time.Duration {
	return time.Duration(60000 / bpm / 4 * float64(time.Millisecond))
}
