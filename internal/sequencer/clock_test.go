package sequencer

import (
	"testing"
	"time"
)

// manualScheduler records armed calls and fires them only on request.
type manualScheduler struct {
	delays []time.Duration
	fns    []func()
}

func (m *manualScheduler) AfterFunc(d time.Duration, fn func()) func() {
	m.delays = append(m.delays, d)
	m.fns = append(m.fns, fn)
	idx := len(m.fns) - 1
	return func() { m.fns[idx] = nil }
}

// fireNext runs the most recently armed, non-canceled call.
func (m *manualScheduler) fireNext(t *testing.T) {
	t.Helper()
	if len(m.fns) == 0 {
		t.Fatal("no scheduled call to fire")
	}
	fn := m.fns[len(m.fns)-1]
	if fn == nil {
		t.Fatal("most recent scheduled call was canceled")
	}
	fn()
}

func constInterval(d time.Duration) func() time.Duration {
	return func() time.Duration { return d }
}

func TestStartArmsZeroDelayTick(t *testing.T) {
	sched := &manualScheduler{}
	var ticks []int
	c := New(16, sched, constInterval(time.Millisecond), func(i int) { ticks = append(ticks, i) }, nil)
	c.Start()
	if !c.Playing() {
		t.Fatal("clock should be playing after Start")
	}
	if c.Step() != -1 {
		t.Fatalf("step before first tick = %d, want -1", c.Step())
	}
	if len(sched.delays) != 1 || sched.delays[0] != 0 {
		t.Fatalf("first tick delay = %v, want 0", sched.delays)
	}
	sched.fireNext(t)
	if len(ticks) != 1 || ticks[0] != 0 {
		t.Fatalf("ticks = %v, want [0]", ticks)
	}
}

func TestStartWhileRunningIsNoOp(t *testing.T) {
	sched := &manualScheduler{}
	c := New(16, sched, constInterval(time.Millisecond), func(int) {}, nil)
	c.Start()
	c.Start()
	if len(sched.fns) != 1 {
		t.Fatalf("second Start armed another tick: %d pending", len(sched.fns))
	}
}

func TestAdvanceWrapsAroundSequence(t *testing.T) {
	sched := &manualScheduler{}
	var ticks []int
	c := New(4, sched, constInterval(time.Millisecond), func(i int) { ticks = append(ticks, i) }, nil)
	c.Start()
	for i := 0; i < 6; i++ {
		sched.fireNext(t)
	}
	want := []int{0, 1, 2, 3, 0, 1}
	for i := range want {
		if ticks[i] != want[i] {
			t.Fatalf("ticks = %v, want %v", ticks, want)
		}
	}
}

func TestIntervalReadAtFireTime(t *testing.T) {
	sched := &manualScheduler{}
	bpm := 120.0
	c := New(16, sched, func() time.Duration { return StepInterval(bpm) }, func(int) {}, nil)
	c.Start()
	sched.fireNext(t)
	// 120 bpm: one sixteenth = 60000/120/4 = 125ms.
	if got := sched.delays[1]; got != 125*time.Millisecond {
		t.Fatalf("interval at 120 bpm = %v, want 125ms", got)
	}
	// The tempo change is picked up by the very next fire, not the next Start.
	bpm = 240
	sched.fireNext(t)
	if got := sched.delays[2]; got != 62500*time.Microsecond {
		t.Fatalf("interval at 240 bpm = %v, want 62.5ms", got)
	}
}

func TestStopBeforeFirstTick(t *testing.T) {
	// Stop immediately after Start, before the zero-delay tick runs: no tick
	// may fire and no further tick may be scheduled.
	sched := &manualScheduler{}
	ticked := false
	stopped := false
	c := New(16, sched, constInterval(time.Millisecond), func(int) { ticked = true }, func() { stopped = true })
	c.Start()
	c.Stop()
	if c.Playing() {
		t.Fatal("clock still playing after Stop")
	}
	if c.Step() != -1 {
		t.Fatalf("step after Stop = %d, want -1", c.Step())
	}
	if !stopped {
		t.Fatal("stop callback did not run")
	}
	if sched.fns[0] != nil {
		t.Fatal("pending tick was not canceled")
	}
	if ticked {
		t.Fatal("tick fired after Stop")
	}
	if len(sched.fns) != 1 {
		t.Fatal("a new tick was scheduled after Stop")
	}
}

func TestTimerFiringAfterStopIsIgnored(t *testing.T) {
	// Simulate the race where the timer fires after playing is cleared but
	// before cancellation lands: invoking the stale callback must do nothing.
	sched := &manualScheduler{}
	ticked := false
	c := New(16, sched, constInterval(time.Millisecond), func(int) { ticked = true }, nil)
	c.Start()
	stale := sched.fns[0]
	c.Stop()
	stale() // the guard in fire must reject this
	if ticked {
		t.Fatal("stale timer callback produced a tick")
	}
}

func TestStopWhileIdleIsNoOp(t *testing.T) {
	stops := 0
	c := New(16, &manualScheduler{}, constInterval(time.Millisecond), func(int) {}, func() { stops++ })
	c.Stop()
	c.Stop()
	if stops != 0 {
		t.Fatalf("stop callback ran %d times on an idle clock", stops)
	}
}

func TestStopFromWithinTickStopsRescheduling(t *testing.T) {
	sched := &manualScheduler{}
	var c *Clock
	c = New(16, sched, constInterval(time.Millisecond), func(int) { c.Stop() }, nil)
	c.Start()
	sched.fireNext(t)
	if len(sched.fns) != 1 {
		t.Fatal("tick rescheduled even though the callback stopped the clock")
	}
}

func TestRestartFromWithinTickArmsSingleChain(t *testing.T) {
	// Stop+Start inside the tick callback supersedes the running chain: the
	// old fire must not reschedule on top of the timer Start armed.
	sched := &manualScheduler{}
	var c *Clock
	restarted := false
	c = New(16, sched, constInterval(time.Millisecond), func(int) {
		if !restarted {
			restarted = true
			c.Stop()
			c.Start()
		}
	}, nil)
	c.Start()
	sched.fireNext(t)
	pending := 0
	for _, fn := range sched.fns {
		if fn != nil {
			pending++
		}
	}
	if pending != 1 {
		t.Fatalf("pending timers after restart during tick = %d, want 1", pending)
	}
	if !c.Playing() {
		t.Fatal("clock should be playing after restart")
	}
	// The restarted run begins from the top of the sequence.
	sched.fireNext(t)
	if c.Step() != 0 {
		t.Fatalf("first step of restarted run = %d, want 0", c.Step())
	}
}

func TestStepPublishedBeforeCallbackRuns(t *testing.T) {
	sched := &manualScheduler{}
	var seen int
	var c *Clock
	c = New(16, sched, constInterval(time.Millisecond), func(i int) { seen = c.Step() }, nil)
	c.Start()
	sched.fireNext(t)
	if seen != 0 {
		t.Fatalf("Step() inside callback = %d, want 0", seen)
	}
}

func TestStepIntervalFormula(t *testing.T) {
	cases := []struct {
		bpm  float64
		want time.Duration
	}{
		{120, 125 * time.Millisecond},
		{60, 250 * time.Millisecond},
		{300, 50 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := StepInterval(tc.bpm); got != tc.want {
			t.Errorf("StepInterval(%v) = %v, want %v", tc.bpm, got, tc.want)
		}
	}
}

func TestWallClockSchedulerFires(t *testing.T) {
	done := make(chan struct{})
	WallClock{}.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wall clock timer did not fire")
	}
}
