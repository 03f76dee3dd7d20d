// Package timer runs the per-turn countdown of a draft session.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultInterval is the cadence of time-remaining notifications.
const DefaultInterval = time.Second

// Callbacks receive the timer's signals from its own goroutine.
// Both are called without any timer lock held.
type Callbacks struct {
	// OnTick fires once per interval, first with the full duration.
	OnTick func(t *Timer, remainingSec int)
	// OnExpire fires at most once, and never after a successful Stop.
	OnExpire func(t *Timer)
}

// Timer watches a single turn.
type Timer struct {
	turn     int
	clock    clockwork.Clock
	deadline time.Time
	cancel   context.CancelFunc
	done     chan struct{}

	mu      sync.Mutex
	stopped bool
	fired   bool
}

// Start launches a countdown of duration for the given turn.
func Start(ctx context.Context, clock clockwork.Clock, turn int, duration, interval time.Duration, cb Callbacks) *Timer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &Timer{
		turn:     turn,
		clock:    clock,
		deadline: clock.Now().Add(duration),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go t.run(ctx, duration, interval, cb)
	return t
}

// Turn returns the turn index this timer watches.
func (t *Timer) Turn() int { return t.turn }

// Deadline returns when the turn expires.
func (t *Timer) Deadline() time.Time { return t.deadline }

// Remaining returns the time left before expiry, never negative.
func (t *Timer) Remaining() time.Duration {
	if d := t.deadline.Sub(t.clock.Now()); d > 0 {
		return d
	}
	return 0
}

// RemainingSeconds is Remaining rounded up to whole seconds, as ticks report it.
func (t *Timer) RemainingSeconds() int {
	return ceilSeconds(t.Remaining())
}

// Done is closed once the timer goroutine has exited.
func (t *Timer) Done() <-chan struct{} { return t.done }

// Stop cancels the countdown. It reports true when the expiry was suppressed;
// false means the expiry had already been delivered or was being delivered.
func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired {
		return false
	}
	if !t.stopped {
		t.stopped = true
		t.cancel()
	}
	return true
}

func (t *Timer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (t *Timer) run(ctx context.Context, duration, interval time.Duration, cb Callbacks) {
	defer close(t.done)
	defer t.cancel()

	var tm clockwork.Timer
	defer func() {
		if tm != nil {
			stopAndDrainTimer(tm)
		}
	}()

	for remaining := duration; remaining > 0; {
		if t.isStopped() {
			return
		}
		if cb.OnTick != nil {
			cb.OnTick(t, ceilSeconds(remaining))
		}

		step := min(interval, remaining)
		if tm == nil {
			tm = t.clock.NewTimer(step)
		} else {
			tm.Reset(step)
		}

		select {
		case <-tm.Chan():
			remaining -= step
		case <-ctx.Done():
			return
		}
	}

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.fired = true
	t.mu.Unlock()

	if cb.OnExpire != nil {
		cb.OnExpire(t)
	}
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

func ceilSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
