package timer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	ticks   []int
	expired chan int
}

func newRecorder() *recorder {
	return &recorder{expired: make(chan int, 4)}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnTick: func(_ *Timer, remaining int) {
			r.mu.Lock()
			r.ticks = append(r.ticks, remaining)
			r.mu.Unlock()
		},
		OnExpire: func(t *Timer) { r.expired <- t.Turn() },
	}
}

func (r *recorder) tickList() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.ticks...)
}

// advance moves the fake clock one interval at a time, waiting for the countdown to be armed.
func advance(t *testing.T, fc *clockwork.FakeClock, steps int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < steps; i++ {
		require.NoError(t, fc.BlockUntilContext(ctx, 1), "timer never armed at step %d", i)
		fc.Advance(time.Second)
	}
}

func waitDone(t *testing.T, tm *Timer) {
	t.Helper()
	select {
	case <-tm.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("timer goroutine did not exit")
	}
}

func TestTimerTicksThenExpires(t *testing.T) {
	fc := clockwork.NewFakeClock()
	rec := newRecorder()

	tm := Start(context.Background(), fc, 4, 3*time.Second, time.Second, rec.callbacks())
	advance(t, fc, 3)

	select {
	case turn := <-rec.expired:
		assert.Equal(t, 4, turn)
	case <-time.After(2 * time.Second):
		t.Fatalf("expiry not delivered")
	}
	waitDone(t, tm)

	assert.Equal(t, []int{3, 2, 1}, rec.tickList())
	assert.False(t, tm.Stop(), "stop after expiry must report false")
	assert.Len(t, rec.expired, 0, "expiry delivered more than once")
}

func TestTimerStopSuppressesExpiry(t *testing.T) {
	fc := clockwork.NewFakeClock()
	rec := newRecorder()

	tm := Start(context.Background(), fc, 0, 3*time.Second, time.Second, rec.callbacks())
	advance(t, fc, 2)

	require.True(t, tm.Stop())
	assert.True(t, tm.Stop(), "second stop stays successful")
	waitDone(t, tm)

	fc.Advance(10 * time.Second)
	select {
	case <-rec.expired:
		t.Fatalf("expiry delivered after successful stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTimerStopsWithParentContext(t *testing.T) {
	fc := clockwork.NewFakeClock()
	rec := newRecorder()
	ctx, cancel := context.WithCancel(context.Background())

	tm := Start(ctx, fc, 0, 5*time.Second, time.Second, rec.callbacks())
	cancel()
	waitDone(t, tm)

	fc.Advance(10 * time.Second)
	assert.Len(t, rec.expired, 0)
}

func TestTimerRemaining(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tm := Start(context.Background(), fc, 0, 15*time.Second, time.Second, Callbacks{})
	defer tm.Stop()

	assert.Equal(t, 15*time.Second, tm.Remaining())
	assert.Equal(t, 15, tm.RemainingSeconds())
	advance(t, fc, 5)
	assert.Equal(t, 10*time.Second, tm.Remaining())
	assert.Equal(t, 10, tm.RemainingSeconds())
	assert.Equal(t, fc.Now().Add(10*time.Second), tm.Deadline())
}

func TestTimerPartialFinalInterval(t *testing.T) {
	fc := clockwork.NewFakeClock()
	rec := newRecorder()
	tm := Start(context.Background(), fc, 1, 1500*time.Millisecond, time.Second, rec.callbacks())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	fc.Advance(time.Second)
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	fc.Advance(500 * time.Millisecond)

	select {
	case <-rec.expired:
	case <-time.After(2 * time.Second):
		t.Fatalf("expiry not delivered")
	}
	assert.Equal(t, []int{2, 1}, rec.tickList())
	assert.Zero(t, tm.RemainingSeconds())
}

func TestCeilSeconds(t *testing.T) {
	assert.Equal(t, 15, ceilSeconds(15*time.Second))
	assert.Equal(t, 1, ceilSeconds(100*time.Millisecond))
	assert.Equal(t, 0, ceilSeconds(0))
}
