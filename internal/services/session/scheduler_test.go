package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlin/mafiagame-go/internal/testutil"
)

func waitFor(t *testing.T, cond func() bool, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestScheduler_FiresAfterDelay(t *testing.T) {
	s := NewScheduler(testutil.NopLogger())
	defer s.Stop()

	var fired atomic.Bool
	s.Schedule("k", 5*time.Millisecond, func() { fired.Store(true) })

	require.True(t, s.Pending("k"))
	waitFor(t, fired.Load, time.Second)
	waitFor(t, func() bool { return !s.Pending("k") }, time.Second)
}

func TestScheduler_RescheduleReplacesTimer(t *testing.T) {
	s := NewScheduler(testutil.NopLogger())
	defer s.Stop()

	var got atomic.Int32
	s.Schedule("k", 5*time.Millisecond, func() { got.Store(1) })
	s.Schedule("k", 10*time.Millisecond, func() { got.Store(2) })

	waitFor(t, func() bool { return got.Load() != 0 }, time.Second)
	assert.Equal(t, int32(2), got.Load())

	// The replaced callback never fires
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), got.Load())
}

func TestScheduler_Cancel(t *testing.T) {
	s := NewScheduler(testutil.NopLogger())
	defer s.Stop()

	var fired atomic.Bool
	s.Schedule("k", 10*time.Millisecond, func() { fired.Store(true) })
	s.Cancel("k")

	assert.False(t, s.Pending("k"))
	time.Sleep(25 * time.Millisecond)
	assert.False(t, fired.Load())

	// Cancel on an absent key is fine
	s.Cancel("missing")
}

func TestScheduler_CancelPrefix(t *testing.T) {
	s := NewScheduler(testutil.NopLogger())
	defer s.Stop()

	var fired atomic.Int32
	s.Schedule("room-1", 10*time.Millisecond, func() { fired.Add(1) })
	s.Schedule("room-1:grace:p2", 10*time.Millisecond, func() { fired.Add(1) })
	s.Schedule("room-2", 10*time.Millisecond, func() { fired.Add(1) })

	s.CancelPrefix("room-1")

	assert.False(t, s.Pending("room-1"))
	assert.False(t, s.Pending("room-1:grace:p2"))
	require.True(t, s.Pending("room-2"))

	waitFor(t, func() bool { return fired.Load() == 1 }, time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestScheduler_RecoversFromPanic(t *testing.T) {
	s := NewScheduler(testutil.NopLogger())
	defer s.Stop()

	s.Schedule("boom", time.Millisecond, func() { panic("kaboom") })

	var fired atomic.Bool
	s.Schedule("ok", 10*time.Millisecond, func() { fired.Store(true) })

	// The panicking callback does not stop later timers from firing
	waitFor(t, fired.Load, time.Second)
}

func TestScheduler_StopCancelsEverything(t *testing.T) {
	s := NewScheduler(testutil.NopLogger())

	var fired atomic.Bool
	s.Schedule("a", 10*time.Millisecond, func() { fired.Store(true) })
	s.Schedule("b", 10*time.Millisecond, func() { fired.Store(true) })

	s.Stop()

	time.Sleep(25 * time.Millisecond)
	assert.False(t, fired.Load())
	assert.False(t, s.Pending("a"))
}

func TestScheduler_ZeroDelayFiresCleanly(t *testing.T) {
	s := NewScheduler(testutil.NopLogger())
	defer s.Stop()

	// A zero-duration timer can fire before Schedule returns; the callback
	// must still resolve its own slot without tripping the race detector.
	var fired atomic.Int32
	for i := 0; i < 100; i++ {
		s.Schedule("k", 0, func() { fired.Add(1) })
	}

	waitFor(t, func() bool { return !s.Pending("k") }, time.Second)
	assert.GreaterOrEqual(t, fired.Load(), int32(1))
}
