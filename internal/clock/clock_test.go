package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func TestManualAdvanceFiresInDeadlineOrder(t *testing.T) {
	c := NewManual(epoch)
	var fired []string

	c.AfterFunc(3*time.Second, func() { fired = append(fired, "c") })
	c.AfterFunc(1*time.Second, func() { fired = append(fired, "a") })
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })

	c.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, epoch.Add(2*time.Second), c.Now())
	assert.Equal(t, 1, c.Pending())

	c.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, fired)
	assert.Zero(t, c.Pending())
}

func TestManualCallbackSeesDeadlineAsNow(t *testing.T) {
	c := NewManual(epoch)
	var seen time.Time
	c.AfterFunc(500*time.Millisecond, func() { seen = c.Now() })

	c.Advance(10 * time.Second)
	assert.Equal(t, epoch.Add(500*time.Millisecond), seen)
	assert.Equal(t, epoch.Add(10*time.Second), c.Now())
}

func TestManualNestedTimersFireWithinWindow(t *testing.T) {
	c := NewManual(epoch)
	count := 0
	var tick func()
	tick = func() {
		count++
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(3 * time.Second)
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, c.Pending())
}

func TestManualStop(t *testing.T) {
	c := NewManual(epoch)
	called := false
	timer := c.AfterFunc(time.Second, func() { called = true })

	require.True(t, timer.Stop())
	require.False(t, timer.Stop())

	c.Advance(time.Minute)
	assert.False(t, called)
}

func TestManualSetBackwardsDoesNotFire(t *testing.T) {
	c := NewManual(epoch)
	called := false
	c.AfterFunc(time.Second, func() { called = true })

	c.Set(epoch.Add(-time.Hour))
	assert.False(t, called)
	assert.Equal(t, epoch, c.Now())
}

func TestRealClockAfterFunc(t *testing.T) {
	done := make(chan struct{})
	Real().AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real clock timer did not fire")
	}
}
