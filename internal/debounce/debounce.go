// Package debounce coalesces bursts of values into a single delivery of the
// latest one.
package debounce

import (
	"sync"
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/clock"
)

// Debouncer delivers the most recent value passed to Trigger once no new
// value has arrived for the configured window.
type Debouncer[T any] struct {
	clock   clock.Clock
	window  time.Duration
	deliver func(T)

	mu      sync.Mutex
	timer   clock.Timer
	gen     uint64
	latest  T
	pending bool
	stopped bool
}

// New creates a Debouncer. A nil clock uses the real clock.
func New[T any](c clock.Clock, window time.Duration, deliver func(T)) *Debouncer[T] {
	if c == nil {
		c = clock.Real()
	}
	return &Debouncer[T]{
		clock:   c,
		window:  window,
		deliver: deliver,
	}
}

// Trigger records v as the latest value and restarts the window.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.latest = v
	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.window, func() { d.fire(gen) })
}

// Flush delivers a pending value immediately.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	v, ok := d.take()
	d.mu.Unlock()
	if ok {
		d.deliver(v)
	}
}

// Stop discards any pending value; later triggers are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.stopped = true
	d.pending = false
	var zero T
	d.latest = zero
}

// Pending reports whether a value is waiting for delivery.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	v, ok := d.take()
	d.mu.Unlock()
	if ok {
		d.deliver(v)
	}
}

// take pops the pending value. Caller holds d.mu.
func (d *Debouncer[T]) take() (T, bool) {
	var zero T
	if !d.pending || d.stopped {
		return zero, false
	}
	v := d.latest
	d.latest = zero
	d.pending = false
	return v, true
}
