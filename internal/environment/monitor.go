// Package environment tracks the conditions that gate auto-refresh: whether
// the dashboard is visible, whether the sheet host is reachable, and whether
// the user has gone idle.
package environment

import (
	"sync"
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/autorefresh"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/clock"
)

// DefaultIdleTimeout is how long without input before the user counts as idle.
const DefaultIdleTimeout = 5 * time.Minute

// Monitor holds the current signals and reports changes. It starts visible,
// online and active.
type Monitor struct {
	clock       clock.Clock
	idleTimeout time.Duration

	mu        sync.Mutex
	signals   autorefresh.Signals
	idleTimer clock.Timer
	idleSeq   uint64
	onChange  func(autorefresh.Signals)
	closed    bool
}

var _ autorefresh.SignalSource = (*Monitor)(nil)

// NewMonitor creates a Monitor. A nil clock uses the real clock; a
// non-positive idleTimeout uses DefaultIdleTimeout.
func NewMonitor(c clock.Clock, idleTimeout time.Duration) *Monitor {
	if c == nil {
		c = clock.Real()
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	m := &Monitor{
		clock:       c,
		idleTimeout: idleTimeout,
		signals:     autorefresh.Signals{Visible: true, Online: true},
	}
	m.mu.Lock()
	m.armIdleLocked()
	m.mu.Unlock()
	return m
}

// OnChange sets the callback invoked after any signal flips. It runs without
// the monitor lock held.
func (m *Monitor) OnChange(fn func(autorefresh.Signals)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Signals returns the current signals.
func (m *Monitor) Signals() autorefresh.Signals {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signals
}

// SetVisible records whether the dashboard is on screen.
func (m *Monitor) SetVisible(visible bool) {
	m.update(func(s *autorefresh.Signals) { s.Visible = visible })
}

// SetOnline records whether the data source is reachable.
func (m *Monitor) SetOnline(online bool) {
	m.update(func(s *autorefresh.Signals) { s.Online = online })
}

// RecordActivity marks user input: it clears idleness and restarts the idle
// countdown.
func (m *Monitor) RecordActivity() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.armIdleLocked()
	m.mu.Unlock()
	m.update(func(s *autorefresh.Signals) { s.Idle = false })
}

// Close stops the idle timer.
func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.idleTimer != nil {
		m.idleTimer.Stop()
		m.idleTimer = nil
	}
}

func (m *Monitor) armIdleLocked() {
	if m.idleTimer != nil {
		m.idleTimer.Stop()
	}
	m.idleSeq++
	seq := m.idleSeq
	m.idleTimer = m.clock.AfterFunc(m.idleTimeout, func() {
		m.mu.Lock()
		stale := seq != m.idleSeq || m.closed
		if !stale {
			m.idleTimer = nil
		}
		m.mu.Unlock()
		if !stale {
			m.update(func(s *autorefresh.Signals) { s.Idle = true })
		}
	})
}

func (m *Monitor) update(apply func(*autorefresh.Signals)) {
	m.mu.Lock()
	before := m.signals
	apply(&m.signals)
	after := m.signals
	cb := m.onChange
	m.mu.Unlock()

	if before != after && cb != nil {
		cb(after)
	}
}
