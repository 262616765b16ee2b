package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/clock"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/debounce"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock sets the time source used for timestamps, timeouts and the
// notification debounce.
func WithClock(c clock.Clock) Option {
	return func(co *Coordinator) {
		co.clock = c
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l logging.Logger) Option {
	return func(co *Coordinator) {
		co.logger = l
	}
}

// WithMinInterval sets the minimum time between successful refreshes of a tab.
func WithMinInterval(d time.Duration) Option {
	return func(co *Coordinator) {
		co.minInterval = d
	}
}

// WithOperationTimeout bounds each operation.
func WithOperationTimeout(d time.Duration) Option {
	return func(co *Coordinator) {
		co.opTimeout = d
	}
}

// WithNotifyDebounce sets the window in which state changes are coalesced.
func WithNotifyDebounce(d time.Duration) Option {
	return func(co *Coordinator) {
		co.notifyWindow = d
	}
}

// Coordinator owns the tab registry and runs refreshes. Create one per
// session with NewCoordinator and share it.
type Coordinator struct {
	clock        clock.Clock
	logger       logging.Logger
	minInterval  time.Duration
	opTimeout    time.Duration
	notifyWindow time.Duration

	mu              sync.Mutex
	reg             *registry
	lastRefreshTime time.Time

	subMu     sync.Mutex
	nextSubID uint64
	listeners map[uint64]Listener
	observers map[uint64]func(Result)

	notifier *debounce.Debouncer[struct{}]
}

// NewCoordinator creates a Coordinator with the given options.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		clock:        clock.Real(),
		logger:       logging.Nop(),
		minInterval:  DefaultMinInterval,
		opTimeout:    DefaultOperationTimeout,
		notifyWindow: DefaultNotifyDebounce,
		reg:          newRegistry(),
		listeners:    make(map[uint64]Listener),
		observers:    make(map[uint64]func(Result)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.notifier = debounce.New(c.clock, c.notifyWindow, func(struct{}) { c.broadcast() })
	return c
}

// Register adds a tab or replaces its operations.
func (c *Coordinator) Register(tabID string, ops ...Operation) {
	c.mu.Lock()
	c.reg.register(tabID, ops)
	c.mu.Unlock()
	c.logger.Debug("tab registered", "tab", tabID, "operations", len(ops))
	c.notify()
}

// Unregister removes a tab. A refresh still running for it is left to finish
// and its outcome is dropped.
func (c *Coordinator) Unregister(tabID string) {
	c.mu.Lock()
	removed := c.reg.unregister(tabID)
	c.mu.Unlock()
	if !removed {
		return
	}
	c.logger.Debug("tab unregistered", "tab", tabID)
	c.notify()
}

// SetActiveTab marks tabID as the tab shown to the user.
func (c *Coordinator) SetActiveTab(tabID string) {
	c.mu.Lock()
	c.reg.setActive(tabID)
	c.mu.Unlock()
	c.notify()
}

// ActiveTab returns the active tab id.
func (c *Coordinator) ActiveTab() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg.activeID
}

// Tabs returns every registered tab sorted by id.
func (c *Coordinator) Tabs() []TabEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg.entries()
}

// Tab returns the entry for tabID.
func (c *Coordinator) Tab(tabID string) (TabEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.reg.get(tabID)
	if !ok {
		return TabEntry{}, false
	}
	return c.reg.view(e), true
}

// RefreshCurrentTab refreshes the active tab.
func (c *Coordinator) RefreshCurrentTab(ctx context.Context) error {
	return c.RefreshTab(ctx, c.ActiveTab())
}

// RefreshTab runs every operation of tabID concurrently and records the
// outcome. It returns nil without doing anything when the tab is unknown or
// refreshed successfully less than the minimum interval ago. A call made
// while the tab is already refreshing waits for that refresh and returns its
// result. Otherwise it returns the first operation error.
func (c *Coordinator) RefreshTab(ctx context.Context, tabID string) error {
	c.mu.Lock()
	e, ok := c.reg.get(tabID)
	if !ok {
		c.mu.Unlock()
		c.logger.Debug("refresh requested for unknown tab", "tab", tabID)
		return nil
	}
	if f := e.flight; f != nil {
		c.mu.Unlock()
		c.logger.Debug("refresh already in flight, waiting", "tab", tabID)
		select {
		case <-f.done:
			return f.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	started := c.clock.Now()
	if !e.lastRefreshedAt.IsZero() && started.Sub(e.lastRefreshedAt) < c.minInterval {
		c.mu.Unlock()
		c.logger.Debug("refresh skipped, refreshed recently", "tab", tabID, "since", started.Sub(e.lastRefreshedAt))
		return nil
	}
	f := &flight{done: make(chan struct{})}
	e.refreshing = true
	e.flight = f
	e.lastError = ""
	ops := append([]Operation(nil), e.operations...)
	c.mu.Unlock()
	c.notify()

	err := c.execute(ctx, tabID, ops)
	finished := c.clock.Now()

	c.mu.Lock()
	e.flight = nil
	current, ok := c.reg.get(tabID)
	discarded := !ok || current != e
	if !discarded {
		e.refreshing = false
		if err != nil {
			e.lastError = err.Error()
		} else {
			e.lastRefreshedAt = finished
			if finished.After(c.lastRefreshTime) {
				c.lastRefreshTime = finished
			}
		}
	}
	c.mu.Unlock()

	switch {
	case discarded:
		c.logger.Debug("refresh settled for unregistered tab, result dropped", "tab", tabID)
	case err != nil:
		c.logger.Warn("refresh failed", "tab", tabID, "error", err)
	default:
		c.logger.Info("refresh finished", "tab", tabID, "duration", finished.Sub(started))
	}

	c.observe(Result{TabID: tabID, StartedAt: started, FinishedAt: finished, Err: err, Discarded: discarded})
	f.err = err
	close(f.done)
	if !discarded {
		c.notify()
	}
	return err
}

// execute runs ops concurrently and returns the first error. A failing
// operation does not cancel its siblings.
func (c *Coordinator) execute(ctx context.Context, tabID string, ops []Operation) error {
	var g errgroup.Group
	for i, op := range ops {
		g.Go(func() error {
			return c.runOperation(ctx, tabID, i, op)
		})
	}
	return g.Wait()
}

func (c *Coordinator) runOperation(ctx context.Context, tabID string, idx int, op Operation) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("tab %s operation %d panicked: %v", tabID, idx, r)
			}
		}()
		done <- op(ctx)
	}()

	expired := make(chan struct{})
	timer := c.clock.AfterFunc(c.opTimeout, func() { close(expired) })
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-expired:
		return fmt.Errorf("tab %s operation %d: %w after %s", tabID, idx, ErrOperationTimeout, c.opTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsTabRefreshing reports whether tabID has a refresh in flight.
func (c *Coordinator) IsTabRefreshing(tabID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.reg.get(tabID)
	return ok && e.refreshing
}

// IsRefreshing reports whether any tab has a refresh in flight.
func (c *Coordinator) IsRefreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg.anyRefreshing()
}

// TabError returns the last error message of tabID, or "".
func (c *Coordinator) TabError(tabID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.reg.get(tabID); ok {
		return e.lastError
	}
	return ""
}

// ClearTabError forgets the last error of tabID without refreshing it.
func (c *Coordinator) ClearTabError(tabID string) {
	c.mu.Lock()
	e, ok := c.reg.get(tabID)
	changed := ok && e.lastError != ""
	if changed {
		e.lastError = ""
	}
	c.mu.Unlock()
	if changed {
		c.notify()
	}
}

// LastRefreshTime returns the time of the latest successful refresh of any tab.
func (c *Coordinator) LastRefreshTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRefreshTime
}

// State returns the current snapshot.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := State{
		IsRefreshing:    c.reg.anyRefreshing(),
		LastRefreshTime: c.lastRefreshTime,
		ActiveTab:       c.reg.activeID,
		InProgress:      make(map[string]bool, len(c.reg.tabs)),
		Errors:          make(map[string]string, len(c.reg.tabs)),
	}
	for id, e := range c.reg.tabs {
		s.InProgress[id] = e.refreshing
		s.Errors[id] = e.lastError
	}
	return s
}

// Subscribe registers l for debounced state snapshots. The returned function
// removes it.
func (c *Coordinator) Subscribe(l Listener) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.listeners[id] = l
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.listeners, id)
	}
}

// OnResult registers fn to be called after every executed refresh, before
// the state notification is scheduled.
func (c *Coordinator) OnResult(fn func(Result)) (cancel func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.observers[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.observers, id)
	}
}

// Flush delivers a pending notification now.
func (c *Coordinator) Flush() {
	c.notifier.Flush()
}

// Close stops notifications. Refreshes may still run but nobody hears of them.
func (c *Coordinator) Close() {
	c.notifier.Stop()
}

func (c *Coordinator) notify() {
	c.notifier.Trigger(struct{}{})
}

func (c *Coordinator) broadcast() {
	state := c.State()

	c.subMu.Lock()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.subMu.Unlock()

	for _, l := range listeners {
		c.safeCall(func() { l(state) })
	}
}

func (c *Coordinator) observe(r Result) {
	c.subMu.Lock()
	observers := make([]func(Result), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.subMu.Unlock()

	for _, fn := range observers {
		c.safeCall(func() { fn(r) })
	}
}

func (c *Coordinator) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("refresh listener panicked", "panic", fmt.Sprint(r))
		}
	}()
	fn()
}
