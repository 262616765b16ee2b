package autorefresh

import (
	"context"
	"sync"
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/clock"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/logging"
)

// Defaults applied by New.
const (
	DefaultInterval      = 30000 * time.Millisecond
	DefaultRetryDelay    = 5000 * time.Millisecond
	DefaultMaxRetries    = 3
	DefaultCountdownStep = time.Second
)

// PrefAutoRefreshEnabled is the preference key holding the enabled flag.
const PrefAutoRefreshEnabled = "autoRefreshEnabled"

// Refresher is the part of the refresh coordinator the scheduler drives.
type Refresher interface {
	RefreshCurrentTab(ctx context.Context) error
	IsRefreshing() bool
}

// PreferenceStore persists the enabled flag.
type PreferenceStore interface {
	GetBool(key string, defaultValue bool) bool
	SetBool(key string, value bool) error
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the time source for every timer.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithInterval sets the time between automatic refreshes.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.interval = d }
}

// WithRetryDelay sets the delay before retrying a failed refresh.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Scheduler) { s.retryDelay = d }
}

// WithMaxRetries caps consecutive failures before the scheduler pauses itself.
func WithMaxRetries(n int) Option {
	return func(s *Scheduler) { s.maxRetries = n }
}

// WithPolicy sets the pause switches. The Enabled field is ignored; the
// preference store owns it.
func WithPolicy(p Policy) Option {
	return func(s *Scheduler) { s.policy = p }
}

// WithCountdownStep sets how often NextRefreshIn is updated.
func WithCountdownStep(d time.Duration) Option {
	return func(s *Scheduler) { s.countdownStep = d }
}

// WithContext sets the context passed to timer-driven refreshes.
func WithContext(ctx context.Context) Option {
	return func(s *Scheduler) { s.ctx = ctx }
}

// WithOnChange registers a callback invoked with a fresh Status after every
// transition and countdown tick. It runs without the scheduler lock held.
func WithOnChange(fn func(Status)) Option {
	return func(s *Scheduler) { s.onChange = fn }
}

// Scheduler refreshes the active tab every interval while no pause condition
// holds. A single wake timer covers both the next interval run and a pending
// retry; a second timer drives the countdown.
type Scheduler struct {
	refresher     Refresher
	signals       SignalSource
	prefs         PreferenceStore
	clock         clock.Clock
	logger        logging.Logger
	ctx           context.Context
	onChange      func(Status)
	interval      time.Duration
	retryDelay    time.Duration
	countdownStep time.Duration
	maxRetries    int

	mu            sync.Mutex
	policy        Policy
	manualPause   bool
	started       bool
	closed        bool
	state         State
	pauseReason   Reason
	failed        int
	lastError     string
	lastRunAt     time.Time
	nextRunAt     time.Time
	retryAt       time.Time
	nextRefreshIn time.Duration

	wake    clock.Timer
	wakeSeq uint64
	ticker  clock.Timer
	tickSeq uint64
}

// New creates a Scheduler. signals and prefs may be nil: signals then
// report a visible, online, active user and the enabled flag lives only in
// memory. Call Start to begin scheduling.
func New(refresher Refresher, signals SignalSource, prefs PreferenceStore, opts ...Option) *Scheduler {
	s := &Scheduler{
		refresher:     refresher,
		signals:       signals,
		prefs:         prefs,
		clock:         clock.Real(),
		logger:        logging.Nop(),
		ctx:           context.Background(),
		interval:      DefaultInterval,
		retryDelay:    DefaultRetryDelay,
		countdownStep: DefaultCountdownStep,
		maxRetries:    DefaultMaxRetries,
		policy:        DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.policy.Enabled = true
	if prefs != nil {
		s.policy.Enabled = prefs.GetBool(PrefAutoRefreshEnabled, true)
	}
	return s
}

// Start evaluates the pause conditions and arms the first interval.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	changed := s.evaluateLocked()
	s.mu.Unlock()
	s.emitIf(changed)
}

// Close cancels every timer. A refresh already running is left to finish
// and its outcome is ignored.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopTimersLocked()
	s.state = StateIdle
	s.mu.Unlock()
}

// Status returns a snapshot of the scheduler.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:          s.state,
		Enabled:        s.policy.Enabled,
		Paused:         s.pauseReason != ReasonNone,
		PauseReason:    s.pauseReason,
		Running:        s.state == StateScheduled || s.state == StateRetryPending || s.state == StateExecuting,
		FailedAttempts: s.failed,
		MaxRetries:     s.maxRetries,
		Interval:       s.interval,
		NextRefreshIn:  s.nextRefreshIn,
		LastRunAt:      s.lastRunAt,
		LastError:      s.lastError,
	}
}

// Enable persists the enabled flag and resumes scheduling when nothing else
// blocks it.
func (s *Scheduler) Enable() error {
	return s.setEnabled(true)
}

// Disable persists the disabled flag and cancels every pending timer.
func (s *Scheduler) Disable() error {
	return s.setEnabled(false)
}

func (s *Scheduler) setEnabled(enabled bool) error {
	var err error
	if s.prefs != nil {
		err = s.prefs.SetBool(PrefAutoRefreshEnabled, enabled)
		if err != nil {
			s.logger.Warn("failed to persist auto-refresh preference", "enabled", enabled, "error", err)
		}
	}
	s.mu.Lock()
	s.policy.Enabled = enabled
	changed := s.evaluateLocked()
	s.mu.Unlock()
	s.emitIf(changed)
	return err
}

// Pause stops scheduling until Resume.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	s.manualPause = true
	changed := s.evaluateLocked()
	s.mu.Unlock()
	s.emitIf(changed)
}

// Resume lifts a manual pause. It does nothing while auto-refresh is disabled.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	if !s.policy.Enabled {
		s.mu.Unlock()
		return
	}
	s.manualPause = false
	changed := s.evaluateLocked()
	s.mu.Unlock()
	s.emitIf(changed)
}

// ResetFailures zeroes the failure counter and cancels a pending retry. It
// does not refresh; scheduling resumes if the cap was the only thing
// blocking it.
func (s *Scheduler) ResetFailures() {
	s.mu.Lock()
	changed := s.failed != 0 || !s.retryAt.IsZero()
	s.failed = 0
	if !s.retryAt.IsZero() {
		s.retryAt = time.Time{}
		if s.state == StateRetryPending {
			s.armLocked()
		}
	}
	if s.evaluateLocked() {
		changed = true
	}
	s.mu.Unlock()
	s.emitIf(changed)
}

// Reevaluate re-reads the gating signals. Call it whenever visibility,
// connectivity, idleness or the coordinator's refreshing flag changes.
func (s *Scheduler) Reevaluate() {
	s.mu.Lock()
	changed := s.evaluateLocked()
	s.mu.Unlock()
	s.emitIf(changed)
}

// ForceRefresh cancels pending timers, refreshes immediately and then
// restarts the full interval if scheduling is still allowed. It returns the
// refresh error. While a scheduled refresh is running it joins that refresh
// through the refresher and leaves the failure count to the running one.
func (s *Scheduler) ForceRefresh(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if s.state == StateExecuting {
		s.mu.Unlock()
		return s.refresher.RefreshCurrentTab(ctx)
	}
	s.beginLocked()
	s.mu.Unlock()
	s.emit()
	return s.run(ctx, runForced)
}

type runKind int

const (
	runInterval runKind = iota
	runRetry
	runForced
)

func (s *Scheduler) onWake(seq uint64) {
	s.mu.Lock()
	if seq != s.wakeSeq || s.closed {
		s.mu.Unlock()
		return
	}
	s.wake = nil
	now := s.clock.Now()
	kind := runRetry
	if !s.nextRunAt.After(now) {
		kind = runInterval
	} else if s.retryAt.IsZero() || s.retryAt.After(now) {
		s.armLocked()
		s.mu.Unlock()
		return
	}
	if reason := s.reasonLocked(); reason != ReasonNone {
		s.pauseLocked(reason)
		s.mu.Unlock()
		s.emit()
		return
	}
	s.beginLocked()
	s.mu.Unlock()
	s.emit()

	_ = s.run(s.ctx, kind)
}

// beginLocked cancels timers and enters StateExecuting.
func (s *Scheduler) beginLocked() {
	s.stopTimersLocked()
	s.state = StateExecuting
	s.pauseReason = ReasonNone
}

func (s *Scheduler) run(ctx context.Context, kind runKind) error {
	err := s.refresher.RefreshCurrentTab(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return err
	}
	now := s.clock.Now()
	s.lastRunAt = now
	s.retryAt = time.Time{}
	if err != nil {
		if s.failed < s.maxRetries {
			s.failed++
		}
		s.lastError = err.Error()
		s.logger.Warn("auto-refresh failed", "attempt", s.failed, "max_retries", s.maxRetries, "error", err)
	} else {
		s.failed = 0
		s.lastError = ""
	}
	if kind != runRetry {
		s.nextRunAt = time.Time{}
	}

	if !s.started {
		s.state = StateIdle
		s.nextRunAt = time.Time{}
		s.mu.Unlock()
		s.emit()
		return err
	}
	if reason := s.reasonLocked(); reason != ReasonNone {
		s.pauseLocked(reason)
	} else {
		if s.nextRunAt.IsZero() {
			s.nextRunAt = now.Add(s.interval)
		}
		if err != nil {
			s.retryAt = now.Add(s.retryDelay)
		}
		s.armLocked()
	}
	s.mu.Unlock()
	s.emit()
	return err
}

// evaluateLocked applies the pause predicate and reports whether the state
// changed. A running refresh re-evaluates when it settles.
func (s *Scheduler) evaluateLocked() bool {
	if s.closed || !s.started || s.state == StateExecuting {
		return false
	}
	reason := s.reasonLocked()
	switch {
	case reason != ReasonNone:
		if s.pauseReason == reason && (s.state == StatePaused || s.state == StateIdle) {
			return false
		}
		s.pauseLocked(reason)
		return true
	case s.state == StateScheduled || s.state == StateRetryPending:
		return false
	default:
		s.nextRunAt = s.clock.Now().Add(s.interval)
		s.retryAt = time.Time{}
		s.armLocked()
		return true
	}
}

func (s *Scheduler) reasonLocked() Reason {
	signals := Signals{Visible: true, Online: true}
	if s.signals != nil {
		signals = s.signals.Signals()
	}
	return PauseReasonFor(PauseInput{
		Policy:         s.policy,
		Signals:        signals,
		Refreshing:     s.refresher.IsRefreshing(),
		FailedAttempts: s.failed,
		MaxRetries:     s.maxRetries,
		ManualPause:    s.manualPause,
	})
}

// pauseLocked cancels every timer and drops the pending schedule. Disabling
// leaves the scheduler idle; every other reason pauses it.
func (s *Scheduler) pauseLocked(reason Reason) {
	s.stopTimersLocked()
	s.nextRunAt = time.Time{}
	s.retryAt = time.Time{}
	s.nextRefreshIn = 0
	s.pauseReason = reason
	if reason == ReasonDisabled {
		s.state = StateIdle
	} else {
		s.state = StatePaused
	}
	s.logger.Debug("auto-refresh paused", "reason", string(reason))
}

// armLocked points the wake timer at the earlier of the next interval run and
// the pending retry.
func (s *Scheduler) armLocked() {
	if s.wake != nil {
		s.wake.Stop()
	}
	now := s.clock.Now()
	next := s.nextRunAt
	s.state = StateScheduled
	if !s.retryAt.IsZero() {
		s.state = StateRetryPending
		if s.retryAt.Before(next) {
			next = s.retryAt
		}
	}
	s.pauseReason = ReasonNone
	s.nextRefreshIn = max(s.nextRunAt.Sub(now), 0)

	s.wakeSeq++
	seq := s.wakeSeq
	s.wake = s.clock.AfterFunc(next.Sub(now), func() { s.onWake(seq) })
	if s.ticker == nil {
		s.tickLocked()
	}
}

func (s *Scheduler) tickLocked() {
	s.tickSeq++
	seq := s.tickSeq
	s.ticker = s.clock.AfterFunc(s.countdownStep, func() { s.onTick(seq) })
}

func (s *Scheduler) onTick(seq uint64) {
	s.mu.Lock()
	if seq != s.tickSeq || s.closed {
		s.mu.Unlock()
		return
	}
	s.ticker = nil
	if s.state != StateScheduled && s.state != StateRetryPending {
		s.mu.Unlock()
		return
	}
	s.nextRefreshIn = max(s.nextRunAt.Sub(s.clock.Now()), 0)
	s.tickLocked()
	s.mu.Unlock()
	s.emit()
}

func (s *Scheduler) stopTimersLocked() {
	if s.wake != nil {
		s.wake.Stop()
		s.wake = nil
	}
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	s.wakeSeq++
	s.tickSeq++
}

func (s *Scheduler) emitIf(changed bool) {
	if changed {
		s.emit()
	}
}

func (s *Scheduler) emit() {
	if s.onChange == nil {
		return
	}
	s.onChange(s.Status())
}
