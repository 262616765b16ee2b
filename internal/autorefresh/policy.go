// Package autorefresh drives periodic refreshes of the active tab. A pure
// pause predicate decides whether scheduling may run; the Scheduler layers an
// interval timer, a countdown and a capped retry policy on top of it.
package autorefresh

// Policy holds the user-facing switches. Enabled mirrors the persisted
// autoRefreshEnabled preference.
type Policy struct {
	Enabled          bool
	PauseWhenHidden  bool
	PauseWhenOffline bool
	PauseWhenIdle    bool
}

// DefaultPolicy pauses on every gating signal.
func DefaultPolicy() Policy {
	return Policy{Enabled: true, PauseWhenHidden: true, PauseWhenOffline: true, PauseWhenIdle: true}
}

// Signals are the environment conditions read on each evaluation.
type Signals struct {
	Visible bool
	Online  bool
	Idle    bool
}

// SignalSource reports the current Signals. Implementations must not call
// back into the Scheduler from Signals.
type SignalSource interface {
	Signals() Signals
}

// PauseInput is everything the pause decision depends on.
type PauseInput struct {
	Policy
	Signals
	Refreshing     bool
	FailedAttempts int
	MaxRetries     int
	ManualPause    bool
}

// Reason names why scheduling is paused.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonDisabled         Reason = "disabled"
	ReasonManual           Reason = "paused"
	ReasonRetriesExhausted Reason = "retries exhausted"
	ReasonHidden           Reason = "hidden"
	ReasonOffline          Reason = "offline"
	ReasonIdle             Reason = "idle"
	ReasonRefreshing       Reason = "refreshing"
)

// PauseReasonFor returns the first reason that blocks scheduling, or
// ReasonNone.
func PauseReasonFor(in PauseInput) Reason {
	switch {
	case !in.Enabled:
		return ReasonDisabled
	case in.ManualPause:
		return ReasonManual
	case in.MaxRetries > 0 && in.FailedAttempts >= in.MaxRetries:
		return ReasonRetriesExhausted
	case in.PauseWhenHidden && !in.Visible:
		return ReasonHidden
	case in.PauseWhenOffline && !in.Online:
		return ReasonOffline
	case in.PauseWhenIdle && in.Idle:
		return ReasonIdle
	case in.Refreshing:
		return ReasonRefreshing
	default:
		return ReasonNone
	}
}

// ShouldPause reports whether any condition blocks scheduling.
func ShouldPause(in PauseInput) bool {
	return PauseReasonFor(in) != ReasonNone
}
