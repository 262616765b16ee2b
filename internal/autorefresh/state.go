package autorefresh

import "time"

// State is the scheduler's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateScheduled
	StateExecuting
	StateRetryPending
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StateExecuting:
		return "executing"
	case StateRetryPending:
		return "retry-pending"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Status is a snapshot for display.
type Status struct {
	State          State
	Enabled        bool
	Paused         bool
	PauseReason    Reason
	Running        bool
	FailedAttempts int
	MaxRetries     int
	Interval       time.Duration
	NextRefreshIn  time.Duration
	LastRunAt      time.Time
	LastError      string
}
