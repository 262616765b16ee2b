// Package refresh coordinates per-tab refresh operations: a registry of named
// tabs, single-flight execution with a minimum interval between successful
// refreshes, a per-operation timeout, and debounced state notifications.
package refresh

import (
	"context"
	"errors"
	"time"
)

// Defaults applied by NewCoordinator.
const (
	DefaultMinInterval      = 1000 * time.Millisecond
	DefaultOperationTimeout = 30000 * time.Millisecond
	DefaultNotifyDebounce   = 50 * time.Millisecond
)

// ErrOperationTimeout is returned when an operation exceeds its time budget.
var ErrOperationTimeout = errors.New("refresh operation timed out")

// Operation is one unit of refresh work for a tab. A nil error means success.
type Operation func(ctx context.Context) error

// TabEntry is a read-only view of a registered tab.
type TabEntry struct {
	ID              string
	Operations      int
	Active          bool
	Refreshing      bool
	LastRefreshedAt time.Time // zero when the tab never refreshed successfully
	LastError       string    // "" when the last refresh succeeded or was cleared
}

// State is the snapshot published to subscribers.
type State struct {
	IsRefreshing    bool
	LastRefreshTime time.Time
	ActiveTab       string
	InProgress      map[string]bool
	Errors          map[string]string
}

// Listener receives state snapshots. Every listener sees the same maps and
// must not modify them.
type Listener func(State)

// Result describes one executed refresh. Skipped calls produce no Result.
type Result struct {
	TabID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
	// Discarded is set when the tab was unregistered while the refresh ran,
	// so the outcome was not applied.
	Discarded bool
}

// Duration is the wall time between start and settle.
func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
