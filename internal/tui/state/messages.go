// Package state provides the dashboard's Bubble Tea model and the messages
// it exchanges with the refresh machinery.
package state

import (
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/autorefresh"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/refresh"
	tea "github.com/charmbracelet/bubbletea"
)

// RefreshStateMsg carries a coordinator state snapshot.
type RefreshStateMsg struct {
	State refresh.State
}

// SchedulerStatusMsg carries an auto-refresh status change.
type SchedulerStatusMsg struct {
	Status autorefresh.Status
}

// refreshDoneMsg reports the end of a refresh started from the UI.
type refreshDoneMsg struct {
	forced bool
	err    error
}

type clearMessageMsg struct {
	seq int
}

func clearMessageAfter(d time.Duration, seq int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearMessageMsg{seq: seq}
	})
}
