package httpapi

import (
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/autorefresh"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/refresh"
)

type refreshJSON struct {
	IsRefreshing    bool              `json:"isRefreshing"`
	LastRefreshTime *time.Time        `json:"lastRefreshTime"`
	ActiveTab       string            `json:"activeTab"`
	InProgress      map[string]bool   `json:"inProgress"`
	Errors          map[string]string `json:"errors"`
}

type tabJSON struct {
	ID              string     `json:"id"`
	Operations      int        `json:"operations"`
	Active          bool       `json:"active"`
	Refreshing      bool       `json:"refreshing"`
	LastRefreshedAt *time.Time `json:"lastRefreshedAt"`
	LastError       string     `json:"lastError,omitempty"`
}

type statusJSON struct {
	State           string     `json:"state"`
	Enabled         bool       `json:"enabled"`
	Paused          bool       `json:"paused"`
	PauseReason     string     `json:"pauseReason,omitempty"`
	Running         bool       `json:"running"`
	FailedAttempts  int        `json:"failedAttempts"`
	MaxRetries      int        `json:"maxRetries"`
	IntervalMs      int64      `json:"intervalMs"`
	NextRefreshInMs int64      `json:"nextRefreshInMs"`
	LastRunAt       *time.Time `json:"lastRunAt"`
	LastError       string     `json:"lastError,omitempty"`
}

func refreshView(s refresh.State) refreshJSON {
	v := refreshJSON{
		IsRefreshing:    s.IsRefreshing,
		LastRefreshTime: timeOrNil(s.LastRefreshTime),
		ActiveTab:       s.ActiveTab,
		InProgress:      s.InProgress,
		Errors:          s.Errors,
	}
	if v.InProgress == nil {
		v.InProgress = map[string]bool{}
	}
	if v.Errors == nil {
		v.Errors = map[string]string{}
	}
	return v
}

func tabsView(tabs []refresh.TabEntry) []tabJSON {
	out := make([]tabJSON, 0, len(tabs))
	for _, t := range tabs {
		out = append(out, tabJSON{
			ID:              t.ID,
			Operations:      t.Operations,
			Active:          t.Active,
			Refreshing:      t.Refreshing,
			LastRefreshedAt: timeOrNil(t.LastRefreshedAt),
			LastError:       t.LastError,
		})
	}
	return out
}

func statusView(s autorefresh.Status) statusJSON {
	return statusJSON{
		State:           s.State.String(),
		Enabled:         s.Enabled,
		Paused:          s.Paused,
		PauseReason:     string(s.PauseReason),
		Running:         s.Running,
		FailedAttempts:  s.FailedAttempts,
		MaxRetries:      s.MaxRetries,
		IntervalMs:      s.Interval.Milliseconds(),
		NextRefreshInMs: s.NextRefreshIn.Milliseconds(),
		LastRunAt:       timeOrNil(s.LastRunAt),
		LastError:       s.LastError,
	}
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
