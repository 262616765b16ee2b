// Package render draws the dashboard's tab bar, tables and status line.
// Layout is right to left: the first tab and the first column sit on the
// right edge.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/autorefresh"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/colors"
	apperrors "github.com/Sirkin25/sirkin-dashboard-sub000/internal/errors"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/settings"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

const (
	columnGap    = "  "
	tabSeparator = " │ "
	partSep      = " · "
	emptyText    = "אין נתונים"
)

var (
	blue       = lipgloss.Color(ansiColorNumber(colors.Blue))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ansiColorNumber(colors.Red)))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ansiColorNumber(colors.Yellow)))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ansiColorNumber(colors.Green)))

	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(blue)
	tabStyle       = lipgloss.NewStyle().Padding(0, 1)
	activeTabStyle = tabStyle.Bold(true).Background(blue).Foreground(lipgloss.Color("0"))
)

// Table is a grid of already formatted cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

// TabBar renders the tabs with the active one highlighted.
func TabBar(tabs []settings.Tab, active settings.Tab, width int) string {
	parts := make([]string, 0, len(tabs))
	for i := len(tabs) - 1; i >= 0; i-- {
		tab := tabs[i]
		if tab == active {
			parts = append(parts, activeTabStyle.Render(tab.Label()))
			continue
		}
		parts = append(parts, tabStyle.Render(tab.Label()))
	}
	return alignRight(strings.Join(parts, mutedStyle.Render(tabSeparator)), width)
}

// RenderTable lays out t with right-aligned cells and reversed column order.
func RenderTable(t Table, width int) string {
	cols := len(t.Headers)
	if cols == 0 {
		return ""
	}
	widths := make([]int, cols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i := 0; i < cols && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	lines := make([]string, 0, len(t.Rows)+1)
	lines = append(lines, alignRight(headerStyle.Render(joinRTL(t.Headers, widths)), width))
	if len(t.Rows) == 0 {
		lines = append(lines, alignRight(mutedStyle.Render(emptyText), width))
	}
	for _, row := range t.Rows {
		lines = append(lines, alignRight(joinRTL(row, widths), width))
	}
	return strings.Join(lines, "\n")
}

func joinRTL(cells []string, widths []int) string {
	out := make([]string, 0, len(widths))
	for i := len(widths) - 1; i >= 0; i-- {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		out = append(out, padLeft(cell, widths[i]))
	}
	return strings.Join(out, columnGap)
}

func padLeft(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}

func alignRight(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) >= width {
		return s
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, s)
}

// StatusState defines the inputs needed to render the status line.
type StatusState struct {
	Refreshing  bool
	Spinner     string
	Scheduler   autorefresh.Status
	LastRefresh time.Time
	TabError    string
	Message     string
	MessageType apperrors.MessageType
	Width       int
}

// StatusBar renders refresh activity, the countdown, failures and the
// latest message.
func StatusBar(s StatusState) string {
	var parts []string
	if s.Refreshing {
		parts = append(parts, s.Spinner+" מרענן...")
	} else if text := schedulerText(s.Scheduler); text != "" {
		parts = append(parts, text)
	}
	if s.Scheduler.FailedAttempts > 0 {
		parts = append(parts, warnStyle.Render(fmt.Sprintf("כשלונות %d/%d", s.Scheduler.FailedAttempts, s.Scheduler.MaxRetries)))
	}
	if !s.LastRefresh.IsZero() {
		parts = append(parts, mutedStyle.Render("עודכן "+s.LastRefresh.Format("15:04:05")))
	}
	if s.TabError != "" {
		parts = append(parts, errorStyle.Render("שגיאה: "+s.TabError))
	}
	if s.Message != "" {
		parts = append(parts, messageStyle(s.MessageType).Render(s.Message))
	}
	return alignRight(strings.Join(parts, partSep), s.Width)
}

func schedulerText(st autorefresh.Status) string {
	switch st.State {
	case autorefresh.StateScheduled:
		return "רענון בעוד " + Countdown(st.NextRefreshIn)
	case autorefresh.StateRetryPending:
		return warnStyle.Render("ניסיון חוזר בקרוב") + ", רענון בעוד " + Countdown(st.NextRefreshIn)
	case autorefresh.StateExecuting:
		return "מרענן..."
	case autorefresh.StatePaused, autorefresh.StateIdle:
		if st.PauseReason == autorefresh.ReasonNone {
			return ""
		}
		return mutedStyle.Render(PauseReasonLabel(st.PauseReason))
	default:
		return ""
	}
}

func messageStyle(t apperrors.MessageType) lipgloss.Style {
	switch t {
	case apperrors.MessageTypeError:
		return errorStyle
	case apperrors.MessageTypeWarning:
		return warnStyle
	case apperrors.MessageTypeSuccess:
		return okStyle
	default:
		return lipgloss.NewStyle()
	}
}

// PauseReasonLabel is the Hebrew text for a pause reason.
func PauseReasonLabel(r autorefresh.Reason) string {
	switch r {
	case autorefresh.ReasonDisabled:
		return "רענון אוטומטי כבוי"
	case autorefresh.ReasonManual:
		return "מושהה"
	case autorefresh.ReasonRetriesExhausted:
		return "מושהה אחרי כשלונות חוזרים"
	case autorefresh.ReasonHidden:
		return "מושהה, החלון מוסתר"
	case autorefresh.ReasonOffline:
		return "מושהה, אין חיבור"
	case autorefresh.ReasonIdle:
		return "מושהה, אין פעילות"
	case autorefresh.ReasonRefreshing:
		return "ממתין לסיום רענון"
	default:
		return string(r)
	}
}

// Countdown formats d as m:ss, rounding partial seconds up.
func Countdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Footer renders the key help line.
func Footer(bindings []key.Binding, width int) string {
	h := help.New()
	h.Width = width
	return alignRight(h.ShortHelpView(bindings), width)
}

// ansiColorNumber extracts the color number from an ANSI escape sequence.
// Example: "\033[0;34m" -> "34"
func ansiColorNumber(ansi string) string {
	if len(ansi) < 2 {
		return ""
	}
	lastSemicolon := strings.LastIndex(ansi, ";")
	if lastSemicolon == -1 {
		return ""
	}
	return ansi[lastSemicolon+1 : len(ansi)-1]
}
