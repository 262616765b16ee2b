package state

import (
	"context"
	"fmt"
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/autorefresh"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/dashboard"
	apperrors "github.com/Sirkin25/sirkin-dashboard-sub000/internal/errors"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/ledger"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/refresh"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/settings"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	headerLines           = 2
	footerLines           = 2
	defaultViewportWidth  = 80
	defaultViewportHeight = 20
	messageClearDuration  = 5 * time.Second
)

// Coordinator is the part of the refresh coordinator the UI drives.
type Coordinator interface {
	RefreshCurrentTab(ctx context.Context) error
	SetActiveTab(tabID string)
	State() refresh.State
}

// Scheduler is the part of the auto-refresh scheduler the UI drives.
type Scheduler interface {
	Status() autorefresh.Status
	ForceRefresh(ctx context.Context) error
	Pause()
	Resume()
	Enable() error
	Disable() error
	ResetFailures()
}

// Activity receives visibility and user activity signals.
type Activity interface {
	SetVisible(visible bool)
	RecordActivity()
}

// DataSource serves the loaded ledger data.
type DataSource interface {
	Data() dashboard.Data
	Summary(month time.Time) ledger.Summary
}

// TabStore persists the selected tab.
type TabStore interface {
	SetActiveTab(tab settings.Tab) error
}

// Deps holds the model's collaborators. Activity and Tabs may be nil.
type Deps struct {
	Coordinator Coordinator
	Scheduler   Scheduler
	Activity    Activity
	Data        DataSource
	Tabs        TabStore
	InitialTab  settings.Tab
	Now         func() time.Time
	Context     context.Context
}

// Model represents the TUI model for bubbletea.
type Model struct {
	deps Deps
	ctx  context.Context
	keys keyMap

	tabs   []settings.Tab
	active int
	width  int
	height int

	viewport viewport.Model
	spinner  spinner.Model

	refresh refresh.State
	status  autorefresh.Status

	errorHandler *apperrors.TUIHandler
	message      apperrors.Message
	hasMessage   bool
	messageSeq   int
}

// NewModel creates the dashboard model. Coordinator, Scheduler and Data
// are required.
func NewModel(deps Deps) (*Model, error) {
	if deps.Coordinator == nil || deps.Scheduler == nil || deps.Data == nil {
		return nil, fmt.Errorf("tui: coordinator, scheduler and data source are required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}

	m := &Model{
		deps:     deps,
		ctx:      ctx,
		keys:     defaultKeyMap(),
		tabs:     settings.AllTabs(),
		viewport: viewport.New(defaultViewportWidth, defaultViewportHeight),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		refresh:  deps.Coordinator.State(),
		status:   deps.Scheduler.Status(),
	}
	initial := settings.NormalizeTab(string(deps.InitialTab))
	for i, tab := range m.tabs {
		if tab == initial {
			m.active = i
		}
	}
	deps.Coordinator.SetActiveTab(string(m.activeTab()))

	m.errorHandler = apperrors.NewTUIHandler(deps.Now, func(msg apperrors.Message) {
		m.message = msg
		m.hasMessage = msg.Text != ""
		m.messageSeq++
	})
	m.updateViewportContent()
	return m, nil
}

// Init starts the spinner and loads the active tab.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refreshCmd())
}

// Update handles messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerLines-footerLines, 1)
		m.updateViewportContent()
		return m, nil
	case tea.FocusMsg:
		if m.deps.Activity != nil {
			m.deps.Activity.SetVisible(true)
		}
		return m, nil
	case tea.BlurMsg:
		if m.deps.Activity != nil {
			m.deps.Activity.SetVisible(false)
		}
		return m, nil
	case RefreshStateMsg:
		m.refresh = msg.State
		m.updateViewportContent()
		return m, nil
	case SchedulerStatusMsg:
		m.status = msg.Status
		return m, nil
	case refreshDoneMsg:
		return m, m.handleRefreshDone(msg)
	case clearMessageMsg:
		if msg.seq == m.messageSeq {
			m.hasMessage = false
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.deps.Activity != nil {
		m.deps.Activity.RecordActivity()
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextTab):
		return m, m.switchTab(1)
	case key.Matches(msg, m.keys.PrevTab):
		return m, m.switchTab(-1)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.forceRefreshCmd()
	case key.Matches(msg, m.keys.Pause):
		if m.status.PauseReason == autorefresh.ReasonManual {
			m.deps.Scheduler.Resume()
		} else {
			m.deps.Scheduler.Pause()
		}
		m.status = m.deps.Scheduler.Status()
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		return m, m.toggleAutoRefresh()
	case key.Matches(msg, m.keys.Reset):
		m.deps.Scheduler.ResetFailures()
		m.status = m.deps.Scheduler.Status()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) switchTab(delta int) tea.Cmd {
	n := len(m.tabs)
	m.active = ((m.active+delta)%n + n) % n
	tab := m.activeTab()
	m.deps.Coordinator.SetActiveTab(string(tab))
	m.viewport.GotoTop()
	m.updateViewportContent()

	var cmds []tea.Cmd
	if m.deps.Tabs != nil {
		if err := m.deps.Tabs.SetActiveTab(tab); err != nil {
			cmds = append(cmds, m.report(apperrors.MessageTypeWarning, fmt.Sprintf("שמירת הלשונית נכשלה: %v", err)))
		}
	}
	cmds = append(cmds, m.refreshCmd())
	return tea.Batch(cmds...)
}

func (m *Model) toggleAutoRefresh() tea.Cmd {
	var err error
	if m.status.Enabled {
		err = m.deps.Scheduler.Disable()
	} else {
		err = m.deps.Scheduler.Enable()
	}
	m.status = m.deps.Scheduler.Status()
	if err != nil {
		return m.report(apperrors.MessageTypeWarning, fmt.Sprintf("שמירת ההעדפה נכשלה: %v", err))
	}
	return nil
}

// refreshCmd loads the active tab through the coordinator, which skips
// tabs that refreshed recently.
func (m *Model) refreshCmd() tea.Cmd {
	coord, ctx := m.deps.Coordinator, m.ctx
	return func() tea.Msg {
		return refreshDoneMsg{err: coord.RefreshCurrentTab(ctx)}
	}
}

func (m *Model) forceRefreshCmd() tea.Cmd {
	sched, ctx := m.deps.Scheduler, m.ctx
	return func() tea.Msg {
		return refreshDoneMsg{forced: true, err: sched.ForceRefresh(ctx)}
	}
}

func (m *Model) handleRefreshDone(msg refreshDoneMsg) tea.Cmd {
	m.refresh = m.deps.Coordinator.State()
	m.status = m.deps.Scheduler.Status()
	m.updateViewportContent()
	if msg.err != nil {
		return m.report(apperrors.MessageTypeError, fmt.Sprintf("הרענון נכשל: %v", msg.err))
	}
	if msg.forced {
		return m.report(apperrors.MessageTypeSuccess, "הנתונים עודכנו")
	}
	return nil
}

func (m *Model) report(typ apperrors.MessageType, text string) tea.Cmd {
	switch typ {
	case apperrors.MessageTypeError:
		m.errorHandler.Error(text)
	case apperrors.MessageTypeWarning:
		m.errorHandler.Warning(text)
	case apperrors.MessageTypeSuccess:
		m.errorHandler.Success(text)
	default:
		m.errorHandler.Info(text)
	}
	return clearMessageAfter(messageClearDuration, m.messageSeq)
}

func (m *Model) activeTab() settings.Tab {
	return m.tabs[m.active]
}

// ActiveTab returns the selected tab.
func (m *Model) ActiveTab() settings.Tab {
	return m.activeTab()
}

// Messages returns the message log shown in the status line.
func (m *Model) Messages() []apperrors.Message {
	return m.errorHandler.All()
}
