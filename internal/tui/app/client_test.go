package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/autorefresh"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/clock"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/colors"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/dashboard"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/environment"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/ledger"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/refresh"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/settings"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/tui/state"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	err      error
	received []tea.Msg
	emit     func(b *Bridge)
	bridge   *Bridge
}

func (r *recordingRunner) Run(_ tea.Model, attach func(func(tea.Msg))) error {
	if attach != nil {
		attach(func(msg tea.Msg) { r.received = append(r.received, msg) })
	}
	if r.emit != nil {
		r.emit(r.bridge)
	}
	return r.err
}

type nopModel struct{}

func (nopModel) Init() tea.Cmd                       { return nil }
func (nopModel) Update(tea.Msg) (tea.Model, tea.Cmd) { return nopModel{}, nil }
func (nopModel) View() string                        { return "" }

func TestBridgeDropsEventsWhileDetached(t *testing.T) {
	b := NewBridge()
	var got []tea.Msg

	b.RefreshChanged(refresh.State{ActiveTab: "overview"})
	b.Attach(func(msg tea.Msg) { got = append(got, msg) })
	b.SchedulerChanged(autorefresh.Status{NextRefreshIn: time.Second})
	b.Detach()
	b.RefreshChanged(refresh.State{})

	require.Len(t, got, 1)
	assert.Equal(t, state.SchedulerStatusMsg{Status: autorefresh.Status{NextRefreshIn: time.Second}}, got[0])
}

func TestClientForwardsWhileRunning(t *testing.T) {
	b := NewBridge()
	runner := &recordingRunner{bridge: b, emit: func(b *Bridge) {
		b.RefreshChanged(refresh.State{ActiveTab: "payments"})
	}}

	require.NoError(t, NewClient(runner).Run(nopModel{}, b))

	require.Len(t, runner.received, 1)
	assert.Equal(t, "payments", runner.received[0].(state.RefreshStateMsg).State.ActiveTab)

	b.RefreshChanged(refresh.State{})
	assert.Len(t, runner.received, 1, "detached after exit")
}

func TestClientReportsRunError(t *testing.T) {
	colors.SetOutput(io.Discard, io.Discard)
	t.Cleanup(func() { colors.SetOutput(nil, nil) })

	err := NewClient(&recordingRunner{err: errors.New("no tty")}).Run(nopModel{}, nil)
	require.Error(t, err)
}

func TestBridgeKeepsOrderAndFlushesOnDetach(t *testing.T) {
	b := NewBridge()
	var got []int
	b.Attach(func(msg tea.Msg) {
		got = append(got, int(msg.(state.SchedulerStatusMsg).Status.FailedAttempts))
	})
	for i := range 50 {
		b.SchedulerChanged(autorefresh.Status{FailedAttempts: i})
	}
	b.Detach()

	require.Len(t, got, 50)
	for i, n := range got {
		assert.Equal(t, i, n)
	}
}

// headlessRunner runs a real program without a terminal and hands it to the
// test once attached.
type headlessRunner struct {
	started chan *tea.Program
}

func (r headlessRunner) Run(model tea.Model, attach func(func(tea.Msg))) error {
	p := tea.NewProgram(model,
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
	if attach != nil {
		attach(p.Send)
	}
	r.started <- p
	_, err := p.Run()
	return err
}

type emptyData struct{}

func (emptyData) Data() dashboard.Data { return dashboard.Data{} }
func (emptyData) Summary(month time.Time) ledger.Summary {
	return ledger.Summarize(month, nil, nil, nil, nil)
}

func TestProgramHandlesSchedulerCallbacksFromUpdate(t *testing.T) {
	c := clock.NewManual(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	coord := refresh.NewCoordinator(refresh.WithClock(c))
	t.Cleanup(coord.Close)
	for _, tab := range settings.AllTabs() {
		coord.Register(string(tab), func(context.Context) error { return nil })
	}
	monitor := environment.NewMonitor(c, time.Minute)
	t.Cleanup(monitor.Close)

	bridge := NewBridge()
	sched := autorefresh.New(coord, monitor, nil,
		autorefresh.WithClock(c),
		autorefresh.WithOnChange(bridge.SchedulerChanged),
	)
	t.Cleanup(sched.Close)
	monitor.OnChange(func(autorefresh.Signals) { sched.Reevaluate() })
	coord.Subscribe(bridge.RefreshChanged)

	model, err := state.NewModel(state.Deps{
		Coordinator: coord,
		Scheduler:   sched,
		Activity:    monitor,
		Data:        emptyData{},
		Now:         c.Now,
	})
	require.NoError(t, err)
	sched.Start()

	runner := headlessRunner{started: make(chan *tea.Program, 1)}
	done := make(chan error, 1)
	go func() { done <- NewClient(runner).Run(model, bridge) }()
	p := <-runner.started

	go func() {
		p.Send(tea.BlurMsg{})
		p.Send(tea.FocusMsg{})
		p.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
		p.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
		p.Quit()
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		p.Kill()
		t.Fatal("program did not quit after scheduler callbacks fired from Update")
	}

	st := sched.Status()
	assert.True(t, st.Paused)
	assert.Equal(t, autorefresh.ReasonManual, st.PauseReason)
	assert.True(t, monitor.Signals().Visible)
}
