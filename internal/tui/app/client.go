package app

import (
	"fmt"
	"sync"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/autorefresh"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/colors"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/environment"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/refresh"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/settings"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/tui/state"
	tea "github.com/charmbracelet/bubbletea"
)

// Bridge forwards coordinator and scheduler callbacks to a running program.
// Callbacks only queue the event; a pump goroutine delivers the queue in
// order, so a callback fired from inside the program's Update never waits
// on the event loop. Events arriving before Attach or after Detach are
// dropped.
type Bridge struct {
	mu       sync.Mutex
	attached bool
	queue    []tea.Msg
	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
}

// NewBridge creates a detached Bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach starts forwarding to send. A nil send detaches.
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.Detach()
	if send == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attached = true
	b.wake = make(chan struct{}, 1)
	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	go b.pump(send, b.wake, b.stop, b.done)
}

// Detach stops forwarding. Events queued before the call are delivered
// before it returns.
func (b *Bridge) Detach() {
	b.mu.Lock()
	if !b.attached {
		b.mu.Unlock()
		return
	}
	b.attached = false
	stop, done := b.stop, b.done
	b.mu.Unlock()
	close(stop)
	<-done
}

// RefreshChanged is a refresh.Listener.
func (b *Bridge) RefreshChanged(s refresh.State) {
	b.forward(state.RefreshStateMsg{State: s})
}

// SchedulerChanged is an autorefresh change callback.
func (b *Bridge) SchedulerChanged(s autorefresh.Status) {
	b.forward(state.SchedulerStatusMsg{Status: s})
}

func (b *Bridge) forward(msg tea.Msg) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return
	}
	b.queue = append(b.queue, msg)
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *Bridge) pump(send func(tea.Msg), wake, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-wake:
			b.flush(send)
		case <-stop:
			b.flush(send)
			return
		}
	}
}

func (b *Bridge) flush(send func(tea.Msg)) {
	b.mu.Lock()
	pending := b.queue
	b.queue = nil
	b.mu.Unlock()
	for _, msg := range pending {
		send(msg)
	}
}

// Client runs the dashboard program.
type Client struct {
	runner ProgramRunner
}

// NewClient creates a Client. A nil runner uses DefaultProgramRunner.
func NewClient(runner ProgramRunner) *Client {
	if runner == nil {
		runner = NewDefaultProgramRunner()
	}
	return &Client{runner: runner}
}

// Run starts model and forwards bridge events to it until the program exits.
func (c *Client) Run(model tea.Model, bridge *Bridge) error {
	var attach func(func(tea.Msg))
	if bridge != nil {
		attach = bridge.Attach
		defer bridge.Detach()
	}
	if err := c.runner.Run(model, attach); err != nil {
		colors.Error(fmt.Sprintf("Error running TUI: %v", err))
		return err
	}
	return nil
}

var (
	_ state.Coordinator = (*refresh.Coordinator)(nil)
	_ state.Scheduler   = (*autorefresh.Scheduler)(nil)
	_ state.Activity    = (*environment.Monitor)(nil)
	_ state.TabStore    = (*settings.Store)(nil)
)
