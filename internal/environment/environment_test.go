package environment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/autorefresh"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMonitor(t *testing.T) (*Monitor, *clock.Manual, *[]autorefresh.Signals) {
	t.Helper()
	c := clock.NewManual(time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC))
	m := NewMonitor(c, time.Minute)
	t.Cleanup(m.Close)
	var changes []autorefresh.Signals
	m.OnChange(func(s autorefresh.Signals) { changes = append(changes, s) })
	return m, c, &changes
}

func TestMonitorStartsActive(t *testing.T) {
	m, _, _ := newTestMonitor(t)
	assert.Equal(t, autorefresh.Signals{Visible: true, Online: true}, m.Signals())
}

func TestMonitorBecomesIdle(t *testing.T) {
	m, c, changes := newTestMonitor(t)

	c.Advance(59 * time.Second)
	assert.False(t, m.Signals().Idle)

	c.Advance(time.Second)
	assert.True(t, m.Signals().Idle)
	require.Len(t, *changes, 1)

	m.RecordActivity()
	assert.False(t, m.Signals().Idle)
	require.Len(t, *changes, 2)
}

func TestActivityPostponesIdle(t *testing.T) {
	m, c, changes := newTestMonitor(t)

	c.Advance(50 * time.Second)
	m.RecordActivity()
	c.Advance(50 * time.Second)

	assert.False(t, m.Signals().Idle)
	assert.Empty(t, *changes, "activity while active is not a change")
}

func TestVisibilityAndConnectivity(t *testing.T) {
	m, _, changes := newTestMonitor(t)

	m.SetVisible(false)
	m.SetVisible(false)
	m.SetOnline(false)

	assert.Equal(t, autorefresh.Signals{Visible: false, Online: false}, m.Signals())
	assert.Len(t, *changes, 2)
}

func TestCloseStopsIdleTimer(t *testing.T) {
	m, c, _ := newTestMonitor(t)
	m.Close()

	c.Advance(time.Hour)

	assert.False(t, m.Signals().Idle)
	assert.Zero(t, c.Pending())
}

func TestProberReportsReachability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusForbidden)
	}))
	m, _, _ := newTestMonitor(t)
	p := NewProber(srv.URL, m, srv.Client(), time.Second, nil)

	assert.True(t, p.Probe(context.Background()))
	assert.True(t, m.Signals().Online)

	srv.Close()
	assert.False(t, p.Probe(context.Background()))
	assert.False(t, m.Signals().Online)
}

func TestProberRunStopsWithContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	m, _, _ := newTestMonitor(t)
	p := NewProber(srv.URL, m, srv.Client(), 10*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.True(t, m.Signals().Online)
}

func TestProberIgnoresCancelledCheck(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)
	m, _, changes := newTestMonitor(t)
	p := NewProber(srv.URL, m, srv.Client(), time.Hour, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.True(t, p.Probe(ctx))
	assert.True(t, m.Signals().Online)
	assert.Empty(t, *changes)

	done, stop := context.WithCancel(context.Background())
	stop()
	require.NoError(t, p.Run(done))
	assert.True(t, m.Signals().Online, "shutdown is not a lost connection")
	assert.Empty(t, *changes)
}
