package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/autorefresh"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/colors"
	apperrors "github.com/Sirkin25/sirkin-dashboard-sub000/internal/errors"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/settings"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/sheets"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/store"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/tui/app"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	colors.SetOutput(&bytes.Buffer{}, &bytes.Buffer{})
}

type fakeFetcher struct {
	mu     sync.Mutex
	sheets map[string][][]string
	errs   map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		sheets: map[string][][]string{
			"יתרה":    {{"חשבון", "יתרה"}, {"עו\"ש", "12,500"}},
			"הוצאות":  {{"תאריך", "קטגוריה", "סכום"}, {"02/03/2026", "ניקיון", "450"}},
			"תשלומים": {{"דירה", "חודש", "סכום"}, {"1", "03/2026", "250"}},
			"דירות":   {{"דירה", "בעלים", "דמי ועד"}, {"1", "כהן", "250"}},
		},
		errs: map[string]error{},
	}
}

func (f *fakeFetcher) FetchSheet(_ context.Context, sheet string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[sheet]; err != nil {
		return nil, err
	}
	return f.sheets[sheet], nil
}

type testPaths struct {
	db    string
	prefs string
}

func newTestPaths(t *testing.T) testPaths {
	t.Helper()
	dir := t.TempDir()
	return testPaths{db: filepath.Join(dir, "sirkin.db"), prefs: filepath.Join(dir, "preferences.toml")}
}

// testOpener wires the real graph around a fake fetcher and temporary files.
func testOpener(paths testPaths, f *fakeFetcher) depsOpener {
	return func(ctx context.Context, opts depsOptions) (*deps, error) {
		opts.fetcher = f
		opts.dbPath = paths.db
		opts.prefsPath = paths.prefs
		return openDeps(ctx, opts)
	}
}

func listRuns(t *testing.T, path string) []store.Run {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()
	runs, err := st.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	return runs
}

func execute(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetArgs(args)
	err := c.ExecuteContext(context.Background())
	return out.String(), err
}

func TestOpenDepsRequiresSheetID(t *testing.T) {
	paths := newTestPaths(t)

	_, err := openDeps(context.Background(), depsOptions{dbPath: paths.db, prefsPath: paths.prefs})

	require.ErrorIs(t, err, sheets.ErrNoSheetID)
	assert.Contains(t, apperrors.HintOf(err), "sheet_id")
}

func TestOpenDepsWiresScheduler(t *testing.T) {
	paths := newTestPaths(t)
	var mu sync.Mutex
	var statuses []autorefresh.Status

	d, err := testOpener(paths, newFakeFetcher())(context.Background(), depsOptions{
		onSchedulerChange: func(s autorefresh.Status) {
			mu.Lock()
			defer mu.Unlock()
			statuses = append(statuses, s)
		},
	})
	require.NoError(t, err)
	defer d.Close()

	assert.Len(t, d.coord.Tabs(), len(settings.AllTabs()))
	assert.Equal(t, string(settings.DefaultTab()), d.coord.ActiveTab())
	assert.Nil(t, d.prober, "no probe url without a sheets client")

	d.scheduler.Start()
	require.NoError(t, d.scheduler.ForceRefresh(context.Background()))
	assert.False(t, d.service.UpdatedAt("balances").IsZero())

	mu.Lock()
	defer mu.Unlock()
	assert.NotEmpty(t, statuses)
}

func TestPolicyFromConfigHeadless(t *testing.T) {
	p := policyFromConfig(true)
	assert.False(t, p.PauseWhenHidden)
	assert.False(t, p.PauseWhenIdle)
	assert.True(t, p.PauseWhenOffline)

	p = policyFromConfig(false)
	assert.True(t, p.PauseWhenHidden)
	assert.True(t, p.PauseWhenIdle)
}

func TestRefreshCommandSingleTab(t *testing.T) {
	paths := newTestPaths(t)

	out, err := execute(t, NewRefreshCmd(testOpener(paths, newFakeFetcher())), "payments")

	require.NoError(t, err)
	assert.Contains(t, out, "✓ payments")
	runs := listRuns(t, paths.db)
	require.Len(t, runs, 1)
	assert.Equal(t, "payments", runs[0].Tab)
	assert.False(t, runs[0].Failed())
}

func TestRefreshCommandDefaultsToActiveTab(t *testing.T) {
	paths := newTestPaths(t)
	prefs, err := settings.Open(paths.prefs)
	require.NoError(t, err)
	require.NoError(t, prefs.SetActiveTab(settings.TabApartments))

	out, err := execute(t, NewRefreshCmd(testOpener(paths, newFakeFetcher())))

	require.NoError(t, err)
	assert.Contains(t, out, "✓ apartments")
}

func TestRefreshCommandAll(t *testing.T) {
	paths := newTestPaths(t)
	f := newFakeFetcher()
	f.errs["תשלומים"] = errors.New("quota exceeded")

	out, err := execute(t, NewRefreshCmd(testOpener(paths, f)), "--all")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "payments")
	assert.Contains(t, out, "✓ overview")
	assert.Contains(t, out, "✗ payments")
	assert.Contains(t, out, "₪12,500")
	assert.Len(t, listRuns(t, paths.db), len(settings.AllTabs()))
}

func TestRefreshCommandRejectsUnknownTab(t *testing.T) {
	paths := newTestPaths(t)

	_, err := execute(t, NewRefreshCmd(testOpener(paths, newFakeFetcher())), "reports")

	require.Error(t, err)
	assert.Contains(t, apperrors.HintOf(err), "overview")
}

func TestRefreshCommandRejectsTabWithAll(t *testing.T) {
	paths := newTestPaths(t)

	_, err := execute(t, NewRefreshCmd(testOpener(paths, newFakeFetcher())), "--all", "payments")

	require.Error(t, err)
}

type recordingRunner struct {
	model tea.Model
}

func (r *recordingRunner) Run(model tea.Model, attach func(send func(tea.Msg))) error {
	r.model = model
	if attach != nil {
		attach(func(tea.Msg) {})
	}
	return nil
}

func TestRunDashboardBuildsModel(t *testing.T) {
	paths := newTestPaths(t)
	runner := &recordingRunner{}

	err := runDashboard(context.Background(), testOpener(paths, newFakeFetcher()), app.NewClient(runner))

	require.NoError(t, err)
	require.NotNil(t, runner.model)
	assert.Contains(t, runner.model.View(), "סקירה")
}

func TestRunServeStopsWithContext(t *testing.T) {
	paths := newTestPaths(t)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := runServe(ctx, testOpener(paths, newFakeFetcher()), "127.0.0.1:0")

	assert.NoError(t, err)
}

type fakeHistory struct {
	runs    []store.Run
	pruned  []time.Time
	removed int64
	err     error
	closed  bool
}

func (f *fakeHistory) ListRuns(_ context.Context, limit int) ([]store.Run, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && limit < len(f.runs) {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

func (f *fakeHistory) PruneRuns(_ context.Context, cutoff time.Time) (int64, error) {
	f.pruned = append(f.pruned, cutoff)
	return f.removed, nil
}

func (f *fakeHistory) Close() error {
	f.closed = true
	return nil
}

func sampleRuns() []store.Run {
	start := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	return []store.Run{
		{ID: "3", Tab: "overview", StartedAt: start.Add(2 * time.Minute), FinishedAt: start.Add(2*time.Minute + 300*time.Millisecond)},
		{ID: "2", Tab: "payments", StartedAt: start.Add(time.Minute), FinishedAt: start.Add(time.Minute), Error: "quota exceeded"},
		{ID: "1", Tab: "overview", StartedAt: start, FinishedAt: start.Add(time.Second)},
	}
}

func TestHistoryCommandTable(t *testing.T) {
	h := &fakeHistory{runs: sampleRuns()}

	out, err := execute(t, NewHistoryCmd(func() (historyStore, error) { return h, nil }), "--limit", "2")

	require.NoError(t, err)
	assert.True(t, h.closed)
	assert.Contains(t, out, "STARTED")
	assert.Contains(t, out, "300ms")
	assert.Contains(t, out, "quota exceeded")
	assert.Equal(t, 1, strings.Count(out, "overview"))
}

func TestHistoryCommandFailedJSON(t *testing.T) {
	h := &fakeHistory{runs: sampleRuns()}

	out, err := execute(t, NewHistoryCmd(func() (historyStore, error) { return h, nil }), "--failed", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"error": "quota exceeded"`)
	assert.NotContains(t, out, `"overview"`)
}

func TestHistoryCommandEmptyAndPrune(t *testing.T) {
	h := &fakeHistory{removed: 4}

	out, err := execute(t, NewHistoryCmd(func() (historyStore, error) { return h, nil }), "--prune-days", "30")

	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 4 runs")
	assert.Contains(t, out, "No refresh runs recorded")
	require.Len(t, h.pruned, 1)
}

func TestHistoryCommandErrors(t *testing.T) {
	h := &fakeHistory{err: errors.New("disk I/O error")}
	open := func() (historyStore, error) { return h, nil }

	_, err := execute(t, NewHistoryCmd(open))
	require.Error(t, err)

	_, err = execute(t, NewHistoryCmd(open), "--limit", "-1")
	require.Error(t, err)
}

func TestSettingsShow(t *testing.T) {
	paths := newTestPaths(t)
	open := func() (settingsStore, error) { return settings.Open(paths.prefs) }

	out, err := execute(t, NewSettingsCmd(open), "show")

	require.NoError(t, err)
	assert.Contains(t, out, `"autoRefreshEnabled": true`)
	assert.Contains(t, out, `"activeTab": "overview"`)
	assert.Contains(t, out, paths.prefs)
}

func TestSettingsResetForce(t *testing.T) {
	paths := newTestPaths(t)
	prefs, err := settings.Open(paths.prefs)
	require.NoError(t, err)
	require.NoError(t, prefs.SetBool(settings.KeyAutoRefreshEnabled, false))
	open := func() (settingsStore, error) { return settings.Open(paths.prefs) }

	_, err = execute(t, NewSettingsCmd(open), "reset", "--force")

	require.NoError(t, err)
	reloaded, err := settings.Load(paths.prefs)
	require.NoError(t, err)
	assert.True(t, reloaded.AutoRefreshEnabled)
}

func TestConfirmReset(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, confirmReset(strings.NewReader("yes\n"), &out))
	assert.True(t, confirmReset(strings.NewReader("Y"), &out))
	assert.False(t, confirmReset(strings.NewReader("\n"), &out))
	assert.False(t, confirmReset(strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "(y/N)")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, NewVersionCmd())

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "sirkin version "))
}

func TestPrintHelpText(t *testing.T) {
	root := NewRootCmd(testOpener(newTestPaths(t), newFakeFetcher()))
	root.Version = "0.1.0"

	var buf bytes.Buffer
	printHelpText(root, &buf)
	output := buf.String()

	assert.Contains(t, output, "sirkin v0.1.0")
	assert.Contains(t, output, "USAGE:")
	for _, name := range commandOrder {
		assert.Contains(t, output, name)
	}
	assert.Less(t, strings.Index(output, "dashboard"), strings.Index(output, "serve"))
}
