/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/autorefresh"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/clock"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/config"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/dashboard"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/environment"
	apperrors "github.com/Sirkin25/sirkin-dashboard-sub000/internal/errors"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/logging"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/refresh"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/settings"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/sheets"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/store"
)

// depsOptions tunes how the dependency graph is built. Zero values fall back
// to the loaded configuration.
type depsOptions struct {
	fetcher   dashboard.Fetcher
	dbPath    string
	prefsPath string
	probeURL  string
	clock     clock.Clock
	headless  bool

	onRefreshChange   refresh.Listener
	onSchedulerChange func(autorefresh.Status)
}

// deps is the wired application: data service, coordinator, scheduler and
// the stores behind them.
type deps struct {
	store     *store.Store
	prefs     *settings.Store
	service   *dashboard.Service
	coord     *refresh.Coordinator
	monitor   *environment.Monitor
	scheduler *autorefresh.Scheduler
	prober    *environment.Prober
	logger    logging.Logger

	cleanups []func()
}

// depsOpener builds deps for a command. Tests swap it for a fake fetcher and
// temporary paths.
type depsOpener func(ctx context.Context, opts depsOptions) (*deps, error)

// openDeps wires every component. The scheduler is created but not started.
func openDeps(ctx context.Context, opts depsOptions) (*deps, error) {
	logger := logging.GetGlobal()
	if opts.clock == nil {
		opts.clock = clock.Real()
	}
	if opts.dbPath == "" {
		opts.dbPath = config.Get("db_path", "")
	}
	if opts.prefsPath == "" {
		opts.prefsPath = settings.DefaultPath()
	}

	d := &deps{logger: logger}

	st, err := store.Open(opts.dbPath)
	if err != nil {
		return nil, apperrors.WithHint(err, "check db_path in config.toml or SIRKIN_DB_PATH")
	}
	d.store = st
	d.cleanups = append(d.cleanups, func() {
		if err := st.Close(); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
	})

	prefs, err := settings.Open(opts.prefsPath)
	if err != nil {
		d.Close()
		return nil, apperrors.WithHint(err, "run 'sirkin settings reset' to restore defaults")
	}
	d.prefs = prefs

	fetcher := opts.fetcher
	if fetcher == nil {
		sheetID := config.Get("sheet_id", "")
		if sheetID == "" {
			d.Close()
			return nil, apperrors.WithHint(sheets.ErrNoSheetID, "set sheet_id in config.toml or SIRKIN_SHEET_ID")
		}
		client := sheets.NewClient(sheets.Config{
			BaseURL:           config.Get("sheet_base_url", sheets.DefaultBaseURL),
			SheetID:           sheetID,
			RequestsPerSecond: config.GetFloat("sheet_requests_per_second", sheets.DefaultRequestsPerSecond),
			Logger:            logger.With("component", "sheets"),
		})
		fetcher = client
		if opts.probeURL == "" {
			opts.probeURL = client.Host()
		}
	}

	d.service = dashboard.New(fetcher,
		dashboard.WithClock(opts.clock),
		dashboard.WithLogger(logger.With("component", "dashboard")),
		dashboard.WithCache(st),
		dashboard.WithSheetNames(sheetNamesFromConfig()),
	)
	if err := d.service.LoadCached(ctx); err != nil {
		logger.Warn("cached data could not be restored", "error", err)
	}

	d.coord = refresh.NewCoordinator(
		refresh.WithClock(opts.clock),
		refresh.WithLogger(logger.With("component", "refresh")),
		refresh.WithMinInterval(config.GetDuration("min_refresh_interval_ms", time.Millisecond, refresh.DefaultMinInterval)),
		refresh.WithOperationTimeout(config.GetDuration("operation_timeout_ms", time.Millisecond, refresh.DefaultOperationTimeout)),
		refresh.WithNotifyDebounce(config.GetDuration("notify_debounce_ms", time.Millisecond, refresh.DefaultNotifyDebounce)),
	)
	d.cleanups = append(d.cleanups, d.coord.Close)
	d.service.Wire(d.coord)
	d.cleanups = append(d.cleanups, d.service.RecordRuns(d.coord))
	d.coord.SetActiveTab(string(prefs.ActiveTab()))

	d.monitor = environment.NewMonitor(opts.clock, config.GetDuration("idle_timeout_seconds", time.Second, environment.DefaultIdleTimeout))
	d.cleanups = append(d.cleanups, d.monitor.Close)

	d.scheduler = autorefresh.New(d.coord, d.monitor, prefs,
		autorefresh.WithClock(opts.clock),
		autorefresh.WithLogger(logger.With("component", "autorefresh")),
		autorefresh.WithInterval(config.GetDuration("refresh_interval_ms", time.Millisecond, autorefresh.DefaultInterval)),
		autorefresh.WithRetryDelay(config.GetDuration("retry_delay_ms", time.Millisecond, autorefresh.DefaultRetryDelay)),
		autorefresh.WithMaxRetries(config.GetInt("max_retries", autorefresh.DefaultMaxRetries)),
		autorefresh.WithPolicy(policyFromConfig(opts.headless)),
		autorefresh.WithContext(ctx),
		autorefresh.WithOnChange(opts.onSchedulerChange),
	)
	d.cleanups = append(d.cleanups, d.scheduler.Close)

	onRefresh := opts.onRefreshChange
	d.cleanups = append(d.cleanups, d.coord.Subscribe(func(s refresh.State) {
		if onRefresh != nil {
			onRefresh(s)
		}
		d.scheduler.Reevaluate()
	}))
	d.monitor.OnChange(func(autorefresh.Signals) { d.scheduler.Reevaluate() })

	if opts.probeURL != "" {
		d.prober = environment.NewProber(opts.probeURL, d.monitor, nil,
			config.GetDuration("probe_interval_seconds", time.Second, environment.DefaultProbeInterval),
			logger.With("component", "prober"))
	}
	return d, nil
}

// Close tears everything down in reverse order of construction.
func (d *deps) Close() {
	for i := len(d.cleanups) - 1; i >= 0; i-- {
		d.cleanups[i]()
	}
	d.cleanups = nil
}

// runProber probes connectivity until ctx is done. Without a prober it
// returns immediately.
func (d *deps) runProber(ctx context.Context) error {
	if d.prober == nil {
		return nil
	}
	return d.prober.Run(ctx)
}

// policyFromConfig reads the pause switches. Headless runs have no screen
// and no keyboard, so hidden and idle never pause them.
func policyFromConfig(headless bool) autorefresh.Policy {
	p := autorefresh.DefaultPolicy()
	p.PauseWhenHidden = config.GetBool("pause_when_hidden", true) && !headless
	p.PauseWhenOffline = config.GetBool("pause_when_offline", true)
	p.PauseWhenIdle = config.GetBool("pause_when_idle", true) && !headless
	return p
}

func sheetNamesFromConfig() dashboard.SheetNames {
	names := dashboard.SheetNames{}
	for _, kind := range dashboard.Kinds() {
		names[kind] = config.Get(fmt.Sprintf("sheet_%s", kind), "")
	}
	return names
}
