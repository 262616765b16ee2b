/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package cmd

import (
	"context"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/tui/app"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/tui/state"
	"github.com/spf13/cobra"
)

const dashboardCommandLong = `Open the interactive dashboard.

USAGE:
    sirkin dashboard

KEY BINDINGS:
    tab, ←           Next tab
    shift+tab, →     Previous tab
    r                Refresh now
    p                Pause or resume auto-refresh
    a                Turn auto-refresh on or off
    x                Reset failed attempts
    q                Quit`

// NewDashboardCmd creates the dashboard command.
func NewDashboardCmd(open depsOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive dashboard",
		Long:  dashboardCommandLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd.Context(), open, app.NewClient(nil))
		},
	}
}

func runDashboard(ctx context.Context, open depsOpener, client *app.Client) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bridge := app.NewBridge()
	d, err := open(ctx, depsOptions{
		onRefreshChange:   bridge.RefreshChanged,
		onSchedulerChange: bridge.SchedulerChanged,
	})
	if err != nil {
		return err
	}
	defer d.Close()

	go func() {
		if err := d.runProber(ctx); err != nil {
			d.logger.Warn("connectivity prober stopped", "error", err)
		}
	}()

	model, err := state.NewModel(state.Deps{
		Coordinator: d.coord,
		Scheduler:   d.scheduler,
		Activity:    d.monitor,
		Data:        d.service,
		Tabs:        d.prefs,
		InitialTab:  d.prefs.ActiveTab(),
		Context:     ctx,
	})
	if err != nil {
		return err
	}

	d.scheduler.Start()
	return client.Run(model, bridge)
}
