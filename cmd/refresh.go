/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	apperrors "github.com/Sirkin25/sirkin-dashboard-sub000/internal/errors"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/ledger"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/settings"
	"github.com/spf13/cobra"
)

const refreshCommandLong = `Refresh one tab, or every tab, and print the result.

USAGE:
    sirkin refresh [TAB] [OPTIONS]

TABS:
    overview, expenses, payments, apartments (default: last active tab)

OPTIONS:
    --all    Refresh every tab

EXAMPLES:
    # Refresh the payments tab
    sirkin refresh payments

    # Refresh everything
    sirkin refresh --all`

// NewRefreshCmd creates the refresh command.
func NewRefreshCmd(open depsOpener) *cobra.Command {
	var all bool
	refreshCmd := &cobra.Command{
		Use:   "refresh [tab]",
		Short: "Refresh dashboard data once",
		Long:  refreshCommandLong,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return fmt.Errorf("refresh: --all cannot be combined with a tab")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runRefresh(ctx, cmd.OutOrStdout(), open, args, all)
		},
	}
	refreshCmd.Flags().BoolVar(&all, "all", false, "Refresh every tab")
	return refreshCmd
}

func runRefresh(ctx context.Context, w io.Writer, open depsOpener, args []string, all bool) error {
	var tabs []settings.Tab
	switch {
	case all:
		tabs = settings.AllTabs()
	case len(args) == 1:
		tab := settings.Tab(strings.ToLower(strings.TrimSpace(args[0])))
		if !tab.IsValid() {
			return apperrors.WithHint(fmt.Errorf("refresh: unknown tab %q", args[0]), "valid tabs: "+tabNames())
		}
		tabs = []settings.Tab{tab}
	}

	d, err := open(ctx, depsOptions{})
	if err != nil {
		return err
	}
	defer d.Close()

	if len(tabs) == 0 {
		tabs = []settings.Tab{d.prefs.ActiveTab()}
	}

	var failed []string
	for _, tab := range tabs {
		start := time.Now()
		if err := d.coord.RefreshTab(ctx, string(tab)); err != nil {
			fmt.Fprintf(w, "✗ %-10s %v\n", tab, err)
			failed = append(failed, string(tab))
			continue
		}
		fmt.Fprintf(w, "✓ %-10s %s\n", tab, time.Since(start).Round(time.Millisecond))
	}

	sum := d.service.Summary(time.Now())
	fmt.Fprintf(w, "\n%s: balance %s, expenses %s, collected %s of %s\n",
		ledger.FormatMonth(sum.Month),
		ledger.FormatShekels(sum.Balance),
		ledger.FormatShekels(sum.TotalExpenses),
		ledger.FormatShekels(sum.Collected),
		ledger.FormatShekels(sum.Expected),
	)

	if len(failed) > 0 {
		return fmt.Errorf("refresh failed for %s", strings.Join(failed, ", "))
	}
	return nil
}

func tabNames() string {
	names := make([]string, 0, len(settings.AllTabs()))
	for _, tab := range settings.AllTabs() {
		names = append(names, string(tab))
	}
	return strings.Join(names, ", ")
}
