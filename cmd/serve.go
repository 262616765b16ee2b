/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/colors"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/config"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/httpapi"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const serveCommandLong = `Run auto-refresh in the background and expose it over HTTP.

USAGE:
    sirkin serve [OPTIONS]

OPTIONS:
    --addr ADDR    Listen address (default: http_addr from config)

ENDPOINTS:
    GET  /api/health
    GET  /api/state
    GET  /api/summary?month=MM/YYYY
    GET  /api/history?limit=N
    POST /api/tabs/:tab/refresh
    POST /api/autorefresh/:action   enable|disable|pause|resume|reset|force`

// NewServeCmd creates the serve command.
func NewServeCmd(open depsOpener) *cobra.Command {
	var addr string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the refresh API with headless auto-refresh",
		Long:  serveCommandLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = config.Get("http_addr", httpapi.DefaultAddr)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, open, addr)
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address")
	return serveCmd
}

func runServe(ctx context.Context, open depsOpener, addr string) error {
	d, err := open(ctx, depsOptions{headless: true})
	if err != nil {
		return err
	}
	defer d.Close()

	pruneHistory(ctx, d)

	server := httpapi.NewServer(httpapi.Config{
		Addr:        addr,
		Coordinator: d.coord,
		Scheduler:   d.scheduler,
		Summary:     d.service,
		History:     d.store,
		Logger:      d.logger.With("component", "httpapi"),
	})

	d.scheduler.Start()
	colors.Info("Serving on http://" + addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(ctx) })
	g.Go(func() error { return d.runProber(ctx) })
	return g.Wait()
}

// pruneHistory drops runs older than history_retention_days. Zero keeps
// everything.
func pruneHistory(ctx context.Context, d *deps) {
	days := config.GetInt("history_retention_days", 90)
	if days <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	removed, err := d.store.PruneRuns(ctx, cutoff)
	if err != nil {
		d.logger.Warn("failed to prune refresh history", "error", err)
		return
	}
	if removed > 0 {
		d.logger.Info("pruned refresh history", "removed", removed, "cutoff", cutoff)
	}
}
