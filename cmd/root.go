/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/config"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/logging"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/version"
	"github.com/spf13/cobra"
)

const rootDescription = "Terminal dashboard for the building committee's finances."

// RootCmd represents the base command when called without any subcommands.
var RootCmd = NewRootCmd(openDeps)

// NewRootCmd builds the command tree around open.
func NewRootCmd(open depsOpener) *cobra.Command {
	root := &cobra.Command{
		Use:           "sirkin",
		Short:         rootDescription,
		Long:          rootDescription,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.Load()
			return logging.InitGlobal()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return logging.ShutdownGlobal()
		},
	}
	root.CompletionOptions.HiddenDefaultCmd = true
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != cmd.Root() {
			fmt.Fprintln(cmd.OutOrStdout(), cmd.UsageString())
			return
		}
		printHelpText(cmd, cmd.OutOrStdout())
	})

	root.AddCommand(
		NewDashboardCmd(open),
		NewServeCmd(open),
		NewRefreshCmd(open),
		NewHistoryCmd(openHistoryStore),
		NewSettingsCmd(openSettingsStore),
		NewVersionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

var commandOrder = []string{
	"dashboard",
	"serve",
	"refresh",
	"history",
	"settings",
	"version",
}

func printHelpText(cmd *cobra.Command, w io.Writer) {
	var cmdLines []string
	for _, name := range commandOrder {
		var found *cobra.Command
		for _, c := range cmd.Commands() {
			if c.Name() == name {
				found = c
				break
			}
		}
		if found == nil {
			continue
		}
		cmdLines = append(cmdLines, fmt.Sprintf("    %-16s %s", found.Use, found.Short))
	}

	fmt.Fprintf(w, `sirkin v%s

%s

USAGE:
    sirkin [COMMAND] [OPTIONS]

COMMANDS:
%s

OPTIONS:
    -h, --help      Show help message

CONFIGURATION:
    ~/.config/sirkin/config.toml, overridden by SIRKIN_* environment variables.
`, cmd.Version, rootDescription, strings.Join(cmdLines, "\n"))
}
