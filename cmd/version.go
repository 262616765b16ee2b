/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package cmd

import (
	"fmt"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/version"
	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	var full bool
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show the current version of sirkin.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := version.String()
			if full {
				v = version.Full()
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "sirkin version %s\n", v)
			return err
		},
	}
	versionCmd.Flags().BoolVar(&full, "full", false, "Include build date and Go version")
	return versionCmd
}
