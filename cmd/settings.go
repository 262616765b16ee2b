/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/colors"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/settings"
	"github.com/spf13/cobra"
)

const (
	settingsCommandLong = `Manage dashboard preferences.

USAGE:
    sirkin settings <subcommand>

SUBCOMMANDS:
    reset    Reset preferences to defaults
    show     Display current preferences

EXAMPLES:
    # Reset preferences with confirmation
    sirkin settings reset

    # Reset preferences without confirmation
    sirkin settings reset --force

    # Show current preferences
    sirkin settings show`
	resetCommandLong = `Reset dashboard preferences to defaults.

USAGE:
    sirkin settings reset [OPTIONS]

OPTIONS:
    --force    Reset without confirmation
    -h, --help Show this help`
	showCommandLong = `Display current dashboard preferences in JSON format.

USAGE:
    sirkin settings show`
)

// settingsStore is the part of the preference store the settings command needs.
type settingsStore interface {
	Path() string
	Snapshot() settings.Preferences
	Reset() error
}

func openSettingsStore() (settingsStore, error) {
	return settings.Open(settings.DefaultPath())
}

// NewSettingsCmd creates the settings command.
func NewSettingsCmd(open func() (settingsStore, error)) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage dashboard preferences",
		Long:  settingsCommandLong,
	}
	settingsCmd.AddCommand(newResetCmd(open), newShowCmd(open))
	return settingsCmd
}

func newResetCmd(open func() (settingsStore, error)) *cobra.Command {
	var force bool
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset preferences to defaults",
		Long:  resetCommandLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open()
			if err != nil {
				return fmt.Errorf("failed to load preferences: %w", err)
			}
			return runResetCmd(st, force, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	resetCmd.Flags().BoolVar(&force, "force", false, "Reset without confirmation")
	return resetCmd
}

func newShowCmd(open func() (settingsStore, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current preferences",
		Long:  showCommandLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open()
			if err != nil {
				return fmt.Errorf("failed to load preferences: %w", err)
			}
			return runShowCmd(st, cmd.OutOrStdout())
		},
	}
}

func runResetCmd(st settingsStore, force bool, in io.Reader, out io.Writer) error {
	if !force && os.Getenv("CI") == "" {
		if !confirmReset(in, out) {
			colors.Info("Operation cancelled")
			return nil
		}
	}
	if err := st.Reset(); err != nil {
		return fmt.Errorf("failed to reset preferences: %w", err)
	}
	colors.Success("Preferences reset to defaults")
	return nil
}

type preferencesView struct {
	Path               string `json:"path"`
	AutoRefreshEnabled bool   `json:"autoRefreshEnabled"`
	ActiveTab          string `json:"activeTab"`
}

func runShowCmd(st settingsStore, out io.Writer) error {
	p := st.Snapshot()
	data, err := json.MarshalIndent(preferencesView{
		Path:               st.Path(),
		AutoRefreshEnabled: p.AutoRefreshEnabled,
		ActiveTab:          p.ActiveTab,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// confirmReset asks the user for confirmation before resetting preferences.
func confirmReset(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Are you sure you want to reset all preferences to defaults? (y/N): ")
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}
