package settings

import (
	"os"
	"path/filepath"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/config"
)

const preferencesFilename = "preferences.toml"

// DefaultPath returns {config_dir}/preferences.toml, honouring the
// preferences_path override.
func DefaultPath() string {
	if override := config.Get("preferences_path", ""); override != "" {
		return override
	}
	return filepath.Join(resolveConfigDir(), preferencesFilename)
}

func resolveConfigDir() string {
	if configDir := config.Get("config_dir", ""); configDir != "" {
		return configDir
	}
	home, _ := os.UserHomeDir()
	xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfigHome == "" {
		xdgConfigHome = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfigHome, "sirkin")
}
