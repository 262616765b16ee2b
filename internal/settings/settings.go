// Package settings persists dashboard preferences to a TOML file in the
// config directory.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Preference keys.
const (
	KeyAutoRefreshEnabled = "autoRefreshEnabled"
	KeyActiveTab          = "activeTab"
)

const (
	fileModeDir  os.FileMode = 0755
	fileModeFile os.FileMode = 0644
)

// ErrInvalidKey is returned for preference keys the store does not know.
var ErrInvalidKey = errors.New("unknown preference key")

// Preferences holds user preferences persisted to disk.
//
// File format:
//
//	autoRefreshEnabled = true
//	activeTab = "overview"
type Preferences struct {
	AutoRefreshEnabled bool   `toml:"autoRefreshEnabled"`
	ActiveTab          string `toml:"activeTab"`
}

// Default returns the preferences used when no file exists.
func Default() *Preferences {
	return &Preferences{
		AutoRefreshEnabled: true,
		ActiveTab:          string(DefaultTab()),
	}
}

// Validate rejects values the dashboard cannot use.
func Validate(p *Preferences) error {
	if p == nil {
		return fmt.Errorf("preferences cannot be nil")
	}
	if p.ActiveTab != "" && !Tab(p.ActiveTab).IsValid() {
		return fmt.Errorf("invalid activeTab value: %s", p.ActiveTab)
	}
	return nil
}

// Load reads preferences from path. A missing file yields the defaults;
// missing fields keep their default values.
func Load(path string) (*Preferences, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences file: %w", err)
	}

	p := Default()
	if err := toml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse preferences file: %w", err)
	}
	if err := Validate(p); err != nil {
		return nil, fmt.Errorf("invalid preferences: %w", err)
	}
	if p.ActiveTab == "" {
		p.ActiveTab = string(DefaultTab())
	}
	return p, nil
}

// Save validates p and writes it to path, creating the directory if needed.
func Save(path string, p *Preferences) error {
	if err := Validate(p); err != nil {
		return fmt.Errorf("invalid preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), fileModeDir); err != nil {
		return fmt.Errorf("create preferences directory: %w", err)
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	if err := os.WriteFile(path, data, fileModeFile); err != nil {
		return fmt.Errorf("write preferences file: %w", err)
	}
	return nil
}
