package settings

import (
	"fmt"
	"sync"
)

// Store is a file-backed preference store. Every write is saved immediately.
type Store struct {
	path string

	mu    sync.Mutex
	prefs *Preferences
}

// Open loads the preferences at path.
func Open(path string) (*Store, error) {
	p, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, prefs: p}, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the current preferences.
func (s *Store) Snapshot() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.prefs
}

// GetBool returns a boolean preference, or defaultValue for unknown keys.
func (s *Store) GetBool(key string, defaultValue bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch key {
	case KeyAutoRefreshEnabled:
		return s.prefs.AutoRefreshEnabled
	default:
		return defaultValue
	}
}

// SetBool stores a boolean preference.
func (s *Store) SetBool(key string, value bool) error {
	return s.update(func(p *Preferences) error {
		switch key {
		case KeyAutoRefreshEnabled:
			p.AutoRefreshEnabled = value
			return nil
		default:
			return fmt.Errorf("%w: %s", ErrInvalidKey, key)
		}
	})
}

// ActiveTab returns the last active tab.
func (s *Store) ActiveTab() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NormalizeTab(s.prefs.ActiveTab)
}

// SetActiveTab remembers tab for the next start.
func (s *Store) SetActiveTab(tab Tab) error {
	return s.update(func(p *Preferences) error {
		if !tab.IsValid() {
			return fmt.Errorf("invalid tab: %s", tab)
		}
		p.ActiveTab = string(tab)
		return nil
	})
}

// Reset restores and saves the defaults.
func (s *Store) Reset() error {
	return s.update(func(p *Preferences) error {
		*p = *Default()
		return nil
	})
}

// update applies fn to a copy and commits it only if saving succeeds.
func (s *Store) update(fn func(*Preferences) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := *s.prefs
	if err := fn(&next); err != nil {
		return err
	}
	if err := Save(s.path, &next); err != nil {
		return err
	}
	s.prefs = &next
	return nil
}
