package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
	assert.True(t, p.AutoRefreshEnabled)
	assert.Equal(t, "overview", p.ActiveTab)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "preferences.toml")
	want := &Preferences{AutoRefreshEnabled: false, ActiveTab: "payments"}

	require.NoError(t, Save(path, want))
	got, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.toml")
	require.NoError(t, os.WriteFile(path, []byte("activeTab = \"expenses\"\n"), 0644))

	p, err := Load(path)

	require.NoError(t, err)
	assert.True(t, p.AutoRefreshEnabled)
	assert.Equal(t, "expenses", p.ActiveTab)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("activeTab = [1, 2"), 0644))
	_, err := Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse preferences file")

	invalid := filepath.Join(dir, "invalid.toml")
	require.NoError(t, os.WriteFile(invalid, []byte("activeTab = \"lobby\"\n"), 0644))
	_, err = Load(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid activeTab value: lobby")
}

func TestStoreWritesThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.toml")
	s, err := Open(path)
	require.NoError(t, err)

	assert.True(t, s.GetBool(KeyAutoRefreshEnabled, false))
	require.NoError(t, s.SetBool(KeyAutoRefreshEnabled, false))
	require.NoError(t, s.SetActiveTab(TabApartments))

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.False(t, reopened.GetBool(KeyAutoRefreshEnabled, true))
	assert.Equal(t, TabApartments, reopened.ActiveTab())
}

func TestStoreRejectsUnknownKeysAndTabs(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "preferences.toml"))
	require.NoError(t, err)

	require.ErrorIs(t, s.SetBool("darkMode", true), ErrInvalidKey)
	assert.True(t, s.GetBool("darkMode", true))
	require.Error(t, s.SetActiveTab("lobby"))
	assert.Equal(t, TabOverview, s.ActiveTab())
	assert.NoFileExists(t, s.Path(), "failed updates must not write")
}

func TestStoreReset(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "preferences.toml"))
	require.NoError(t, err)
	require.NoError(t, s.SetBool(KeyAutoRefreshEnabled, false))

	require.NoError(t, s.Reset())

	assert.Equal(t, *Default(), s.Snapshot())
}

func TestDefaultPathUsesConfigDir(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmp, "state"))
	config.Load()

	assert.Equal(t, filepath.Join(tmp, "sirkin", "preferences.toml"), DefaultPath())

	override := filepath.Join(tmp, "elsewhere.toml")
	t.Setenv("SIRKIN_PREFERENCES_PATH", override)
	config.Load()
	assert.Equal(t, override, DefaultPath())
}

func TestNormalizeTab(t *testing.T) {
	assert.Equal(t, TabPayments, NormalizeTab(" Payments "))
	assert.Equal(t, TabOverview, NormalizeTab("unknown"))
	assert.Equal(t, TabOverview, NormalizeTab(""))
	assert.Equal(t, "הוצאות", TabExpenses.Label())
	assert.Len(t, AllTabs(), 4)
}
