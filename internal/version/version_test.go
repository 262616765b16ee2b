package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func setVersion(t *testing.T, version, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, Commit, Date
	t.Cleanup(func() {
		Version, Commit, Date = origVersion, origCommit, origDate
	})
	Version, Commit, Date = version, commit, date
}

func TestString(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		commit   string
		expected string
	}{
		{name: "development version without commit", version: "development", commit: "unknown", expected: "development"},
		{name: "release version with commit", version: "1.0.0", commit: "abc1234", expected: "1.0.0+abc1234"},
		{name: "empty commit shows only version", version: "2.0.0", commit: "", expected: "2.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setVersion(t, tt.version, tt.commit, "")
			assert.Equal(t, tt.expected, String())
		})
	}
}

func TestFullIncludesBuildDate(t *testing.T) {
	setVersion(t, "1.2.0", "abc1234", "2026-03-01")

	full := Full()

	assert.True(t, strings.HasPrefix(full, "1.2.0+abc1234 (built 2026-03-01)"), full)
}

func TestFullWithoutDate(t *testing.T) {
	setVersion(t, "1.2.0", "unknown", "")

	assert.True(t, strings.HasPrefix(Full(), "1.2.0"))
	assert.NotContains(t, Full(), "built")
}
