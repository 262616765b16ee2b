// Package version reports build information for the sirkin dashboard.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the release version. Overridden at build time using ldflags.
var Version = "development"

// Commit is the git commit hash. Overridden at build time using ldflags.
var Commit = "unknown"

// Date is the build date. Overridden at build time using ldflags.
var Date = ""

// String returns the version, suffixed with the commit when known.
func String() string {
	if Commit != "unknown" && Commit != "" {
		return Version + "+" + Commit
	}
	return Version
}

// Full returns String plus the build date and Go version when available.
func Full() string {
	s := String()
	if Date != "" {
		s = fmt.Sprintf("%s (built %s)", s, Date)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.GoVersion != "" {
		s = fmt.Sprintf("%s %s", s, info.GoVersion)
	}
	return s
}
