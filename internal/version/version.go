// Package version holds build information injected through ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X github.com/EmundoT/connected-lint/internal/version.Version=..." at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// GetVersion returns the release version, or "dev" for local builds.
func GetVersion() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// GetFullVersion returns version with build information
// Format: "v0.3.0 (commit: abc123, built: 2026-01-27T10:30:00Z)"
func GetFullVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", GetVersion(), Commit, Date)
}

// UserAgent is the default User-Agent header of server requests.
func UserAgent() string {
	return fmt.Sprintf("connected-lint/%s (%s; %s)", GetVersion(), runtime.GOOS, runtime.GOARCH)
}
