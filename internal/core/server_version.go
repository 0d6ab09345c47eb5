package core

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Minimum server versions of optional features.
const (
	MinVersionUserTokens    = "5.4"
	MinVersionOrganizations = "6.3"
)

// ServerVersion is a parsed server version. Servers report up to four numeric segments
// (e.g. "6.7.1.2345"); only the first three take part in comparisons.
type ServerVersion struct {
	raw string
	v   *semver.Version
}

// ParseServerVersion parses a server version string.
func ParseServerVersion(raw string) (ServerVersion, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ServerVersion{}, fmt.Errorf("parse server version: empty version")
	}

	core := trimmed
	suffix := ""
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core, suffix = core[:i], core[i:]
	}
	if parts := strings.Split(core, "."); len(parts) > 3 {
		core = strings.Join(parts[:3], ".")
	}

	v, err := semver.NewVersion(core + suffix)
	if err != nil {
		return ServerVersion{}, fmt.Errorf("parse server version %q: %w", raw, err)
	}
	return ServerVersion{raw: trimmed, v: v}, nil
}

// String returns the version as reported by the server.
func (s ServerVersion) String() string {
	return s.raw
}

// AtLeast reports whether the version is greater than or equal to minVersion.
func (s ServerVersion) AtLeast(minVersion string) bool {
	if s.v == nil {
		return false
	}
	m, err := semver.NewVersion(minVersion)
	if err != nil {
		return false
	}
	return !s.v.LessThan(m)
}

// RequireVersion fails with an UnsupportedServerError when serverVersion is older than minVersion.
func RequireVersion(feature, minVersion, serverVersion string) error {
	v, err := ParseServerVersion(serverVersion)
	if err != nil {
		return err
	}
	if !v.AtLeast(minVersion) {
		return NewUnsupportedServerError(feature, minVersion, serverVersion)
	}
	return nil
}
