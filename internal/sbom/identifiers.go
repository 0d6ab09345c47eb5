// Package sbom holds the identifiers shared by the CycloneDX and SPDX plugin inventories.
package sbom

import (
	"strings"
	"time"
)

const (
	// SPDXDocumentID is the element id of the document itself.
	SPDXDocumentID = "DOCUMENT"
	// DefaultSPDXNamespace prefixes document namespaces when no base URL is given.
	DefaultSPDXNamespace = "https://spdx.org/spdxdocs"
	// DefaultServerName replaces a blank server id.
	DefaultServerName = "unknown-server"
)

// PluginIdentity is one plugin as reported by the server.
type PluginIdentity struct {
	Key     string
	Version string
}

// GenerateBOMRef returns "key@version", or the bare key when the version is unknown.
func GenerateBOMRef(p PluginIdentity) string {
	if p.Version == "" {
		return p.Key
	}
	return p.Key + "@" + p.Version
}

// GenerateSPDXID returns the package element id without the SPDXRef- prefix.
// Plugin keys are unique on a server, so the version is left out.
func GenerateSPDXID(p PluginIdentity) string {
	return "Package-" + SanitizeSPDXID(p.Key)
}

func FormatSPDXRef(elementID string) string { return "SPDXRef-" + elementID }

// SanitizeSPDXID replaces every rune outside [a-zA-Z0-9.-] with '-'.
func SanitizeSPDXID(s string) string {
	if s == "" {
		return "unknown"
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// SyncComment describes the sync that captured a plugin list. Empty fields are skipped.
func SyncComment(serverVersion, syncID string, capturedAt time.Time) string {
	fields := make([]string, 0, 3)
	add := func(k, v string) {
		if v != "" {
			fields = append(fields, k+"="+v)
		}
	}
	add("server_version", serverVersion)
	add("sync_id", syncID)
	if !capturedAt.IsZero() {
		add("captured_at", capturedAt.UTC().Format(time.RFC3339))
	}
	return strings.Join(fields, ", ")
}

func ValidateServerName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return DefaultServerName
}

// BuildSPDXNamespace returns baseURL/serverName/uuid with serverName sanitized.
func BuildSPDXNamespace(baseURL, serverName, uuid string) string {
	if baseURL == "" {
		baseURL = DefaultSPDXNamespace
	}
	return strings.TrimRight(baseURL, "/") + "/" + SanitizeSPDXID(serverName) + "/" + uuid
}
