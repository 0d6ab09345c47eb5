// Package purl renders Package URLs (https://github.com/package-url/purl-spec) for server plugins.
package purl

import (
	"net/url"
	"sort"
	"strings"
)

type Type string

// TypeGeneric is used because server plugins have no registered PURL type.
const TypeGeneric Type = "generic"

// PluginNamespace is the namespace of every plugin PURL.
const PluginNamespace = "sonar-plugin"

type PURL struct {
	Type       Type
	Namespace  string
	Name       string
	Version    string
	Qualifiers map[string]string
	Subpath    string
}

// String returns "" when Type or Name is missing. Qualifier keys are lowercased and sorted.
func (p *PURL) String() string {
	if p.Type == "" || p.Name == "" {
		return ""
	}

	segments := []string{string(p.Type)}
	if p.Namespace != "" {
		segments = append(segments, url.PathEscape(p.Namespace))
	}
	segments = append(segments, url.PathEscape(p.Name))
	out := "pkg:" + strings.Join(segments, "/")

	if p.Version != "" {
		out += "@" + url.PathEscape(p.Version)
	}
	if q := p.encodeQualifiers(); q != "" {
		out += "?" + q
	}
	if sub := strings.Trim(p.Subpath, "/"); sub != "" {
		out += "#" + sub
	}
	return out
}

func (p *PURL) encodeQualifiers() string {
	if len(p.Qualifiers) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(p.Qualifiers))
	for k, v := range p.Qualifiers {
		pairs = append(pairs, url.QueryEscape(strings.ToLower(k))+"="+url.QueryEscape(v))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}

// FromPlugin builds the PURL of plugin key@version installed on serverURL.
// An absolute serverURL, stripped of credentials, query and fragment, becomes repository_url.
func FromPlugin(serverURL, key, version string) *PURL {
	p := &PURL{Type: TypeGeneric, Namespace: PluginNamespace, Name: key, Version: version}

	u, err := url.Parse(strings.TrimSpace(serverURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return p
	}
	repo := url.URL{Scheme: u.Scheme, Host: u.Host, Path: strings.TrimSuffix(u.Path, "/")}
	p.Qualifiers = map[string]string{"repository_url": repo.String()}
	return p
}
