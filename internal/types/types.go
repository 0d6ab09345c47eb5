// Package types defines data structures for connected-lint storage, staleness checks and analysis.
package types

import (
	"sort"
	"time"
)

// StorageState is the top-level state of the local storage.
type StorageState string

// StorageState values.
const (
	StateNeverUpdated StorageState = "NEVER_UPDATED"
	StateUpdating     StorageState = "UPDATING"
	StateUpdated      StorageState = "UPDATED"
	StateNeedUpdate   StorageState = "NEED_UPDATE"
)

// ProfileDigest is a lightweight fingerprint of a quality profile.
// ActivatedRuleKeys has set semantics and is kept sorted.
type ProfileDigest struct {
	ProfileKey              string    `json:"profile_key" yaml:"profile_key"`
	ProfileName             string    `json:"profile_name" yaml:"profile_name"`
	Language                string    `json:"language" yaml:"language"`
	IsDefault               bool      `json:"is_default,omitempty" yaml:"is_default,omitempty"`
	ActivatedRuleKeys       []string  `json:"activated_rule_keys" yaml:"activated_rule_keys"`
	LastActivationTimestamp time.Time `json:"last_activation_timestamp,omitempty" yaml:"last_activation_timestamp,omitempty"`
}

// SameRules reports whether both digests activate exactly the same rule keys.
func (d ProfileDigest) SameRules(other ProfileDigest) bool {
	mine := make(map[string]struct{}, len(d.ActivatedRuleKeys))
	for _, k := range d.ActivatedRuleKeys {
		mine[k] = struct{}{}
	}
	theirs := make(map[string]struct{}, len(other.ActivatedRuleKeys))
	for _, k := range other.ActivatedRuleKeys {
		if _, ok := mine[k]; !ok {
			return false
		}
		theirs[k] = struct{}{}
	}
	return len(mine) == len(theirs)
}

// Normalized returns a copy with deduplicated, sorted rule keys.
func (d ProfileDigest) Normalized() ProfileDigest {
	set := make(map[string]struct{}, len(d.ActivatedRuleKeys))
	keys := make([]string, 0, len(d.ActivatedRuleKeys))
	for _, k := range d.ActivatedRuleKeys {
		if _, dup := set[k]; dup {
			continue
		}
		set[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	d.ActivatedRuleKeys = keys
	return d
}

// RuleDetails describes an activated rule as stored by a full sync.
type RuleDetails struct {
	Key                 string `json:"key"`
	Name                string `json:"name"`
	Language            string `json:"language"`
	Severity            string `json:"severity,omitempty"`
	HTMLDescription     string `json:"html_description,omitempty"`
	ExtendedDescription string `json:"extended_description,omitempty"`
}

// GlobalSnapshot is the last synchronized global configuration.
// A GlobalSnapshot is replaced wholesale on each full sync and never mutated in place.
// QualityProfiles holds every profile keyed by profile key; QualityProfilesByLanguage holds
// the default profile of each language.
type GlobalSnapshot struct {
	ServerVersion             string                   `json:"server_version"`
	CapturedAt                time.Time                `json:"captured_at"`
	SyncID                    string                   `json:"sync_id"`
	Settings                  map[string]string        `json:"settings"`
	QualityProfilesByLanguage map[string]ProfileDigest `json:"quality_profiles_by_language"`
	QualityProfiles           map[string]ProfileDigest `json:"quality_profiles"`
	PluginVersions            map[string]string        `json:"plugin_versions"`
	Modules                   map[string]string        `json:"modules,omitempty"`
	Rules                     map[string]RuleDetails   `json:"rules,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s *GlobalSnapshot) Clone() *GlobalSnapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Settings = cloneStrings(s.Settings)
	c.PluginVersions = cloneStrings(s.PluginVersions)
	c.Modules = cloneStrings(s.Modules)
	c.QualityProfilesByLanguage = cloneDigests(s.QualityProfilesByLanguage)
	c.QualityProfiles = cloneDigests(s.QualityProfiles)
	if s.Rules != nil {
		c.Rules = make(map[string]RuleDetails, len(s.Rules))
		for k, r := range s.Rules {
			c.Rules[k] = r
		}
	}
	return &c
}

// ModuleSnapshot is the last synchronized configuration of one module.
type ModuleSnapshot struct {
	ModuleKey          string            `json:"module_key"`
	CapturedAt         time.Time         `json:"captured_at"`
	SyncID             string            `json:"sync_id"`
	Settings           map[string]string `json:"settings"`
	QualityProfileKeys map[string]string `json:"quality_profile_keys,omitempty"` // language -> profile key
}

// Clone returns a deep copy of the snapshot.
func (s *ModuleSnapshot) Clone() *ModuleSnapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Settings = cloneStrings(s.Settings)
	c.QualityProfileKeys = cloneStrings(s.QualityProfileKeys)
	return &c
}

// StorageStatus describes persisted storage. A nil *StorageStatus means nothing is stored.
// Stale is always false for a persisted snapshot: staleness is computed on demand.
type StorageStatus struct {
	ServerVersion string    `json:"server_version,omitempty"`
	LastUpdate    time.Time `json:"last_update"`
	SyncID        string    `json:"sync_id"`
	Stale         bool      `json:"stale"`
}

// UpdateCheckResult is the outcome of a staleness check.
type UpdateCheckResult struct {
	NeedsUpdate bool     `json:"needs_update"`
	Changelog   []string `json:"changelog"`
}

func cloneDigests(m map[string]ProfileDigest) map[string]ProfileDigest {
	if m == nil {
		return nil
	}
	c := make(map[string]ProfileDigest, len(m))
	for k, d := range m {
		d.ActivatedRuleKeys = append([]string(nil), d.ActivatedRuleKeys...)
		c[k] = d
	}
	return c
}

func cloneStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
