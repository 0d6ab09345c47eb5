package core

import (
	"sort"
	"strings"
)

// Whitelist is an immutable set of setting keys considered relevant to staleness.
// Keys outside the whitelist are ignored by staleness checks even if they changed remotely.
type Whitelist struct {
	keys map[string]struct{}
}

// NewWhitelist creates a Whitelist from the given keys. Blank keys are ignored.
func NewWhitelist(keys ...string) Whitelist {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		set[k] = struct{}{}
	}
	return Whitelist{keys: set}
}

// Contains reports whether key is watched.
func (w Whitelist) Contains(key string) bool {
	_, ok := w.keys[key]
	return ok
}

// Keys returns the watched keys in ascending order.
func (w Whitelist) Keys() []string {
	keys := make([]string, 0, len(w.keys))
	for k := range w.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of watched keys.
func (w Whitelist) Len() int { return len(w.keys) }

// Filter returns the subset of settings whose keys are watched.
// The result is never nil.
func (w Whitelist) Filter(settings map[string]string) map[string]string {
	out := make(map[string]string)
	for k, v := range settings {
		if w.Contains(k) {
			out[k] = v
		}
	}
	return out
}

// Union returns a new whitelist containing the keys of both.
func (w Whitelist) Union(other Whitelist) Whitelist {
	keys := append(w.Keys(), other.Keys()...)
	return NewWhitelist(keys...)
}

// moduleWatchedKeys are the module-level settings that affect analysis scope.
var moduleWatchedKeys = []string{
	SettingInclusions,
	SettingExclusions,
	SettingTestInclusions,
	SettingTestExclusions,
}

// globalWatchedKeys are the global settings that affect analysis outcomes.
// Language file suffix keys are added from the language table.
var globalWatchedKeys = []string{
	SettingInclusions,
	SettingExclusions,
	SettingTestInclusions,
	SettingTestExclusions,
	"sonar.cpd.exclusions",
	"sonar.coverage.exclusions",
}

// DefaultGlobalWhitelist returns the global whitelist for the given language table.
func DefaultGlobalWhitelist(languages LanguageTable) Whitelist {
	keys := append([]string(nil), globalWatchedKeys...)
	for _, lang := range languages.All() {
		if lang.SuffixSetting != "" {
			keys = append(keys, lang.SuffixSetting)
		}
	}
	return NewWhitelist(keys...)
}

// DefaultModuleWhitelist returns the module whitelist.
func DefaultModuleWhitelist() Whitelist {
	return NewWhitelist(moduleWatchedKeys...)
}
