package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/EmundoT/connected-lint/internal/types"
	"go.uber.org/zap"
)

// StalenessDetectorInterface defines the contract for checking whether storage needs an update
// via lightweight remote queries (whitelisted settings and profile digests only).
type StalenessDetectorInterface interface {
	CheckGlobal(ctx context.Context, source RemoteConfigSource) (types.UpdateCheckResult, error)
	CheckModule(ctx context.Context, source RemoteConfigSource, moduleKey string) (types.UpdateCheckResult, error)
}

// Compile-time interface satisfaction check.
var _ StalenessDetectorInterface = (*StalenessDetector)(nil)

// StalenessDetector compares a lightweight remote view against stored snapshots.
// It never mutates storage.
type StalenessDetector struct {
	store         SnapshotStore
	globalWatched Whitelist
	moduleWatched Whitelist
	languages     LanguageTable
	logger        *zap.SugaredLogger
}

// NewStalenessDetector creates a StalenessDetector with independent global and module whitelists.
func NewStalenessDetector(store SnapshotStore, globalWatched, moduleWatched Whitelist, languages LanguageTable, logger *zap.SugaredLogger) *StalenessDetector {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &StalenessDetector{
		store:         store,
		globalWatched: globalWatched,
		moduleWatched: moduleWatched,
		languages:     languages,
		logger:        logger,
	}
}

// CheckGlobal reports whether the global storage is stale.
// Settings changes come first in the changelog, then profile changes ordered by language name.
func (d *StalenessDetector) CheckGlobal(ctx context.Context, source RemoteConfigSource) (types.UpdateCheckResult, error) {
	stored := d.store.Get()
	if stored == nil {
		return types.UpdateCheckResult{}, NewPreconditionFailedError("check global storage", "storage was never updated")
	}

	settings, err := source.FetchGlobalSettings(ctx, d.globalWatched.Keys()...)
	if err != nil {
		return types.UpdateCheckResult{}, &RemoteUnavailableError{Cause: fmt.Errorf("fetch global settings: %w", err)}
	}
	profiles, err := source.FetchQualityProfiles(ctx, "")
	if err != nil {
		return types.UpdateCheckResult{}, &RemoteUnavailableError{Cause: fmt.Errorf("fetch quality profiles: %w", err)}
	}

	changelog := newChangelog()
	if !sameSettings(d.globalWatched.Filter(stored.Settings), d.globalWatched.Filter(settings)) {
		changelog.add(ChangelogGlobalSettings)
	}
	for _, entry := range d.profileChanges(stored.QualityProfiles, profiles) {
		changelog.add(entry)
	}

	result := changelog.result()
	d.logger.Debugw("Global storage check", "needs_update", result.NeedsUpdate, "changelog", result.Changelog)
	return result, nil
}

// CheckModule reports whether the storage of one module is stale.
// Only module-level whitelisted settings are compared; global changes never affect the result.
func (d *StalenessDetector) CheckModule(ctx context.Context, source RemoteConfigSource, moduleKey string) (types.UpdateCheckResult, error) {
	stored := d.store.GetModule(moduleKey)
	if stored == nil {
		return types.UpdateCheckResult{}, NewPreconditionFailedError(
			fmt.Sprintf("check storage of module '%s'", moduleKey), "module was never updated")
	}

	settings, err := source.FetchModuleSettings(ctx, moduleKey, d.moduleWatched.Keys()...)
	if err != nil {
		return types.UpdateCheckResult{}, &RemoteUnavailableError{Cause: fmt.Errorf("fetch settings of module %s: %w", moduleKey, err)}
	}

	changelog := newChangelog()
	if !sameSettings(d.moduleWatched.Filter(stored.Settings), d.moduleWatched.Filter(settings)) {
		changelog.add(ChangelogProjectSettings)
	}

	result := changelog.result()
	d.logger.Debugw("Module storage check", "module", moduleKey, "needs_update", result.NeedsUpdate)
	return result, nil
}

// profileChanges compares stored profiles (keyed by profile key) with fetched digests.
// Changed, added and removed profiles each produce one entry, sorted by language name then profile name.
func (d *StalenessDetector) profileChanges(stored map[string]types.ProfileDigest, fetched []types.ProfileDigest) []string {
	current := make(map[string]types.ProfileDigest, len(fetched))
	for _, p := range fetched {
		if _, dup := current[p.ProfileKey]; dup {
			continue
		}
		current[p.ProfileKey] = p
	}

	var changed []types.ProfileDigest
	for key, old := range stored {
		now, ok := current[key]
		if !ok || !old.SameRules(now) {
			changed = append(changed, old)
		}
	}
	for key, now := range current {
		if _, ok := stored[key]; !ok {
			changed = append(changed, now)
		}
	}

	sort.Slice(changed, func(i, j int) bool {
		li, lj := d.languages.DisplayName(changed[i].Language), d.languages.DisplayName(changed[j].Language)
		if li != lj {
			return li < lj
		}
		return changed[i].ProfileName < changed[j].ProfileName
	})

	entries := make([]string, 0, len(changed))
	for _, p := range changed {
		entries = append(entries, fmt.Sprintf(changelogProfileFmt, p.ProfileName, d.languages.DisplayName(p.Language)))
	}
	return entries
}

// sameSettings is an unordered (key, value) set equality.
func sameSettings(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if other, ok := b[k]; !ok || other != v {
			return false
		}
	}
	return true
}

// changelog accumulates deduplicated entries in insertion order.
type changelog struct {
	seen    map[string]struct{}
	entries []string
}

func newChangelog() *changelog {
	return &changelog{seen: map[string]struct{}{}}
}

func (c *changelog) add(entry string) {
	if _, dup := c.seen[entry]; dup {
		return
	}
	c.seen[entry] = struct{}{}
	c.entries = append(c.entries, entry)
}

func (c *changelog) result() types.UpdateCheckResult {
	entries := c.entries
	if entries == nil {
		entries = []string{}
	}
	return types.UpdateCheckResult{NeedsUpdate: len(entries) > 0, Changelog: entries}
}
