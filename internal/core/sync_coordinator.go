package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/EmundoT/connected-lint/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentRuleFetches bounds the per-profile rule fetches of one sync.
const maxConcurrentRuleFetches = 4

// SyncCoordinatorInterface defines the contract for full storage updates.
type SyncCoordinatorInterface interface {
	SyncGlobal(ctx context.Context, source RemoteConfigSource) (*types.GlobalSnapshot, error)
	SyncModule(ctx context.Context, source RemoteConfigSource, moduleKey string) (*types.ModuleSnapshot, error)
	ListRemoteModules(ctx context.Context, source RemoteConfigSource) (map[string]string, error)
}

// Compile-time interface satisfaction check.
var _ SyncCoordinatorInterface = (*SyncCoordinator)(nil)

// SyncCoordinator performs full updates: fetch everything, persist, transition state.
// Storage-mutating operations are all-or-nothing and serialized per storage root.
type SyncCoordinator struct {
	store   SnapshotStore
	state   *StorageStateMachine
	creds   types.Credentials
	timeout time.Duration
	logger  *zap.SugaredLogger
	now     func() time.Time

	mu sync.Mutex // serializes writers of this storage root
}

// NewSyncCoordinator creates a SyncCoordinator. timeout <= 0 disables the sync deadline.
func NewSyncCoordinator(store SnapshotStore, state *StorageStateMachine, creds types.Credentials, timeout time.Duration, logger *zap.SugaredLogger) *SyncCoordinator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SyncCoordinator{
		store:   store,
		state:   state,
		creds:   creds,
		timeout: timeout,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// withTimeout applies the configured sync deadline.
func (c *SyncCoordinator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// SyncGlobal fetches the full global configuration and replaces the global snapshot.
// On any failure the previous snapshot and state are left untouched.
func (c *SyncCoordinator) SyncGlobal(ctx context.Context, source RemoteConfigSource) (*types.GlobalSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.state.RecordSyncStarted(); err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	snapshot, err := c.fetchGlobal(ctx, source)
	if err != nil {
		err = c.classify(ctx, "update", err)
		c.state.RecordSyncFailed(err)
		return nil, err
	}

	if err := c.state.RecordSyncCompleted(snapshot); err != nil {
		return nil, err
	}
	return snapshot.Clone(), nil
}

// fetchGlobal downloads everything a global snapshot holds.
func (c *SyncCoordinator) fetchGlobal(ctx context.Context, source RemoteConfigSource) (*types.GlobalSnapshot, error) {
	if err := source.Authenticate(ctx, c.creds); err != nil {
		return nil, err
	}

	var (
		serverVersion string
		settings      map[string]string
		profiles      []types.ProfileDigest
		plugins       map[string]string
		modules       map[string]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		serverVersion, err = source.FetchServerVersion(gctx)
		return wrapFetch("server version", err)
	})
	g.Go(func() (err error) {
		settings, err = source.FetchGlobalSettings(gctx)
		return wrapFetch("global settings", err)
	})
	g.Go(func() (err error) {
		profiles, err = source.FetchQualityProfiles(gctx, "")
		return wrapFetch("quality profiles", err)
	})
	g.Go(func() (err error) {
		plugins, err = source.FetchPluginVersions(gctx)
		return wrapFetch("plugin versions", err)
	})
	g.Go(func() (err error) {
		modules, err = source.EnumerateModules(gctx)
		return wrapFetch("modules", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	digests, rules, err := c.fetchRules(ctx, source, profiles)
	if err != nil {
		return nil, err
	}

	snapshot := &types.GlobalSnapshot{
		ServerVersion:             serverVersion,
		CapturedAt:                c.now(),
		SyncID:                    uuid.New().String(),
		Settings:                  nonNilStrings(settings),
		QualityProfiles:           make(map[string]types.ProfileDigest, len(digests)),
		QualityProfilesByLanguage: make(map[string]types.ProfileDigest),
		PluginVersions:            nonNilStrings(plugins),
		Modules:                   nonNilStrings(modules),
		Rules:                     rules,
	}
	for _, d := range digests {
		snapshot.QualityProfiles[d.ProfileKey] = d
		if d.IsDefault {
			snapshot.QualityProfilesByLanguage[d.Language] = d
		}
	}
	return snapshot, nil
}

// fetchRules downloads the active rules of every profile. The digest rule keys are rebuilt
// from the full activation data so the stored digest matches what analysis will use.
func (c *SyncCoordinator) fetchRules(ctx context.Context, source RemoteConfigSource, profiles []types.ProfileDigest) ([]types.ProfileDigest, map[string]types.RuleDetails, error) {
	results := make([][]types.RuleDetails, len(profiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRuleFetches)
	for i, p := range profiles {
		i, p := i, p
		g.Go(func() error {
			rules, err := source.FetchActiveRules(gctx, p.ProfileKey)
			if err != nil {
				return wrapFetch(fmt.Sprintf("active rules of profile '%s'", p.ProfileName), err)
			}
			results[i] = rules
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	digests := make([]types.ProfileDigest, 0, len(profiles))
	rules := make(map[string]types.RuleDetails)
	for i, p := range profiles {
		keys := make([]string, 0, len(results[i]))
		for _, r := range results[i] {
			keys = append(keys, r.Key)
			rules[r.Key] = r
		}
		p.ActivatedRuleKeys = keys
		digests = append(digests, p.Normalized())
	}
	return digests, rules, nil
}

// SyncModule fetches the configuration of one module and replaces its snapshot.
// It requires a prior successful SyncGlobal.
func (c *SyncCoordinator) SyncModule(ctx context.Context, source RemoteConfigSource, moduleKey string) (*types.ModuleSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	global := c.store.Get()
	if global == nil {
		return nil, NewPreconditionFailedError(
			fmt.Sprintf("update module '%s'", moduleKey),
			"global storage was never updated")
	}
	if _, known := global.Modules[moduleKey]; !known {
		c.logger.Debugw("Module not in stored module list", "module", moduleKey)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	snapshot, err := c.fetchModule(ctx, source, moduleKey)
	if err != nil {
		return nil, c.classify(ctx, fmt.Sprintf("update of module %s", moduleKey), err)
	}

	if err := c.store.PutModule(moduleKey, snapshot); err != nil {
		return nil, err
	}
	c.logger.Infow("Module storage updated", "module", moduleKey, "sync_id", snapshot.SyncID)
	return snapshot.Clone(), nil
}

func (c *SyncCoordinator) fetchModule(ctx context.Context, source RemoteConfigSource, moduleKey string) (*types.ModuleSnapshot, error) {
	if err := source.Authenticate(ctx, c.creds); err != nil {
		return nil, err
	}

	settings, err := source.FetchModuleSettings(ctx, moduleKey)
	if err != nil {
		return nil, wrapFetch("module settings", err)
	}
	profiles, err := source.FetchModuleProfiles(ctx, moduleKey)
	if err != nil {
		return nil, wrapFetch("module quality profiles", err)
	}

	profileKeys := make(map[string]string, len(profiles))
	for _, p := range profiles {
		profileKeys[p.Language] = p.ProfileKey
	}
	return &types.ModuleSnapshot{
		ModuleKey:          moduleKey,
		CapturedAt:         c.now(),
		SyncID:             uuid.New().String(),
		Settings:           nonNilStrings(settings),
		QualityProfileKeys: profileKeys,
	}, nil
}

// ListRemoteModules enumerates remote modules without touching storage.
func (c *SyncCoordinator) ListRemoteModules(ctx context.Context, source RemoteConfigSource) (map[string]string, error) {
	modules, err := source.EnumerateModules(ctx)
	if err != nil {
		return nil, c.classify(ctx, "module listing", err)
	}
	return nonNilStrings(modules), nil
}

// DownloadAllModules refreshes the module list of the global snapshot and returns it.
// Only the module list changes; the snapshot is still replaced as a whole.
func (c *SyncCoordinator) DownloadAllModules(ctx context.Context, source RemoteConfigSource) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	global := c.store.Get()
	if global == nil {
		return nil, NewPreconditionFailedError("download modules", "global storage was never updated")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := source.Authenticate(ctx, c.creds); err != nil {
		return nil, c.classify(ctx, "module download", err)
	}
	modules, err := source.EnumerateModules(ctx)
	if err != nil {
		return nil, c.classify(ctx, "module download", err)
	}

	global.Modules = nonNilStrings(modules)
	if err := c.store.Put(global); err != nil {
		return nil, err
	}
	return cloneStringMap(global.Modules), nil
}

// classify maps a failure to the error taxonomy. Unauthorized is returned verbatim;
// a deadline or cancellation becomes a TransportError.
func (c *SyncCoordinator) classify(ctx context.Context, op string, err error) error {
	switch {
	case IsUnauthorized(err):
		return ErrUnauthorized
	case IsTransportError(err), IsUnsupportedServer(err), IsPreconditionFailed(err):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), ctx.Err() != nil:
		return NewTransportError(op, err)
	default:
		return err
	}
}

func wrapFetch(what string, err error) error {
	if err == nil {
		return nil
	}
	if IsUnauthorized(err) {
		return err
	}
	return fmt.Errorf("fetch %s: %w", what, err)
}

func nonNilStrings(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func cloneStringMap(m map[string]string) map[string]string {
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
