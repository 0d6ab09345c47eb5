package core

import (
	"context"
	"fmt"
	"net/http"

	"github.com/EmundoT/connected-lint/internal/types"
	"go.uber.org/zap"
)

// EngineOptions configures a ConnectedEngine.
type EngineOptions struct {
	Config types.EngineConfig

	// Source defaults to a WSClient for Config.Server.
	Source RemoteConfigSource
	// Analyzer is required for Analyze only.
	Analyzer   Analyzer
	HTTPClient *http.Client
	Logger     *zap.SugaredLogger
	UI         UICallback
}

// ConnectedEngine provides the main API for connected-mode operations.
// It delegates to the storage, staleness, sync and analysis components.
type ConnectedEngine struct {
	config      types.EngineConfig
	source      RemoteConfigSource
	store       SnapshotStore
	state       *StorageStateMachine
	detector    *StalenessDetector
	coordinator *SyncCoordinator
	dispatcher  *AnalysisDispatcher
	inventory   *InventoryGenerator
	languages   LanguageTable
	logger      *zap.SugaredLogger
	ui          UICallback
}

// NewConnectedEngine wires an engine from opts and loads the existing storage.
func NewConnectedEngine(opts EngineOptions) (*ConnectedEngine, error) {
	cfg := opts.Config
	ApplyConfigDefaults(&cfg)

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ui := opts.UI
	if ui == nil {
		ui = &SilentUICallback{}
	}

	source := opts.Source
	if source == nil {
		client, err := NewWSClient(cfg.Server, opts.HTTPClient, logger.Named("ws"))
		if err != nil {
			return nil, err
		}
		source = client
	}

	store, err := NewFileSnapshotStore(cfg.StorageRoot, cfg.Server.ID, logger.Named("storage"))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	languages := LanguageTableFromConfig(cfg)
	globalWatched, moduleWatched := WhitelistsFromConfig(cfg, languages)
	state := NewStorageStateMachine(store, logger.Named("state"))

	return &ConnectedEngine{
		config:      cfg,
		source:      source,
		store:       store,
		state:       state,
		detector:    NewStalenessDetector(store, globalWatched, moduleWatched, languages, logger.Named("check")),
		coordinator: NewSyncCoordinator(store, state, cfg.Server.Credentials(), cfg.SyncTimeout, logger.Named("sync")),
		dispatcher:  NewAnalysisDispatcher(store, opts.Analyzer, languages, logger.Named("analysis")),
		inventory:   NewInventoryGenerator(store, cfg.Server.ID, cfg.Server.URL),
		languages:   languages,
		logger:      logger,
		ui:          ui,
	}, nil
}

// State returns the current storage state.
func (e *ConnectedEngine) State() types.StorageState {
	return e.state.CurrentState()
}

// GlobalStorageStatus describes the global storage, or nil when it was never updated.
func (e *ConnectedEngine) GlobalStorageStatus() *types.StorageStatus {
	return e.state.GlobalStatus()
}

// ModuleStorageStatus describes the storage of a module, or nil when it was never updated.
func (e *ConnectedEngine) ModuleStorageStatus(moduleKey string) *types.StorageStatus {
	return e.state.ModuleStatus(moduleKey)
}

// LastError returns the error of the most recent failed update, if any.
func (e *ConnectedEngine) LastError() error {
	return e.state.LastError()
}

// Update performs a full global sync.
func (e *ConnectedEngine) Update(ctx context.Context) (*types.GlobalSnapshot, error) {
	return e.coordinator.SyncGlobal(ctx, e.source)
}

// UpdateModule performs a full sync of one module. The global storage must exist.
func (e *ConnectedEngine) UpdateModule(ctx context.Context, moduleKey string) (*types.ModuleSnapshot, error) {
	return e.coordinator.SyncModule(ctx, e.source, moduleKey)
}

// CheckIfGlobalStorageNeedUpdate runs a cheap staleness check of the global storage.
// Storage is never modified; a positive result is reflected by State until the next update.
func (e *ConnectedEngine) CheckIfGlobalStorageNeedUpdate(ctx context.Context) (types.UpdateCheckResult, error) {
	result, err := e.detector.CheckGlobal(ctx, e.source)
	if err != nil {
		return result, err
	}
	e.state.MarkNeedsUpdate(result.NeedsUpdate)
	return result, nil
}

// CheckIfModuleStorageNeedUpdate runs a cheap staleness check of one module's storage.
func (e *ConnectedEngine) CheckIfModuleStorageNeedUpdate(ctx context.Context, moduleKey string) (types.UpdateCheckResult, error) {
	return e.detector.CheckModule(ctx, e.source, moduleKey)
}

// AllModulesByKey returns the module list stored by the last global sync.
func (e *ConnectedEngine) AllModulesByKey() map[string]string {
	global := e.store.Get()
	if global == nil {
		return map[string]string{}
	}
	return cloneStringMap(global.Modules)
}

// DownloadAllModules refreshes the stored module list from the server.
func (e *ConnectedEngine) DownloadAllModules(ctx context.Context) (map[string]string, error) {
	return e.coordinator.DownloadAllModules(ctx, e.source)
}

// ListRemoteModules enumerates remote modules without touching storage.
func (e *ConnectedEngine) ListRemoteModules(ctx context.Context) (map[string]string, error) {
	return e.coordinator.ListRemoteModules(ctx, e.source)
}

// UpdatedModuleKeys returns the keys of every module with stored configuration.
func (e *ConnectedEngine) UpdatedModuleKeys() []string {
	return e.store.ListModuleKeys()
}

// RuleDetails returns the stored details of an activated rule.
func (e *ConnectedEngine) RuleDetails(ruleKey string) (types.RuleDetails, error) {
	global := e.store.Get()
	if global == nil {
		return types.RuleDetails{}, NewPreconditionFailedError("get rule details", "storage was never updated")
	}
	rule, ok := global.Rules[ruleKey]
	if !ok {
		return types.RuleDetails{}, &RuleNotFoundError{Key: ruleKey}
	}
	return rule, nil
}

// Analyze runs an analysis from local storage only. Workers defaults to the configured value.
func (e *ConnectedEngine) Analyze(ctx context.Context, req AnalysisRequest, listener IssueListener) (*types.AnalysisResults, error) {
	if e.dispatcher.analyzer == nil {
		return nil, NewPreconditionFailedError("analyze", "no analyzer is configured")
	}
	if req.Workers == 0 {
		req.Workers = e.config.Analysis.Workers
	}
	return e.dispatcher.Analyze(ctx, req, listener)
}

// Inventory renders the plugins of the stored server as a bill of materials.
func (e *ConnectedEngine) Inventory(format InventoryFormat) ([]byte, error) {
	return e.inventory.Generate(format)
}

// Watch reloads storage when another process updates it, until ctx is done.
func (e *ConnectedEngine) Watch(ctx context.Context, onChange func(reloadErr error)) error {
	return NewStorageWatcher(e.store, 0, e.logger.Named("watch")).Watch(ctx, onChange)
}

// Purge deletes the storage of the configured server after confirmation.
// It returns false when the user declined.
func (e *ConnectedEngine) Purge() (bool, error) {
	if !e.ui.IsAutoApprove() && !e.ui.AskConfirmation("Delete local storage?",
		fmt.Sprintf("All synchronized configuration in %s will be removed.", e.store.Root())) {
		return false, nil
	}
	if err := e.store.Invalidate(); err != nil {
		return false, err
	}
	e.state.MarkNeedsUpdate(false)
	e.logger.Infow("Storage purged", "root", e.store.Root())
	return true, nil
}

// Helper returns server operations that do not touch storage. It fails when the
// configured source does not expose them.
func (e *ConnectedEngine) Helper() (*WSHelper, error) {
	admin, ok := e.source.(ServerAdmin)
	if !ok {
		return nil, NewPreconditionFailedError("server administration", "the configured source does not support it")
	}
	return NewWSHelper(admin, e.config.Server.Credentials()), nil
}

// StorageRoot returns the directory holding this server's records.
func (e *ConnectedEngine) StorageRoot() string {
	return e.store.Root()
}

// Languages returns the effective language table.
func (e *ConnectedEngine) Languages() LanguageTable {
	return e.languages
}
