package core

import (
	"errors"
	"sync"

	"github.com/EmundoT/connected-lint/internal/types"
	"go.uber.org/zap"
)

// StorageStateMachine tracks the top-level state of the storage.
//
// The persisted part of the state is derived from the global snapshot record: no record
// means NEVER_UPDATED, a valid record means UPDATED. Completing a sync is therefore a single
// atomic record replacement, and a crash mid-sync leaves the previous state intact.
// UPDATING and NEED_UPDATE are in-memory only.
type StorageStateMachine struct {
	store  SnapshotStore
	logger *zap.SugaredLogger

	mu          sync.Mutex
	updating    bool
	needsUpdate bool
	lastErr     error
}

// NewStorageStateMachine creates a state machine over store.
func NewStorageStateMachine(store SnapshotStore, logger *zap.SugaredLogger) *StorageStateMachine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &StorageStateMachine{store: store, logger: logger}
}

// CurrentState returns the current storage state.
func (m *StorageStateMachine) CurrentState() types.StorageState {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.updating:
		return types.StateUpdating
	case m.store.Get() == nil:
		return types.StateNeverUpdated
	case m.needsUpdate:
		return types.StateNeedUpdate
	default:
		return types.StateUpdated
	}
}

// RecordSyncStarted marks a full sync as in progress.
func (m *StorageStateMachine) RecordSyncStarted() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updating {
		return NewPreconditionFailedError("start update", "another update of this storage is in progress")
	}
	m.updating = true
	m.lastErr = nil
	return nil
}

// RecordSyncCompleted persists snapshot and flips the state to UPDATED.
// If persisting fails the previous snapshot and state are kept.
func (m *StorageStateMachine) RecordSyncCompleted(snapshot *types.GlobalSnapshot) error {
	if snapshot == nil {
		err := errors.New("complete update: nil snapshot")
		m.RecordSyncFailed(err)
		return err
	}
	if err := m.store.Put(snapshot); err != nil {
		m.RecordSyncFailed(err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.updating = false
	m.needsUpdate = false
	m.lastErr = nil
	m.logger.Infow("Storage updated", "server_version", snapshot.ServerVersion, "sync_id", snapshot.SyncID)
	return nil
}

// RecordSyncFailed ends an in-progress sync without touching storage.
func (m *StorageStateMachine) RecordSyncFailed(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updating = false
	m.lastErr = err
	m.logger.Warnw("Storage update failed", "error", err)
}

// MarkNeedsUpdate records the outcome of a staleness check. The flag is cleared by the next
// successful sync and is never persisted.
func (m *StorageStateMachine) MarkNeedsUpdate(needsUpdate bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.needsUpdate = needsUpdate
}

// LastError returns the error of the most recent failed sync, if any.
func (m *StorageStateMachine) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// GlobalStatus describes the persisted global storage, or returns nil when there is none.
func (m *StorageStateMachine) GlobalStatus() *types.StorageStatus {
	g := m.store.Get()
	if g == nil {
		return nil
	}
	return &types.StorageStatus{
		ServerVersion: g.ServerVersion,
		LastUpdate:    g.CapturedAt,
		SyncID:        g.SyncID,
	}
}

// ModuleStatus describes the persisted storage of one module, or returns nil when there is none.
func (m *StorageStateMachine) ModuleStatus(moduleKey string) *types.StorageStatus {
	mod := m.store.GetModule(moduleKey)
	if mod == nil {
		return nil
	}
	status := &types.StorageStatus{
		LastUpdate: mod.CapturedAt,
		SyncID:     mod.SyncID,
	}
	if g := m.store.Get(); g != nil {
		status.ServerVersion = g.ServerVersion
	}
	return status
}
