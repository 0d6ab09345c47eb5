package core

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/EmundoT/connected-lint/internal/types"
	"go.uber.org/zap"
)

// SnapshotStore persists the last synchronized global and module snapshots.
// Reads return nil when nothing is stored; absence is a normal state.
type SnapshotStore interface {
	Put(snapshot *types.GlobalSnapshot) error
	Get() *types.GlobalSnapshot
	PutModule(key string, snapshot *types.ModuleSnapshot) error
	GetModule(key string) *types.ModuleSnapshot
	ListModuleKeys() []string
	Reload() error
	Invalidate() error
	Root() string
}

// Compile-time interface satisfaction check.
var _ SnapshotStore = (*FileSnapshotStore)(nil)

// storeView is an immutable in-memory image of the storage.
// A new view is built for every write and swapped in atomically.
type storeView struct {
	global  *types.GlobalSnapshot
	modules map[string]*types.ModuleSnapshot
}

// FileSnapshotStore implements SnapshotStore with one JSON record per snapshot under a
// per-server directory. Readers use a copy-on-write view and never block; writers are serialized.
type FileSnapshotStore struct {
	root   string
	logger *zap.SugaredLogger

	mu   sync.Mutex // serializes writers
	view atomic.Pointer[storeView]
}

// NewFileSnapshotStore opens the storage for serverID under storageRoot and loads what is on disk.
func NewFileSnapshotStore(storageRoot, serverID string, logger *zap.SugaredLogger) (*FileSnapshotStore, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if serverID == "" {
		serverID = DefaultServerID
	}
	s := &FileSnapshotStore{
		root:   filepath.Join(storageRoot, sanitizeFilename(serverID)),
		logger: logger,
	}
	s.view.Store(&storeView{modules: map[string]*types.ModuleSnapshot{}})
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Root returns the per-server storage directory
func (s *FileSnapshotStore) Root() string {
	return s.root
}

func (s *FileSnapshotStore) globalRecord() *RecordStore[types.GlobalSnapshot] {
	return NewRecordStore[types.GlobalSnapshot](filepath.Join(s.root, GlobalRecordFile))
}

func (s *FileSnapshotStore) moduleRecord(key string) *RecordStore[types.ModuleSnapshot] {
	return NewRecordStore[types.ModuleSnapshot](filepath.Join(s.root, ModulesDir, moduleFilename(key)))
}

// Put atomically replaces the global snapshot.
func (s *FileSnapshotStore) Put(snapshot *types.GlobalSnapshot) error {
	if snapshot == nil {
		return errors.New("put global snapshot: nil snapshot")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := snapshot.Clone()
	if err := s.globalRecord().Save(stored); err != nil {
		return fmt.Errorf("persist global snapshot: %w", err)
	}

	old := s.view.Load()
	s.view.Store(&storeView{global: stored, modules: old.modules})
	return nil
}

// Get returns a copy of the global snapshot, or nil when storage was never updated.
func (s *FileSnapshotStore) Get() *types.GlobalSnapshot {
	return s.view.Load().global.Clone()
}

// PutModule atomically replaces the snapshot of one module.
func (s *FileSnapshotStore) PutModule(key string, snapshot *types.ModuleSnapshot) error {
	if key == "" {
		return errors.New("put module snapshot: empty module key")
	}
	if snapshot == nil {
		return fmt.Errorf("put module snapshot %s: nil snapshot", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := snapshot.Clone()
	stored.ModuleKey = key
	if err := s.moduleRecord(key).Save(stored); err != nil {
		return fmt.Errorf("persist module snapshot %s: %w", key, err)
	}

	old := s.view.Load()
	modules := make(map[string]*types.ModuleSnapshot, len(old.modules)+1)
	for k, v := range old.modules {
		modules[k] = v
	}
	modules[key] = stored
	s.view.Store(&storeView{global: old.global, modules: modules})
	return nil
}

// GetModule returns a copy of a module snapshot, or nil when the module was never synced.
func (s *FileSnapshotStore) GetModule(key string) *types.ModuleSnapshot {
	return s.view.Load().modules[key].Clone()
}

// ListModuleKeys returns the keys of all stored modules in ascending order.
func (s *FileSnapshotStore) ListModuleKeys() []string {
	view := s.view.Load()
	keys := make([]string, 0, len(view.modules))
	for k := range view.modules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reload rebuilds the in-memory view from disk. Corrupted records are treated as absent.
func (s *FileSnapshotStore) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	global, err := s.globalRecord().Load()
	if err != nil {
		if !errors.Is(err, ErrStorageCorrupted) {
			return fmt.Errorf("load global snapshot: %w", err)
		}
		s.logger.Warnw("Ignoring corrupted global snapshot", "path", s.globalRecord().Path(), "error", err)
		global = nil
	}

	modules := map[string]*types.ModuleSnapshot{}
	entries, err := os.ReadDir(filepath.Join(s.root, ModulesDir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("list module snapshots: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.root, ModulesDir, entry.Name())
		mod, err := NewRecordStore[types.ModuleSnapshot](path).Load()
		if err != nil {
			if errors.Is(err, ErrStorageCorrupted) {
				s.logger.Warnw("Ignoring corrupted module snapshot", "path", path, "error", err)
				continue
			}
			return fmt.Errorf("load module snapshot %s: %w", entry.Name(), err)
		}
		if mod == nil || mod.ModuleKey == "" {
			continue
		}
		modules[mod.ModuleKey] = mod
	}

	s.view.Store(&storeView{global: global, modules: modules})
	s.logger.Debugw("Storage loaded", "root", s.root, "global", global != nil, "modules", len(modules))
	return nil
}

// Invalidate deletes every record of this server. Used by explicit maintenance only.
func (s *FileSnapshotStore) Invalidate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("remove storage %s: %w", s.root, err)
	}
	s.view.Store(&storeView{modules: map[string]*types.ModuleSnapshot{}})
	return nil
}

// moduleFilename derives a collision-free file name for a module key.
func moduleFilename(key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s-%s.json", sanitizeFilename(key), hex.EncodeToString(sum[:4]))
}

// sanitizeFilename replaces invalid filename characters with underscores
func sanitizeFilename(s string) string {
	result := []rune{}
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '.' {
			result = append(result, r)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}
