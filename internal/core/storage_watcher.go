package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// defaultWatchDebounce coalesces the burst of events produced by one sync.
const defaultWatchDebounce = 500 * time.Millisecond

// StorageWatcher reloads a SnapshotStore when another process rewrites its records.
type StorageWatcher struct {
	store    SnapshotStore
	logger   *zap.SugaredLogger
	debounce time.Duration
}

// NewStorageWatcher creates a StorageWatcher. debounce <= 0 uses the default delay.
func NewStorageWatcher(store SnapshotStore, debounce time.Duration, logger *zap.SugaredLogger) *StorageWatcher {
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &StorageWatcher{store: store, debounce: debounce, logger: logger}
}

// Watch blocks until ctx is done. After each burst of record changes it reloads the store and
// calls onChange with the reload error, if any. Temp files of in-flight writes are ignored.
func (w *StorageWatcher) Watch(ctx context.Context, onChange func(reloadErr error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	root := w.store.Root()
	modulesDir := filepath.Join(root, ModulesDir)
	for _, dir := range []string{root, modulesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.logger.Infow("Watching storage", "root", root)

	var (
		mu            sync.Mutex
		debounceTimer *time.Timer
	)
	defer func() {
		mu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		mu.Unlock()
	}()

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		err := w.store.Reload()
		if err != nil {
			w.logger.Warnw("Storage reload failed", "root", root, "error", err)
		} else {
			w.logger.Debugw("Storage reloaded", "root", root)
		}
		if onChange != nil {
			onChange(err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isRecordEvent(event) {
				continue
			}
			mu.Lock()
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, fire)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("Watch error", "error", err)
		}
	}
}

// isRecordEvent reports whether event touches a committed record file.
func isRecordEvent(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
