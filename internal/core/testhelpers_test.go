package core

import (
	"testing"
	"time"

	"github.com/EmundoT/connected-lint/internal/types"
	"github.com/golang/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// setupMocks creates the remote source and analyzer mocks
func setupMocks(t *testing.T) (*gomock.Controller, *MockRemoteConfigSource, *MockAnalyzer) {
	ctrl := gomock.NewController(t)
	return ctrl, NewMockRemoteConfigSource(ctrl), NewMockAnalyzer(ctrl)
}

// newObservedLogger returns a debug-level logger whose entries can be asserted on
func newObservedLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	obsCore, logs := observer.New(zapcore.DebugLevel)
	return zap.New(obsCore).Sugar(), logs
}

// newTestStore opens an empty FileSnapshotStore in a temp dir
func newTestStore(t *testing.T) *FileSnapshotStore {
	t.Helper()
	store, err := NewFileSnapshotStore(t.TempDir(), "test-server", nil)
	if err != nil {
		t.Fatalf("NewFileSnapshotStore() error = %v", err)
	}
	return store
}

var testTime = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

func digest(key, name, lang string, isDefault bool, rules ...string) types.ProfileDigest {
	return types.ProfileDigest{
		ProfileKey:        key,
		ProfileName:       name,
		Language:          lang,
		IsDefault:         isDefault,
		ActivatedRuleKeys: rules,
	}
}

// testGlobalSnapshot returns a snapshot with one default Java profile and one JS profile
func testGlobalSnapshot() *types.GlobalSnapshot {
	java := digest("java-way", "Sonar way", "java", true, "java:S1135", "java:S100")
	js := digest("js-way", "Sonar way", "js", true, "javascript:S1135")
	return &types.GlobalSnapshot{
		ServerVersion: "9.9.1",
		CapturedAt:    testTime,
		SyncID:        "sync-1",
		Settings: map[string]string{
			SettingInclusions:           "",
			SettingExclusions:           "",
			"sonar.java.file.suffixes":  ".java",
			"sonar.core.serverBaseURL":  "https://sonar.example.com",
			"sonar.unwatched.something": "x",
		},
		QualityProfilesByLanguage: map[string]types.ProfileDigest{"java": java, "js": js},
		QualityProfiles:           map[string]types.ProfileDigest{"java-way": java, "js-way": js},
		PluginVersions:            map[string]string{"java": "7.16.0", "javascript": "10.1.0"},
		Modules:                   map[string]string{"my-project": "My Project"},
		Rules: map[string]types.RuleDetails{
			"java:S1135":       {Key: "java:S1135", Name: "Track uses of TODO tags", Language: "java", Severity: "INFO"},
			"java:S100":        {Key: "java:S100", Name: "Method names", Language: "java", Severity: "MINOR"},
			"javascript:S1135": {Key: "javascript:S1135", Name: "Track uses of TODO tags", Language: "js", Severity: "INFO"},
		},
	}
}

func testModuleSnapshot(key string) *types.ModuleSnapshot {
	return &types.ModuleSnapshot{
		ModuleKey:          key,
		CapturedAt:         testTime,
		SyncID:             "sync-1",
		Settings:           map[string]string{SettingExclusions: "**/generated/**"},
		QualityProfileKeys: map[string]string{"java": "java-way"},
	}
}

// seedStore writes a global snapshot and the given modules
func seedStore(t *testing.T, store SnapshotStore, global *types.GlobalSnapshot, modules ...*types.ModuleSnapshot) {
	t.Helper()
	if global != nil {
		if err := store.Put(global); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}
	for _, m := range modules {
		if err := store.PutModule(m.ModuleKey, m); err != nil {
			t.Fatalf("PutModule(%s) error = %v", m.ModuleKey, err)
		}
	}
}
