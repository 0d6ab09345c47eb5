package core

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/EmundoT/connected-lint/internal/types"
	"github.com/golang/mock/gomock"
)

var testCreds = types.Credentials{Token: "squ_token"}

func newTestCoordinator(t *testing.T, store SnapshotStore, timeout time.Duration) (*SyncCoordinator, *StorageStateMachine) {
	t.Helper()
	state := NewStorageStateMachine(store, nil)
	c := NewSyncCoordinator(store, state, testCreds, timeout, nil)
	c.now = func() time.Time { return testTime }
	return c, state
}

// expectFullSync programs a healthy server with a default Java profile, a non-default Java
// profile and a default JS profile.
func expectFullSync(source *MockRemoteConfigSource) {
	expectFullSyncWithSettings(source, syncedGlobalSettings(".java"))
}

// syncedGlobalSettings is the global settings map served by expectFullSync, with the Java suffixes.
func syncedGlobalSettings(javaSuffixes string) map[string]string {
	return map[string]string{
		SettingExclusions:          "**/generated/**",
		"sonar.java.file.suffixes": javaSuffixes,
	}
}

func expectFullSyncWithSettings(source *MockRemoteConfigSource, settings map[string]string) {
	source.EXPECT().Authenticate(gomock.Any(), testCreds).Return(nil)
	source.EXPECT().FetchServerVersion(gomock.Any()).Return("9.9.1", nil)
	source.EXPECT().FetchGlobalSettings(gomock.Any()).Return(settings, nil)
	source.EXPECT().FetchQualityProfiles(gomock.Any(), "").Return([]types.ProfileDigest{
		digest("java-way", "Sonar way", "java", true, "stale:key"),
		digest("java-strict", "Strict", "java", false),
		digest("js-way", "Sonar way", "js", true),
	}, nil)
	source.EXPECT().FetchPluginVersions(gomock.Any()).Return(map[string]string{"java": "7.16.0"}, nil)
	source.EXPECT().EnumerateModules(gomock.Any()).Return(map[string]string{"my-project": "My Project"}, nil)
	source.EXPECT().FetchActiveRules(gomock.Any(), "java-way").Return([]types.RuleDetails{
		{Key: "java:S1135", Name: "TODO tags", Language: "java"},
		{Key: "java:S100", Name: "Method names", Language: "java"},
	}, nil)
	source.EXPECT().FetchActiveRules(gomock.Any(), "java-strict").Return([]types.RuleDetails{
		{Key: "java:S100", Name: "Method names", Language: "java"},
		{Key: "java:S2095", Name: "Resources should be closed", Language: "java"},
	}, nil)
	source.EXPECT().FetchActiveRules(gomock.Any(), "js-way").Return(nil, nil)
}

func TestSyncGlobal_Success(t *testing.T) {
	ctrl, source, _ := setupMocks(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	coordinator, state := newTestCoordinator(t, store, time.Minute)
	expectFullSync(source)

	snapshot, err := coordinator.SyncGlobal(context.Background(), source)
	if err != nil {
		t.Fatalf("SyncGlobal() error = %v", err)
	}

	if state.CurrentState() != types.StateUpdated {
		t.Errorf("state = %s, want UPDATED", state.CurrentState())
	}
	if snapshot.ServerVersion != "9.9.1" || !snapshot.CapturedAt.Equal(testTime) || snapshot.SyncID == "" {
		t.Errorf("unexpected snapshot header: %+v", snapshot)
	}
	if len(snapshot.QualityProfiles) != 3 {
		t.Errorf("expected 3 profiles, got %d", len(snapshot.QualityProfiles))
	}
	if got := snapshot.QualityProfilesByLanguage["java"].ProfileKey; got != "java-way" {
		t.Errorf("default java profile = %q, want java-way", got)
	}
	if got := snapshot.QualityProfiles["java-way"].ActivatedRuleKeys; !reflect.DeepEqual(got, []string{"java:S100", "java:S1135"}) {
		t.Errorf("java-way rule keys = %v, want rebuilt from active rules", got)
	}
	if got := snapshot.QualityProfiles["js-way"].ActivatedRuleKeys; len(got) != 0 {
		t.Errorf("js-way rule keys = %v, want none", got)
	}
	if len(snapshot.Rules) != 3 {
		t.Errorf("expected 3 distinct rules, got %d", len(snapshot.Rules))
	}
	if snapshot.Modules["my-project"] != "My Project" {
		t.Errorf("modules = %v", snapshot.Modules)
	}

	stored := store.Get()
	if stored == nil || stored.SyncID != snapshot.SyncID {
		t.Errorf("stored snapshot does not match returned one")
	}
}

func TestSyncGlobal_Unauthorized(t *testing.T) {
	ctrl, source, _ := setupMocks(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	coordinator, state := newTestCoordinator(t, store, time.Minute)
	source.EXPECT().Authenticate(gomock.Any(), testCreds).Return(ErrUnauthorized)

	_, err := coordinator.SyncGlobal(context.Background(), source)
	if err != ErrUnauthorized {
		t.Fatalf("SyncGlobal() error = %v, want ErrUnauthorized verbatim", err)
	}
	if err.Error() != "Not authorized. Please check server credentials." {
		t.Errorf("message = %q", err.Error())
	}
	if state.CurrentState() != types.StateNeverUpdated {
		t.Errorf("state = %s, want NEVER_UPDATED", state.CurrentState())
	}
	if store.Get() != nil {
		t.Error("failed sync wrote storage")
	}
}

func TestSyncGlobal_UnauthorizedDuringFetch(t *testing.T) {
	ctrl, source, _ := setupMocks(t)
	defer ctrl.Finish()

	coordinator, _ := newTestCoordinator(t, newTestStore(t), time.Minute)
	source.EXPECT().Authenticate(gomock.Any(), testCreds).Return(nil)
	source.EXPECT().FetchServerVersion(gomock.Any()).Return("", ErrUnauthorized).AnyTimes()
	source.EXPECT().FetchGlobalSettings(gomock.Any()).Return(map[string]string{}, nil).AnyTimes()
	source.EXPECT().FetchQualityProfiles(gomock.Any(), "").Return(nil, nil).AnyTimes()
	source.EXPECT().FetchPluginVersions(gomock.Any()).Return(nil, nil).AnyTimes()
	source.EXPECT().EnumerateModules(gomock.Any()).Return(nil, nil).AnyTimes()

	_, err := coordinator.SyncGlobal(context.Background(), source)
	if err != ErrUnauthorized {
		t.Errorf("SyncGlobal() error = %v, want ErrUnauthorized verbatim", err)
	}
}

func TestSyncGlobal_FailureKeepsPreviousSnapshot(t *testing.T) {
	ctrl, source, _ := setupMocks(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	seedStore(t, store, testGlobalSnapshot())
	coordinator, state := newTestCoordinator(t, store, time.Minute)

	source.EXPECT().Authenticate(gomock.Any(), testCreds).Return(nil)
	source.EXPECT().FetchServerVersion(gomock.Any()).Return("10.0", nil).AnyTimes()
	source.EXPECT().FetchGlobalSettings(gomock.Any()).Return(map[string]string{}, nil).AnyTimes()
	source.EXPECT().FetchQualityProfiles(gomock.Any(), "").Return([]types.ProfileDigest{digest("p", "P", "java", true)}, nil).AnyTimes()
	source.EXPECT().FetchPluginVersions(gomock.Any()).Return(map[string]string{}, nil).AnyTimes()
	source.EXPECT().EnumerateModules(gomock.Any()).Return(map[string]string{}, nil).AnyTimes()
	source.EXPECT().FetchActiveRules(gomock.Any(), "p").Return(nil, NewTransportError("GET /api/rules/search", errors.New("502")))

	_, err := coordinator.SyncGlobal(context.Background(), source)
	if !IsTransportError(err) {
		t.Fatalf("SyncGlobal() error = %v, want TransportError", err)
	}
	if got := store.Get(); got == nil || got.SyncID != "sync-1" || got.ServerVersion != "9.9.1" {
		t.Errorf("previous snapshot not preserved: %+v", got)
	}
	if state.CurrentState() != types.StateUpdated {
		t.Errorf("state = %s, want UPDATED", state.CurrentState())
	}
	if !IsTransportError(state.LastError()) {
		t.Errorf("LastError() = %v", state.LastError())
	}
}

func TestSyncGlobal_Timeout(t *testing.T) {
	ctrl, source, _ := setupMocks(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	coordinator, state := newTestCoordinator(t, store, 20*time.Millisecond)

	source.EXPECT().Authenticate(gomock.Any(), testCreds).Return(nil)
	source.EXPECT().FetchServerVersion(gomock.Any()).DoAndReturn(func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	source.EXPECT().FetchGlobalSettings(gomock.Any()).Return(map[string]string{}, nil).AnyTimes()
	source.EXPECT().FetchQualityProfiles(gomock.Any(), "").Return(nil, nil).AnyTimes()
	source.EXPECT().FetchPluginVersions(gomock.Any()).Return(nil, nil).AnyTimes()
	source.EXPECT().EnumerateModules(gomock.Any()).Return(nil, nil).AnyTimes()

	_, err := coordinator.SyncGlobal(context.Background(), source)
	if !IsTransportError(err) {
		t.Fatalf("SyncGlobal() error = %v, want TransportError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("timeout error should wrap DeadlineExceeded: %v", err)
	}
	if state.CurrentState() != types.StateNeverUpdated || store.Get() != nil {
		t.Error("timed-out sync changed storage")
	}
}

func TestSyncGlobal_RecoversAfterNetworkFailure(t *testing.T) {
	ctrl, source, _ := setupMocks(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	coordinator, state := newTestCoordinator(t, store, time.Minute)

	down := NewTransportError("GET /api/authentication/validate", errors.New("connection refused"))
	source.EXPECT().Authenticate(gomock.Any(), testCreds).Return(down)
	if _, err := coordinator.SyncGlobal(context.Background(), source); !IsTransportError(err) {
		t.Fatalf("first SyncGlobal() error = %v, want TransportError", err)
	}
	if state.CurrentState() != types.StateNeverUpdated {
		t.Fatalf("state = %s after failure", state.CurrentState())
	}

	expectFullSync(source)
	if _, err := coordinator.SyncGlobal(context.Background(), source); err != nil {
		t.Fatalf("second SyncGlobal() error = %v", err)
	}
	if state.CurrentState() != types.StateUpdated {
		t.Errorf("state = %s, want UPDATED", state.CurrentState())
	}
	if state.LastError() != nil {
		t.Errorf("LastError() = %v after successful sync", state.LastError())
	}
}

func TestSyncModule_RequiresGlobalStorage(t *testing.T) {
	ctrl, source, _ := setupMocks(t)
	defer ctrl.Finish()

	coordinator, _ := newTestCoordinator(t, newTestStore(t), time.Minute)

	_, err := coordinator.SyncModule(context.Background(), source, "my-project")
	if !IsPreconditionFailed(err) {
		t.Errorf("SyncModule() error = %v, want PreconditionFailedError", err)
	}
}

func TestSyncModule_Success(t *testing.T) {
	ctrl, source, _ := setupMocks(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	seedStore(t, store, testGlobalSnapshot())
	coordinator, _ := newTestCoordinator(t, store, time.Minute)

	source.EXPECT().Authenticate(gomock.Any(), testCreds).Return(nil)
	source.EXPECT().FetchModuleSettings(gomock.Any(), "my-project").Return(map[string]string{SettingExclusions: "**/gen/**"}, nil)
	source.EXPECT().FetchModuleProfiles(gomock.Any(), "my-project").Return([]types.ProfileDigest{
		digest("java-strict", "Strict", "java", false),
	}, nil)

	snapshot, err := coordinator.SyncModule(context.Background(), source, "my-project")
	if err != nil {
		t.Fatalf("SyncModule() error = %v", err)
	}
	if snapshot.QualityProfileKeys["java"] != "java-strict" {
		t.Errorf("profile keys = %v", snapshot.QualityProfileKeys)
	}
	stored := store.GetModule("my-project")
	if stored == nil || stored.Settings[SettingExclusions] != "**/gen/**" {
		t.Errorf("module not stored: %+v", stored)
	}
	if store.Get().SyncID != "sync-1" {
		t.Error("module sync changed the global snapshot")
	}
}

func TestSyncModule_UnknownModuleIsLogged(t *testing.T) {
	ctrl, source, _ := setupMocks(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	seedStore(t, store, testGlobalSnapshot())
	logger, logs := newObservedLogger()
	coordinator := NewSyncCoordinator(store, NewStorageStateMachine(store, nil), testCreds, time.Minute, logger)

	source.EXPECT().Authenticate(gomock.Any(), testCreds).Return(nil)
	source.EXPECT().FetchModuleSettings(gomock.Any(), "new-project").Return(nil, nil)
	source.EXPECT().FetchModuleProfiles(gomock.Any(), "new-project").Return(nil, nil)

	if _, err := coordinator.SyncModule(context.Background(), source, "new-project"); err != nil {
		t.Fatalf("SyncModule() error = %v", err)
	}
	if logs.FilterMessage("Module not in stored module list").Len() != 1 {
		t.Errorf("expected unknown-module debug log, got %v", logs.All())
	}
	if m := store.GetModule("new-project"); m == nil || m.Settings == nil {
		t.Errorf("module snapshot = %+v, want non-nil settings", m)
	}
}

func TestSyncModule_FailureKeepsPreviousModule(t *testing.T) {
	ctrl, source, _ := setupMocks(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	seedStore(t, store, testGlobalSnapshot(), testModuleSnapshot("my-project"))
	coordinator, _ := newTestCoordinator(t, store, time.Minute)

	source.EXPECT().Authenticate(gomock.Any(), testCreds).Return(nil)
	source.EXPECT().FetchModuleSettings(gomock.Any(), "my-project").Return(map[string]string{}, nil)
	source.EXPECT().FetchModuleProfiles(gomock.Any(), "my-project").Return(nil, NewTransportError("GET", errors.New("500")))

	if _, err := coordinator.SyncModule(context.Background(), source, "my-project"); !IsTransportError(err) {
		t.Fatalf("SyncModule() error = %v, want TransportError", err)
	}
	if got := store.GetModule("my-project"); got.Settings[SettingExclusions] != "**/generated/**" {
		t.Errorf("previous module snapshot lost: %+v", got)
	}
}

func TestDownloadAllModules(t *testing.T) {
	ctrl, source, _ := setupMocks(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	seedStore(t, store, testGlobalSnapshot())
	coordinator, _ := newTestCoordinator(t, store, time.Minute)

	source.EXPECT().Authenticate(gomock.Any(), testCreds).Return(nil)
	source.EXPECT().EnumerateModules(gomock.Any()).Return(map[string]string{"a": "A", "b": "B"}, nil)

	modules, err := coordinator.DownloadAllModules(context.Background(), source)
	if err != nil {
		t.Fatalf("DownloadAllModules() error = %v", err)
	}
	if !reflect.DeepEqual(modules, map[string]string{"a": "A", "b": "B"}) {
		t.Errorf("modules = %v", modules)
	}
	stored := store.Get()
	if !reflect.DeepEqual(stored.Modules, modules) {
		t.Errorf("stored modules = %v", stored.Modules)
	}
	if stored.SyncID != "sync-1" || len(stored.Rules) != 3 {
		t.Error("module download changed fields other than the module list")
	}
}

func TestListRemoteModules_DoesNotTouchStorage(t *testing.T) {
	ctrl, source, _ := setupMocks(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	seedStore(t, store, testGlobalSnapshot())
	coordinator, _ := newTestCoordinator(t, store, time.Minute)

	source.EXPECT().EnumerateModules(gomock.Any()).Return(nil, nil)

	modules, err := coordinator.ListRemoteModules(context.Background(), source)
	if err != nil {
		t.Fatal(err)
	}
	if modules == nil || len(modules) != 0 {
		t.Errorf("modules = %#v, want empty map", modules)
	}
	if store.Get().Modules["my-project"] != "My Project" {
		t.Error("listing modules changed storage")
	}
}
