package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/EmundoT/connected-lint/internal/types"
	"github.com/golang/mock/gomock"
)

type recordingProgress struct {
	mu         sync.Mutex
	total      int
	increments []string
	completed  bool
	failed     error
}

func (p *recordingProgress) Increment(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.increments = append(p.increments, message)
}
func (p *recordingProgress) SetTotal(total int) { p.total = total }
func (p *recordingProgress) Complete()          { p.completed = true }
func (p *recordingProgress) Fail(err error)     { p.failed = err }

func issueAt(rule, path string, line int) types.Issue {
	return types.Issue{RuleKey: rule, StartLine: &line, FilePath: &path}
}

func TestAnalysisDispatcher_RequiresStorage(t *testing.T) {
	ctrl, _, analyzer := setupMocks(t)
	defer ctrl.Finish()

	tests := []struct {
		name   string
		seed   bool
		module string
	}{
		{name: "never updated", seed: false},
		{name: "module never updated", seed: true, module: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			if tt.seed {
				seedStore(t, store, testGlobalSnapshot())
			}
			d := NewAnalysisDispatcher(store, analyzer, DefaultLanguageTable(), nil)

			_, err := d.Analyze(context.Background(), AnalysisRequest{ModuleKey: tt.module, Files: []string{"A.java"}}, nil)
			if !IsPreconditionFailed(err) {
				t.Errorf("Analyze() error = %v, want PreconditionFailedError", err)
			}
		})
	}
}

func TestAnalysisDispatcher_SuffixScope(t *testing.T) {
	ctrl, _, analyzer := setupMocks(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	seedStore(t, store, testGlobalSnapshot())
	d := NewAnalysisDispatcher(store, analyzer, DefaultLanguageTable(), nil)

	analyzer.EXPECT().AnalyzeFile(gomock.Any(), "src/Foo.java", gomock.Any()).
		DoAndReturn(func(_ context.Context, path string, bundle *ConfigBundle) (FileAnalysis, error) {
			if len(bundle.ActiveRules["java"]) != 2 {
				t.Errorf("java rules = %v", bundle.ActiveRules["java"])
			}
			return FileAnalysis{Issues: []types.Issue{issueAt("java:S1135", path, 3)}}, nil
		})
	analyzer.EXPECT().AnalyzeFile(gomock.Any(), "web/app.js", gomock.Any()).Return(FileAnalysis{}, nil)

	var got []types.Issue
	results, err := d.Analyze(context.Background(), AnalysisRequest{
		Files: []string{"src/Foo.java", "src/Foo.jav", "README.md", "web/app.js"},
	}, func(i types.Issue) { got = append(got, i) })
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if results.FileCount != 2 {
		t.Errorf("FileCount = %d, want 2", results.FileCount)
	}
	// the stored suffix setting replaces the Java defaults, so .jav is out of scope
	if !reflect.DeepEqual(results.Skipped, []string{"src/Foo.jav", "README.md"}) {
		t.Errorf("Skipped = %v", results.Skipped)
	}
	if results.IssueCount != 1 || len(got) != 1 || got[0].RuleKey != "java:S1135" {
		t.Errorf("issues = %v, count %d", got, results.IssueCount)
	}
	if len(results.FailedAnalysisFiles) != 0 {
		t.Errorf("FailedAnalysisFiles = %v", results.FailedAnalysisFiles)
	}
}

func TestAnalysisDispatcher_ModuleSettingsShadowGlobal(t *testing.T) {
	ctrl, _, analyzer := setupMocks(t)
	defer ctrl.Finish()

	base := t.TempDir()
	store := newTestStore(t)
	seedStore(t, store, testGlobalSnapshot(), testModuleSnapshot("my-project"))
	d := NewAnalysisDispatcher(store, analyzer, DefaultLanguageTable(), nil)

	kept := filepath.Join(base, "src", "Main.java")
	generated := filepath.Join(base, "src", "generated", "Gen.java")
	analyzer.EXPECT().AnalyzeFile(gomock.Any(), kept, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, bundle *ConfigBundle) (FileAnalysis, error) {
			if bundle.Profiles["java"] != "java-way" {
				t.Errorf("java profile = %q", bundle.Profiles["java"])
			}
			if bundle.Settings[SettingExclusions] != "**/generated/**" {
				t.Errorf("module exclusions did not shadow global value")
			}
			return FileAnalysis{}, nil
		})

	results, err := d.Analyze(context.Background(), AnalysisRequest{
		ModuleKey: "my-project",
		BaseDir:   base,
		Files:     []string{kept, generated},
	}, nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if results.FileCount != 1 || !reflect.DeepEqual(results.Skipped, []string{generated}) {
		t.Errorf("FileCount = %d, Skipped = %v", results.FileCount, results.Skipped)
	}
}

func TestAnalysisDispatcher_FailedFilesReportNoIssues(t *testing.T) {
	ctrl, _, analyzer := setupMocks(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	seedStore(t, store, testGlobalSnapshot())
	d := NewAnalysisDispatcher(store, analyzer, DefaultLanguageTable(), nil)

	analyzer.EXPECT().AnalyzeFile(gomock.Any(), "A.java", gomock.Any()).Return(FileAnalysis{}, errors.New("parse error"))
	analyzer.EXPECT().AnalyzeFile(gomock.Any(), "B.java", gomock.Any()).
		Return(FileAnalysis{Failed: true, Issues: []types.Issue{issueAt("java:S100", "B.java", 1)}}, nil)
	analyzer.EXPECT().AnalyzeFile(gomock.Any(), "C.java", gomock.Any()).
		Return(FileAnalysis{Issues: []types.Issue{issueAt("java:S100", "C.java", 7)}}, nil)

	var got []types.Issue
	results, err := d.Analyze(context.Background(), AnalysisRequest{Files: []string{"A.java", "B.java", "C.java"}},
		func(i types.Issue) { got = append(got, i) })
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if !reflect.DeepEqual(results.FailedAnalysisFiles, []string{"A.java", "B.java"}) {
		t.Errorf("FailedAnalysisFiles = %v", results.FailedAnalysisFiles)
	}
	if results.IssueCount != 1 || len(got) != 1 || *got[0].FilePath != "C.java" {
		t.Errorf("issues = %v", got)
	}
	if results.Outcomes[0].Error == "" || results.Outcomes[2].Error != "" {
		t.Errorf("outcomes = %+v", results.Outcomes)
	}
}

func TestAnalysisDispatcher_ParallelDeliveryKeepsInputOrder(t *testing.T) {
	ctrl, _, analyzer := setupMocks(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	seedStore(t, store, testGlobalSnapshot())
	d := NewAnalysisDispatcher(store, analyzer, DefaultLanguageTable(), nil)

	var files []string
	for i := 0; i < 12; i++ {
		files = append(files, fmt.Sprintf("F%02d.java", i))
	}
	analyzer.EXPECT().AnalyzeFile(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, path string, _ *ConfigBundle) (FileAnalysis, error) {
			// earlier files finish later
			var n int
			fmt.Sscanf(path, "F%02d.java", &n)
			time.Sleep(time.Duration(12-n) * time.Millisecond)
			return FileAnalysis{Issues: []types.Issue{issueAt("java:S100", path, n)}}, nil
		}).Times(len(files))

	progress := &recordingProgress{}
	var delivered []string
	results, err := d.Analyze(context.Background(), AnalysisRequest{Files: files, Workers: 4, Progress: progress},
		func(i types.Issue) { delivered = append(delivered, *i.FilePath) })
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if !reflect.DeepEqual(delivered, files) {
		t.Errorf("delivery order = %v, want %v", delivered, files)
	}
	if results.IssueCount != len(files) {
		t.Errorf("IssueCount = %d", results.IssueCount)
	}
	if progress.total != len(files) || !progress.completed || !reflect.DeepEqual(progress.increments, files) {
		t.Errorf("progress = %+v", progress)
	}
}

func TestAnalysisDispatcher_Cancelled(t *testing.T) {
	ctrl, _, analyzer := setupMocks(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	seedStore(t, store, testGlobalSnapshot())
	d := NewAnalysisDispatcher(store, analyzer, DefaultLanguageTable(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	progress := &recordingProgress{}
	results, err := d.Analyze(ctx, AnalysisRequest{Files: []string{"A.java"}, Progress: progress}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Analyze() error = %v, want context.Canceled", err)
	}
	if results == nil || !reflect.DeepEqual(results.FailedAnalysisFiles, []string{"A.java"}) {
		t.Errorf("results = %+v", results)
	}
	if progress.failed == nil {
		t.Error("progress was not failed")
	}
}

func TestBuildBundle_ProfileResolution(t *testing.T) {
	strict := digest("java-strict", "Strict", "java", false, "java:S100", "java:S9999")

	tests := []struct {
		name         string
		profileKey   string
		wantProfile  string
		wantRules    []string
		wantFallback bool
	}{
		{name: "module profile", profileKey: "java-strict", wantProfile: "java-strict", wantRules: []string{"java:S100", "java:S9999"}},
		{name: "missing profile falls back to default", profileKey: "gone", wantProfile: "java-way", wantRules: []string{"java:S1135", "java:S100"}, wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			global := testGlobalSnapshot()
			global.QualityProfiles[strict.ProfileKey] = strict
			module := testModuleSnapshot("my-project")
			module.QualityProfileKeys["java"] = tt.profileKey

			store := newTestStore(t)
			seedStore(t, store, global, module)
			logger, logs := newObservedLogger()
			d := NewAnalysisDispatcher(store, nil, DefaultLanguageTable(), logger)

			bundle, err := d.BuildBundle("my-project")
			if err != nil {
				t.Fatalf("BuildBundle() error = %v", err)
			}
			if bundle.Profiles["java"] != tt.wantProfile {
				t.Errorf("java profile = %q, want %q", bundle.Profiles["java"], tt.wantProfile)
			}
			var keys []string
			for _, r := range bundle.ActiveRules["java"] {
				keys = append(keys, r.Key)
			}
			if !sameStrings(keys, tt.wantRules) {
				t.Errorf("rules = %v, want %v", keys, tt.wantRules)
			}
			if bundle.Profiles["js"] != "js-way" {
				t.Errorf("js should use the default profile, got %q", bundle.Profiles["js"])
			}
			fellBack := logs.FilterMessage("Module profile missing from storage, using default").Len() == 1
			if fellBack != tt.wantFallback {
				t.Errorf("fallback logged = %v, want %v", fellBack, tt.wantFallback)
			}
		})
	}
}

func TestBuildBundle_UnknownRuleKeepsKey(t *testing.T) {
	global := testGlobalSnapshot()
	delete(global.Rules, "java:S100")
	store := newTestStore(t)
	seedStore(t, store, global)

	bundle, err := NewAnalysisDispatcher(store, nil, DefaultLanguageTable(), nil).BuildBundle("")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, r := range bundle.ActiveRules["java"] {
		if r.Key == "java:S100" {
			found = true
			if r.Language != "java" || r.Name != "" {
				t.Errorf("placeholder rule = %+v", r)
			}
		}
	}
	if !found {
		t.Error("rule without stored details was dropped")
	}
}

func TestConfigBundle_LanguageOf(t *testing.T) {
	b := &ConfigBundle{Suffixes: map[string][]string{
		"java": {".java"},
		"js":   {".js"},
		"ts":   {".ts", ".d.ts"},
	}}

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"src/Foo.java", "java", true},
		{"src/FOO.JAVA", "java", true},
		{"web/app.js", "js", true},
		{"types/index.d.ts", "ts", true},
		{"README.md", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := b.LanguageOf(tt.path)
			if got != tt.want || ok != tt.ok {
				t.Errorf("LanguageOf(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRelativePath(t *testing.T) {
	base := filepath.Join("home", "me", "project")
	tests := []struct {
		name, base, path, want string
	}{
		{"inside base", base, filepath.Join(base, "src", "A.java"), "src/A.java"},
		{"outside base", base, filepath.Join("elsewhere", "A.java"), "elsewhere/A.java"},
		{"no base", "", filepath.Join("src", "A.java"), "src/A.java"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relativePath(tt.base, tt.path); got != tt.want {
				t.Errorf("relativePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		seen[s]--
		if seen[s] < 0 {
			return false
		}
	}
	return true
}
