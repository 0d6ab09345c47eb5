package core

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/EmundoT/connected-lint/internal/types"
	"go.uber.org/zap"
)

// ConfigBundle is the effective configuration of one analysis, derived from stored snapshots.
type ConfigBundle struct {
	ModuleKey   string
	Settings    map[string]string              // module settings shadowing global settings
	ActiveRules map[string][]types.RuleDetails // language -> rules of the effective profile
	Profiles    map[string]string              // language -> effective profile key
	Suffixes    map[string][]string            // language -> file suffixes
	Filter      FileFilter
}

// LanguageOf returns the language whose suffixes match path, by language key order.
func (b *ConfigBundle) LanguageOf(path string) (string, bool) {
	keys := make([]string, 0, len(b.Suffixes))
	for k := range b.Suffixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	name := strings.ToLower(filepath.Base(path))
	for _, k := range keys {
		for _, suffix := range b.Suffixes[k] {
			if strings.HasSuffix(name, strings.ToLower(suffix)) {
				return k, true
			}
		}
	}
	return "", false
}

// InScope reports whether relPath is analyzed with this bundle.
func (b *ConfigBundle) InScope(relPath string) bool {
	if _, ok := b.LanguageOf(relPath); !ok {
		return false
	}
	return b.Filter.Allows(relPath)
}

// AnalysisRequest describes one analysis batch.
type AnalysisRequest struct {
	ModuleKey string   // empty analyzes with global configuration only
	BaseDir   string   // patterns are matched against paths relative to BaseDir
	Files     []string // analyzed in this order
	Workers   int      // > 1 analyzes files concurrently; delivery order is unchanged
	Progress  types.ProgressTracker
}

// AnalysisDispatcherInterface defines the contract for running analyses from local storage.
type AnalysisDispatcherInterface interface {
	BuildBundle(moduleKey string) (*ConfigBundle, error)
	Analyze(ctx context.Context, req AnalysisRequest, listener IssueListener) (*types.AnalysisResults, error)
}

// Compile-time interface satisfaction check.
var _ AnalysisDispatcherInterface = (*AnalysisDispatcher)(nil)

// AnalysisDispatcher runs analyses from stored snapshots only. It never calls the remote server.
type AnalysisDispatcher struct {
	store     SnapshotStore
	analyzer  Analyzer
	languages LanguageTable
	logger    *zap.SugaredLogger
}

// NewAnalysisDispatcher creates an AnalysisDispatcher.
func NewAnalysisDispatcher(store SnapshotStore, analyzer Analyzer, languages LanguageTable, logger *zap.SugaredLogger) *AnalysisDispatcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &AnalysisDispatcher{store: store, analyzer: analyzer, languages: languages, logger: logger}
}

// BuildBundle resolves the effective configuration of a module from storage.
func (d *AnalysisDispatcher) BuildBundle(moduleKey string) (*ConfigBundle, error) {
	global := d.store.Get()
	if global == nil {
		return nil, NewPreconditionFailedError("analyze", "storage was never updated")
	}

	var module *types.ModuleSnapshot
	if moduleKey != "" {
		module = d.store.GetModule(moduleKey)
		if module == nil {
			return nil, NewPreconditionFailedError(
				fmt.Sprintf("analyze module '%s'", moduleKey), "module was never updated")
		}
	}

	settings := make(map[string]string, len(global.Settings))
	for k, v := range global.Settings {
		settings[k] = v
	}
	if module != nil {
		for k, v := range module.Settings {
			settings[k] = v
		}
	}

	bundle := &ConfigBundle{
		ModuleKey:   moduleKey,
		Settings:    settings,
		ActiveRules: make(map[string][]types.RuleDetails),
		Profiles:    make(map[string]string),
		Suffixes:    make(map[string][]string),
		Filter:      NewFileFilter(settings),
	}

	for _, lang := range d.languages.All() {
		if suffixes := d.languages.Suffixes(lang.Key, settings); len(suffixes) > 0 {
			bundle.Suffixes[lang.Key] = suffixes
		}

		profile, ok := d.effectiveProfile(global, module, lang.Key)
		if !ok {
			continue
		}
		bundle.Profiles[lang.Key] = profile.ProfileKey
		rules := make([]types.RuleDetails, 0, len(profile.ActivatedRuleKeys))
		for _, key := range profile.ActivatedRuleKeys {
			rule, found := global.Rules[key]
			if !found {
				rule = types.RuleDetails{Key: key, Language: lang.Key}
			}
			rules = append(rules, rule)
		}
		bundle.ActiveRules[lang.Key] = rules
	}
	return bundle, nil
}

// effectiveProfile returns the profile associated with the module for a language, falling back to
// the default profile of the language.
func (d *AnalysisDispatcher) effectiveProfile(global *types.GlobalSnapshot, module *types.ModuleSnapshot, language string) (types.ProfileDigest, bool) {
	if module != nil {
		if key, ok := module.QualityProfileKeys[language]; ok {
			if p, found := global.QualityProfiles[key]; found {
				return p, true
			}
			d.logger.Warnw("Module profile missing from storage, using default",
				"module", module.ModuleKey, "language", language, "profile", key)
		}
	}
	p, ok := global.QualityProfilesByLanguage[language]
	return p, ok
}

// Analyze runs the analyzer over every in-scope file of req and streams issues to listener in
// input file order. A failing file is recorded and the batch continues.
func (d *AnalysisDispatcher) Analyze(ctx context.Context, req AnalysisRequest, listener IssueListener) (*types.AnalysisResults, error) {
	bundle, err := d.BuildBundle(req.ModuleKey)
	if err != nil {
		return nil, err
	}

	results := &types.AnalysisResults{
		FailedAnalysisFiles: []string{},
		Skipped:             []string{},
		Outcomes:            []types.AnalysisOutcome{},
	}

	var inScope []string
	for _, path := range req.Files {
		if bundle.InScope(relativePath(req.BaseDir, path)) {
			inScope = append(inScope, path)
		} else {
			results.Skipped = append(results.Skipped, path)
		}
	}
	results.FileCount = len(inScope)

	progress := req.Progress
	if progress != nil {
		progress.SetTotal(len(inScope))
	}

	deliver := func(outcome types.AnalysisOutcome) {
		results.Outcomes = append(results.Outcomes, outcome)
		if !outcome.Succeeded {
			results.FailedAnalysisFiles = append(results.FailedAnalysisFiles, outcome.FilePath)
		}
		for _, issue := range outcome.Issues {
			results.IssueCount++
			if listener != nil {
				listener(issue)
			}
		}
		if progress != nil {
			progress.Increment(outcome.FilePath)
		}
	}

	analyze := func(ctx context.Context, path string) types.AnalysisOutcome {
		return d.analyzeFile(ctx, path, bundle)
	}

	if req.Workers > 1 {
		NewParallelExecutor(req.Workers).Execute(ctx, inScope, analyze, deliver)
	} else {
		for _, path := range inScope {
			deliver(analyze(ctx, path))
		}
	}

	d.logger.Infow("Analysis completed",
		"module", req.ModuleKey,
		"files", results.FileCount,
		"skipped", len(results.Skipped),
		"failed", len(results.FailedAnalysisFiles),
		"issues", results.IssueCount)

	if err := ctx.Err(); err != nil {
		if progress != nil {
			progress.Fail(err)
		}
		return results, fmt.Errorf("analyze: %w", err)
	}
	if progress != nil {
		progress.Complete()
	}
	return results, nil
}

// analyzeFile analyzes one file. Analyzer errors and failed analyses yield zero issues.
func (d *AnalysisDispatcher) analyzeFile(ctx context.Context, path string, bundle *ConfigBundle) types.AnalysisOutcome {
	if err := ctx.Err(); err != nil {
		return types.AnalysisOutcome{FilePath: path, Error: err.Error()}
	}

	fa, err := d.analyzer.AnalyzeFile(ctx, path, bundle)
	if err != nil {
		fileErr := &AnalysisFileError{Path: path, Cause: err}
		d.logger.Warnw("File analysis failed", "file", path, "error", err)
		return types.AnalysisOutcome{FilePath: path, Error: fileErr.Error()}
	}
	if fa.Failed {
		d.logger.Warnw("File analysis failed", "file", path)
		return types.AnalysisOutcome{FilePath: path, Error: (&AnalysisFileError{Path: path}).Error()}
	}
	return types.AnalysisOutcome{FilePath: path, Succeeded: true, Issues: fa.Issues}
}

// relativePath returns path relative to baseDir when possible, forward-slash normalized.
func relativePath(baseDir, path string) string {
	if baseDir != "" {
		if rel, err := filepath.Rel(baseDir, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}
