// Package main implements the connected-lint CLI, which synchronizes analysis configuration from a
// server into local storage and analyzes files offline against it.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/EmundoT/connected-lint/cmd"
	"github.com/EmundoT/connected-lint/internal/core"
	"github.com/EmundoT/connected-lint/internal/tui"
	"github.com/EmundoT/connected-lint/internal/types"
	"github.com/EmundoT/connected-lint/internal/version"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// cliFlags are the flags shared by every command.
type cliFlags struct {
	core.NonInteractiveFlags
	Verbose bool
}

// parseCommonFlags extracts common non-interactive flags from args
// Returns: flags, remainingArgs
func parseCommonFlags(args []string) (cliFlags, []string) {
	flags := cliFlags{}
	var remaining []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--yes", "-y":
			flags.Yes = true
		case "--quiet", "-q":
			flags.Mode = core.OutputQuiet
		case "--json":
			flags.Mode = core.OutputJSON
		case "--verbose", "-v":
			flags.Verbose = true
		default:
			remaining = append(remaining, arg)
		}
	}

	return flags, remaining
}

// takeOption removes "--name value" or "--name=value" from args.
func takeOption(args []string, name string) (string, []string, bool) {
	var remaining []string
	value, found := "", false
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == name && i+1 < len(args):
			value, found = args[i+1], true
			i++
		case strings.HasPrefix(arg, name+"="):
			value, found = strings.TrimPrefix(arg, name+"="), true
		default:
			remaining = append(remaining, arg)
		}
	}
	return value, remaining, found
}

// takeSwitch removes a boolean flag from args.
func takeSwitch(args []string, name string) (bool, []string) {
	var remaining []string
	found := false
	for _, arg := range args {
		if arg == name {
			found = true
			continue
		}
		remaining = append(remaining, arg)
	}
	return found, remaining
}

// newCallback picks the interactive TUI only for a terminal in normal mode.
func newCallback(flags cliFlags) core.UICallback {
	if !flags.Interactive() || !isatty.IsTerminal(os.Stdout.Fd()) {
		return tui.NewNonInteractiveTUICallback(flags.NonInteractiveFlags)
	}
	return tui.NewTUICallback()
}

// newLogger logs to stderr. --verbose forces debug output; otherwise the configured level applies.
func newLogger(flags cliFlags, level string) *zap.SugaredLogger {
	if flags.Verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger.Sugar()
		}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if level != "" {
		if lvl, err := zapcore.ParseLevel(level); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}
	if flags.Mode != core.OutputNormal {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

// fail reports err in the active output mode and exits with its mapped code.
func fail(flags cliFlags, callback core.UICallback, title string, err error) {
	code := core.CLIExitCodeForError(err)
	if flags.Mode == core.OutputJSON {
		os.Exit(core.EmitCLIError(core.CLIErrorCodeForError(err), err.Error(), code))
	}
	callback.ShowError(title, err.Error())
	os.Exit(code)
}

// usage reports wrong arguments and exits.
func usage(flags cliFlags, callback core.UICallback, text string) {
	if flags.Mode == core.OutputJSON {
		os.Exit(core.EmitCLIError(core.ErrCodeInvalidArguments, "usage: "+text, core.ExitInvalidArguments))
	}
	callback.ShowError("Usage", text)
	os.Exit(core.ExitInvalidArguments)
}

func main() {
	if len(os.Args) < 2 {
		tui.PrintHelp()
		os.Exit(0)
	}

	command := os.Args[1]

	switch command {
	case "--help", "-h", "help":
		tui.PrintHelp()
		os.Exit(0)
	case "--version":
		fmt.Println("connected-lint " + version.GetFullVersion())
		os.Exit(0)
	case "completion":
		runCompletion(os.Args[2:])
		return
	}

	flags, args := parseCommonFlags(os.Args[2:])
	callback := newCallback(flags)

	if command == "init" {
		runInit(flags, callback)
		return
	}

	cfg, err := core.NewFileConfigStore(".").Load()
	if err != nil {
		fail(flags, callback, "Configuration", err)
	}

	logger := newLogger(flags, cfg.LogLevel)
	defer func() { _ = logger.Sync() }() //nolint:errcheck
	logger.Debugw("Running command", "command", command, "mode", flags.Mode, "server", cfg.Server.ID)

	var analyzer core.Analyzer
	if command == "analyze" {
		analyzer = core.TextAnalyzer{}
	}
	engine, err := core.NewConnectedEngine(core.EngineOptions{
		Config:   cfg,
		Analyzer: analyzer,
		Logger:   logger,
		UI:       callback,
	})
	if err != nil {
		fail(flags, callback, "Error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cliApp{engine: engine, flags: flags, callback: callback}

	switch command {
	case "update":
		app.runUpdate(ctx)
	case "update-module":
		if len(args) != 1 {
			usage(flags, callback, "connected-lint update-module <module-key>")
		}
		app.runUpdateModule(ctx, args[0])
	case "check":
		app.runCheck(ctx, "")
	case "check-module":
		if len(args) != 1 {
			usage(flags, callback, "connected-lint check-module <module-key>")
		}
		app.runCheck(ctx, args[0])
	case "modules":
		remote, _ := takeSwitch(args, "--remote")
		app.runModules(ctx, remote)
	case "status":
		if len(args) > 1 {
			usage(flags, callback, "connected-lint status [module-key]")
		}
		moduleKey := ""
		if len(args) == 1 {
			moduleKey = args[0]
		}
		app.runStatus(moduleKey)
	case "analyze":
		app.runAnalyze(ctx, args)
	case "rule":
		if len(args) != 1 {
			usage(flags, callback, "connected-lint rule <rule-key>")
		}
		app.runRule(args[0])
	case "inventory":
		format, rest, _ := takeOption(args, "--format")
		if len(rest) > 0 {
			usage(flags, callback, "connected-lint inventory [--format cyclonedx|spdx]")
		}
		if format == "" {
			format = string(core.InventoryFormatCycloneDX)
		}
		app.runInventory(core.InventoryFormat(format))
	case "validate":
		app.runValidate(ctx)
	case "organizations":
		app.runOrganizations(ctx)
	case "token":
		force, rest := takeSwitch(args, "--force")
		if len(rest) != 1 {
			usage(flags, callback, "connected-lint token <name> [--force]")
		}
		app.runToken(ctx, rest[0], force)
	case "watch":
		app.runWatch(ctx)
	case "purge":
		app.runPurge()
	default:
		usage(flags, callback, fmt.Sprintf("unknown command '%s' (see connected-lint help)", command))
	}
}

// cliApp runs commands against one engine.
type cliApp struct {
	engine   *core.ConnectedEngine
	flags    cliFlags
	callback core.UICallback
}

func (a *cliApp) jsonMode() bool  { return a.flags.Mode == core.OutputJSON }
func (a *cliApp) quietMode() bool { return a.flags.Mode == core.OutputQuiet }

func (a *cliApp) fail(title string, err error) { fail(a.flags, a.callback, title, err) }

func runInit(flags cliFlags, callback core.UICallback) {
	store := core.NewFileConfigStore(".")
	existing, _ := core.NewYAMLStore[types.EngineConfig](".", core.ConfigFile, true).Load() //nolint:errcheck

	if flags.Mode != core.OutputNormal || flags.Yes {
		usage(flags, callback, "connected-lint init runs interactively; edit "+core.ConfigFile+" directly in scripts")
	}

	cfg, err := tui.RunSetupWizard(existing)
	if err != nil {
		if errors.Is(err, tui.ErrWizardAborted) {
			fmt.Println("Cancelled.")
			os.Exit(core.ExitGeneralError)
		}
		fail(flags, callback, "Initialization Failed", err)
	}
	if err := core.ValidateConfig(cfg); err != nil {
		fail(flags, callback, "Initialization Failed", err)
	}
	if err := store.Save(cfg); err != nil {
		fail(flags, callback, "Initialization Failed", err)
	}
	callback.ShowSuccess("Wrote " + store.Path())
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  connected-lint validate   # Check the connection")
	fmt.Println("  connected-lint update     # Download the global configuration")
}

func (a *cliApp) runUpdate(ctx context.Context) {
	snapshot, err := a.engine.Update(ctx)
	if err != nil {
		a.fail("Update Failed", err)
	}
	if a.jsonMode() {
		core.EmitCLISuccess(map[string]interface{}{
			"state":          a.engine.State(),
			"server_version": snapshot.ServerVersion,
			"sync_id":        snapshot.SyncID,
			"captured_at":    snapshot.CapturedAt,
			"modules":        len(snapshot.Modules),
			"rules":          len(snapshot.Rules),
		})
		return
	}
	a.callback.ShowSuccess(fmt.Sprintf("Global storage updated (server %s, %d rules, %d modules)",
		snapshot.ServerVersion, len(snapshot.Rules), len(snapshot.Modules)))
}

func (a *cliApp) runUpdateModule(ctx context.Context, moduleKey string) {
	snapshot, err := a.engine.UpdateModule(ctx, moduleKey)
	if err != nil {
		a.fail("Update Failed", err)
	}
	if a.jsonMode() {
		core.EmitCLISuccess(map[string]interface{}{
			"module":       snapshot.ModuleKey,
			"sync_id":      snapshot.SyncID,
			"captured_at":  snapshot.CapturedAt,
			"settings":     len(snapshot.Settings),
			"profile_keys": snapshot.QualityProfileKeys,
		})
		return
	}
	a.callback.ShowSuccess(fmt.Sprintf("Module '%s' updated", snapshot.ModuleKey))
}

// runCheck exits with ExitNeedsUpdate when the checked storage is stale.
func (a *cliApp) runCheck(ctx context.Context, moduleKey string) {
	var (
		result types.UpdateCheckResult
		err    error
	)
	if moduleKey == "" {
		result, err = a.engine.CheckIfGlobalStorageNeedUpdate(ctx)
	} else {
		result, err = a.engine.CheckIfModuleStorageNeedUpdate(ctx, moduleKey)
	}
	if err != nil {
		a.fail("Check Failed", err)
	}

	switch {
	case a.jsonMode():
		core.EmitCLISuccess(result)
	case a.quietMode():
	default:
		fmt.Println(tui.RenderChangelog(result))
	}
	if result.NeedsUpdate {
		os.Exit(core.ExitNeedsUpdate)
	}
}

func (a *cliApp) runModules(ctx context.Context, remote bool) {
	var (
		modules map[string]string
		err     error
	)
	if remote {
		modules, err = a.engine.DownloadAllModules(ctx)
		if err != nil {
			a.fail("Module Download Failed", err)
		}
	} else {
		modules = a.engine.AllModulesByKey()
	}

	updated := make(map[string]bool)
	for _, key := range a.engine.UpdatedModuleKeys() {
		updated[key] = true
	}

	switch {
	case a.jsonMode():
		keys := make([]string, 0, len(modules))
		for k := range modules {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		list := make([]map[string]interface{}, 0, len(keys))
		for _, k := range keys {
			list = append(list, map[string]interface{}{"key": k, "name": modules[k], "updated": updated[k]})
		}
		core.EmitCLISuccess(map[string]interface{}{"modules": list})
	case a.quietMode():
		fmt.Println(len(modules))
	default:
		fmt.Println(tui.RenderModules(modules))
	}
}

func (a *cliApp) runStatus(moduleKey string) {
	state := a.engine.State()
	global := a.engine.GlobalStorageStatus()
	var module *types.StorageStatus
	if moduleKey != "" {
		module = a.engine.ModuleStorageStatus(moduleKey)
	}
	lastErr := a.engine.LastError()

	switch {
	case a.jsonMode():
		data := map[string]interface{}{
			"state":        state,
			"storage_root": a.engine.StorageRoot(),
			"global":       global,
		}
		if moduleKey != "" {
			data["module"] = map[string]interface{}{"key": moduleKey, "status": module}
		}
		if lastErr != nil {
			data["last_error"] = lastErr.Error()
		}
		core.EmitCLISuccess(data)
	case a.quietMode():
		fmt.Println(state)
	default:
		fmt.Println(tui.RenderStatus("Global storage", state, global))
		if moduleKey != "" {
			moduleState := types.StateNeverUpdated
			if module != nil {
				moduleState = types.StateUpdated
			}
			fmt.Println(tui.RenderStatus("Module "+moduleKey, moduleState, module))
		}
		if lastErr != nil {
			a.callback.ShowWarning("Last update failed", lastErr.Error())
		}
	}
}

func (a *cliApp) runAnalyze(ctx context.Context, args []string) {
	workersArg, args, hasWorkers := takeOption(args, "--workers")
	baseDir, args, _ := takeOption(args, "--base-dir")
	if len(args) < 2 {
		usage(a.flags, a.callback, "connected-lint analyze <module-key|-> <files...> [--workers N] [--base-dir DIR]")
	}
	workers := 0
	if hasWorkers {
		n, err := strconv.Atoi(workersArg)
		if err != nil || n < 1 {
			usage(a.flags, a.callback, "--workers expects a positive number")
		}
		workers = n
	}
	if baseDir == "" {
		baseDir = "."
	}
	moduleKey := args[0]
	if moduleKey == "-" {
		moduleKey = ""
	}
	files := args[1:]

	var progress types.ProgressTracker
	if !a.jsonMode() {
		progress = a.callback.StartProgress(len(files), "Analyzing")
	}

	var issues []types.Issue
	results, err := a.engine.Analyze(ctx, core.AnalysisRequest{
		ModuleKey: moduleKey,
		BaseDir:   baseDir,
		Files:     files,
		Workers:   workers,
		Progress:  progress,
	}, func(issue types.Issue) {
		issues = append(issues, issue)
	})
	if err != nil {
		a.fail("Analysis Failed", err)
	}

	switch {
	case a.jsonMode():
		core.EmitCLISuccess(map[string]interface{}{
			"file_count":            results.FileCount,
			"issue_count":           results.IssueCount,
			"failed_analysis_files": results.FailedAnalysisFiles,
			"skipped":               results.Skipped,
			"issues":                issues,
		})
	case a.quietMode():
		fmt.Println(results.IssueCount)
	default:
		for _, issue := range issues {
			fmt.Println(tui.RenderIssue(issue))
		}
		for _, f := range results.FailedAnalysisFiles {
			a.callback.ShowWarning("Analysis failed", f)
		}
		a.callback.ShowSuccess(fmt.Sprintf("%d file(s) analyzed, %d issue(s), %d skipped",
			results.FileCount, results.IssueCount, len(results.Skipped)))
	}
	if len(results.FailedAnalysisFiles) > 0 {
		os.Exit(core.ExitGeneralError)
	}
}

func (a *cliApp) runRule(ruleKey string) {
	rule, err := a.engine.RuleDetails(ruleKey)
	if err != nil {
		a.fail("Rule", err)
	}
	if a.jsonMode() {
		core.EmitCLISuccess(rule)
		return
	}
	fmt.Println(a.callback.StyleTitle(rule.Key + "  " + rule.Name))
	fmt.Printf("Language: %s\nSeverity: %s\n\n", a.engine.Languages().DisplayName(rule.Language), rule.Severity)
	fmt.Println(rule.HTMLDescription)
	if rule.ExtendedDescription != "" {
		fmt.Println()
		fmt.Println(rule.ExtendedDescription)
	}
}

func (a *cliApp) runInventory(format core.InventoryFormat) {
	data, err := a.engine.Inventory(format)
	if err != nil {
		a.fail("Inventory Failed", err)
	}
	_, _ = os.Stdout.Write(data) //nolint:errcheck
}

func (a *cliApp) runValidate(ctx context.Context) {
	helper, err := a.engine.Helper()
	if err != nil {
		a.fail("Validate", err)
	}
	result := helper.ValidateConnection(ctx)
	if a.jsonMode() {
		if !result.Success {
			os.Exit(core.EmitCLIError(core.ErrCodeValidationFailed, result.Message, core.ExitValidationFailed))
		}
		core.EmitCLISuccess(result)
		return
	}
	if !result.Success {
		a.callback.ShowError("Connection Failed", result.Message)
		os.Exit(core.ExitValidationFailed)
	}
	a.callback.ShowSuccess(fmt.Sprintf("Connected to server %s", result.ServerVersion))
}

func (a *cliApp) runOrganizations(ctx context.Context) {
	helper, err := a.engine.Helper()
	if err != nil {
		a.fail("Organizations", err)
	}
	orgs, err := helper.ListOrganizations(ctx)
	if err != nil {
		a.fail("Organizations", err)
	}
	if a.jsonMode() {
		core.EmitCLISuccess(map[string]interface{}{"organizations": orgs})
		return
	}
	for _, o := range orgs {
		fmt.Printf("%s  %s\n", o.Key, o.Name)
	}
}

func (a *cliApp) runToken(ctx context.Context, name string, force bool) {
	helper, err := a.engine.Helper()
	if err != nil {
		a.fail("Token", err)
	}
	token, err := helper.GenerateAuthenticationToken(ctx, name, force)
	if err != nil {
		a.fail("Token", err)
	}
	if a.jsonMode() {
		core.EmitCLISuccess(map[string]interface{}{"name": name, "token": token})
		return
	}
	fmt.Println(token)
}

func (a *cliApp) runWatch(ctx context.Context) {
	if !a.quietMode() && !a.jsonMode() {
		tui.PrintInfo("Watching " + a.engine.StorageRoot() + " (Ctrl+C to stop)")
	}
	err := a.engine.Watch(ctx, func(reloadErr error) {
		if reloadErr != nil {
			a.callback.ShowWarning("Reload failed", reloadErr.Error())
			return
		}
		a.callback.ShowSuccess(fmt.Sprintf("Storage reloaded (%s)", a.engine.State()))
	})
	if err != nil {
		a.fail("Watch Failed", err)
	}
}

func (a *cliApp) runPurge() {
	purged, err := a.engine.Purge()
	if err != nil {
		a.fail("Purge Failed", err)
	}
	if !purged {
		if !a.quietMode() {
			fmt.Println("Cancelled.")
		}
		os.Exit(core.ExitGeneralError)
	}
	if a.jsonMode() {
		core.EmitCLISuccess(map[string]interface{}{"purged": a.engine.StorageRoot()})
		return
	}
	a.callback.ShowSuccess("Purged " + a.engine.StorageRoot())
}

func runCompletion(args []string) {
	if len(args) != 1 {
		tui.PrintError("Usage", "connected-lint completion <bash|zsh|fish|powershell>")
		os.Exit(core.ExitInvalidArguments)
	}
	script, err := cmd.GenerateCompletion(args[0])
	if err != nil {
		tui.PrintError("Completion", err.Error())
		os.Exit(core.ExitInvalidArguments)
	}
	fmt.Print(script)
}
