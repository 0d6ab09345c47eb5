package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/EmundoT/connected-lint/internal/types"
	"github.com/charmbracelet/lipgloss"
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	styleErr     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleCard    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).BorderForeground(lipgloss.Color("238"))
)

// PrintError displays an error message with styling to the terminal.
func PrintError(title, msg string) { fmt.Println(styleErr.Render("✖ " + title)); fmt.Println(msg) }

// PrintSuccess displays a success message with styling to the terminal.
func PrintSuccess(msg string) { fmt.Println(styleSuccess.Render("✔ " + msg)) }

// PrintInfo displays an informational message to the terminal.
func PrintInfo(msg string) {
	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(msg))
}

// PrintWarning displays a warning message with styling to the terminal.
func PrintWarning(title, msg string) { fmt.Println(styleWarn.Render("! " + title)); fmt.Println(msg) }

// StyleTitle applies title styling to the given text string.
func StyleTitle(text string) string { return styleTitle.Render(text) }

// RenderStatus renders a storage status card. A nil status renders as never updated.
func RenderStatus(title string, state types.StorageState, status *types.StorageStatus) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render(title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "State:          %s\n", state)
	if status == nil {
		b.WriteString(styleDim.Render("Never updated"))
		return styleCard.Render(b.String())
	}
	if status.ServerVersion != "" {
		fmt.Fprintf(&b, "Server version: %s\n", status.ServerVersion)
	}
	fmt.Fprintf(&b, "Last update:    %s\n", status.LastUpdate.Local().Format(time.RFC1123))
	fmt.Fprintf(&b, "Sync id:        %s", styleDim.Render(status.SyncID))
	return styleCard.Render(b.String())
}

// RenderChangelog renders the outcome of a staleness check.
func RenderChangelog(result types.UpdateCheckResult) string {
	if !result.NeedsUpdate {
		return styleSuccess.Render("✔ Storage is up to date")
	}
	lines := make([]string, 0, len(result.Changelog)+1)
	lines = append(lines, styleWarn.Render("! Storage needs an update"))
	for _, entry := range result.Changelog {
		lines = append(lines, "  • "+entry)
	}
	return strings.Join(lines, "\n")
}

// RenderModules renders a module list sorted by key.
func RenderModules(modules map[string]string) string {
	if len(modules) == 0 {
		return styleDim.Render("No modules")
	}
	keys := make([]string, 0, len(modules))
	for k := range modules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("  %s %s", k, styleDim.Render(modules[k])))
	}
	return strings.Join(lines, "\n")
}

// RenderIssue renders one issue on a single line.
func RenderIssue(issue types.Issue) string {
	location := "(module)"
	if issue.FilePath != nil {
		location = *issue.FilePath
		if issue.StartLine != nil {
			location = fmt.Sprintf("%s:%d", location, *issue.StartLine)
		}
	}
	severity := issue.Severity
	if severity == "" {
		severity = "INFO"
	}
	return fmt.Sprintf("%s %s %s %s", styleWarn.Render(severity), location, issue.Message, styleDim.Render("["+issue.RuleKey+"]"))
}

// PrintHelp displays usage information for connected-lint commands.
func PrintHelp() {
	fmt.Println(styleTitle.Render("connected-lint"))
	fmt.Println("Synchronize analysis configuration from a server and analyze files offline")
	fmt.Println("\nCommands:")
	fmt.Println("  init                  Create connected-lint.yml (interactive wizard)")
	fmt.Println("  update                Download the global configuration")
	fmt.Println("  update-module <key>   Download the configuration of one module")
	fmt.Println("  check                 Check whether the global storage is stale")
	fmt.Println("  check-module <key>    Check whether a module's storage is stale")
	fmt.Println("  modules [--remote]    List stored modules, or refresh them from the server")
	fmt.Println("  status [module]       Show storage state")
	fmt.Println("  analyze <module> <files...>")
	fmt.Println("                        Analyze files with the stored configuration")
	fmt.Println("    --workers <N>       Analyze files concurrently")
	fmt.Println("    --base-dir <dir>    Match inclusion/exclusion patterns relative to dir")
	fmt.Println("  rule <key>            Show stored rule details")
	fmt.Println("  inventory [--format cyclonedx|spdx]")
	fmt.Println("                        Export the server plugin inventory")
	fmt.Println("  validate              Check the server connection and credentials")
	fmt.Println("  organizations         List organizations (server 6.3+)")
	fmt.Println("  token <name> [--force]")
	fmt.Println("                        Generate a user token (server 5.4+)")
	fmt.Println("  watch                 Reload storage when another process updates it")
	fmt.Println("  purge                 Delete the local storage of this server")
	fmt.Println("  completion <shell>    Print a completion script (bash, zsh, fish, powershell)")
	fmt.Println("\nFlags:")
	fmt.Println("  --json                Structured JSON output")
	fmt.Println("  --quiet, -q           Minimal output")
	fmt.Println("  --yes, -y             Auto-approve prompts")
	fmt.Println("  --verbose, -v         Debug logging")
	fmt.Println("  --version             Print version information")
	fmt.Println("\nExamples:")
	fmt.Println("  connected-lint update")
	fmt.Println("  connected-lint update-module my-project")
	fmt.Println("  connected-lint check --json")
	fmt.Println("  connected-lint analyze my-project src/Foo.java pom.xml")
	fmt.Println("  connected-lint inventory --format spdx > plugins.spdx.json")
}
