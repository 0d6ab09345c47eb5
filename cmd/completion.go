// Package cmd provides CLI utilities for connected-lint
package cmd

import (
	"fmt"
	"strings"
)

// Commands available in connected-lint
var commands = []string{
	"init",
	"update",
	"update-module",
	"check",
	"check-module",
	"modules",
	"status",
	"analyze",
	"rule",
	"inventory",
	"validate",
	"organizations",
	"token",
	"watch",
	"purge",
	"completion",
	"help",
}

// commonFlags are accepted by every command that talks to the engine.
const commonFlags = "--json --quiet -q --yes -y --verbose -v"

// GenerateCompletion returns the completion script for shell.
func GenerateCompletion(shell string) (string, error) {
	switch shell {
	case "bash":
		return GenerateBashCompletion(), nil
	case "zsh":
		return GenerateZshCompletion(), nil
	case "fish":
		return GenerateFishCompletion(), nil
	case "powershell":
		return GeneratePowerShellCompletion(), nil
	default:
		return "", fmt.Errorf("unsupported shell '%s' (expected bash, zsh, fish or powershell)", shell)
	}
}

// GenerateBashCompletion generates bash completion script
func GenerateBashCompletion() string {
	return fmt.Sprintf(`# bash completion for connected-lint
_connected_lint_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    opts="%s"

    case "${COMP_WORDS[1]}" in
        modules)
            opts="--remote %s"
            ;;
        analyze)
            opts="--workers --base-dir %s"
            ;;
        inventory)
            opts="--format %s"
            ;;
        token)
            opts="--force %s"
            ;;
        completion)
            opts="bash zsh fish powershell"
            ;;
        init|help)
            opts=""
            ;;
        "")
            ;;
        *)
            if [ "${COMP_CWORD}" -gt 1 ]; then
                opts="%s"
            fi
            ;;
    esac

    if [ "${prev}" = "--format" ]; then
        opts="cyclonedx spdx"
    fi

    COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
    return 0
}

complete -F _connected_lint_completions connected-lint
`, strings.Join(commands, " "), commonFlags, commonFlags, commonFlags, commonFlags, commonFlags)
}

// GenerateZshCompletion generates zsh completion script
func GenerateZshCompletion() string {
	var cmds []string
	for _, cmd := range commands {
		cmds = append(cmds, fmt.Sprintf("        '%s:%s'", cmd, getCommandDescription(cmd)))
	}

	return fmt.Sprintf(`#compdef connected-lint

_connected_lint() {
    local -a commands
    commands=(
%s
    )

    _arguments -C \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                modules)
                    _arguments '--remote[Refresh the module list from the server]' '--json[JSON output]' '(-q --quiet)'{-q,--quiet}'[Minimal output]'
                    ;;
                analyze)
                    _arguments '--workers[Concurrent analysis workers]:count:' '--base-dir[Base directory for patterns]:dir:_files -/' '*:file:_files'
                    ;;
                inventory)
                    _arguments '--format[Output format]:format:(cyclonedx spdx)'
                    ;;
                token)
                    _arguments '--force[Revoke an existing token with the same name]'
                    ;;
                completion)
                    _arguments '1:shell:(bash zsh fish powershell)'
                    ;;
                *)
                    _arguments '--json[JSON output]' '(-q --quiet)'{-q,--quiet}'[Minimal output]' '(-y --yes)'{-y,--yes}'[Auto-approve prompts]' '(-v --verbose)'{-v,--verbose}'[Debug logging]'
                    ;;
            esac
            ;;
    esac
}

_connected_lint "$@"
`, strings.Join(cmds, "\n"))
}

// GenerateFishCompletion generates fish completion script
func GenerateFishCompletion() string {
	var completions []string
	completions = append(completions, "# fish completion for connected-lint")

	for _, cmd := range commands {
		completions = append(completions, fmt.Sprintf("complete -c connected-lint -f -n '__fish_use_subcommand' -a '%s' -d '%s'", cmd, getCommandDescription(cmd)))
	}

	completions = append(completions,
		"complete -c connected-lint -n '__fish_seen_subcommand_from modules' -l remote -d 'Refresh the module list from the server'",
		"complete -c connected-lint -n '__fish_seen_subcommand_from analyze' -l workers -d 'Concurrent analysis workers' -r",
		"complete -c connected-lint -n '__fish_seen_subcommand_from analyze' -l base-dir -d 'Base directory for patterns' -r",
		"complete -c connected-lint -n '__fish_seen_subcommand_from inventory' -l format -d 'Output format' -r -f -a 'cyclonedx spdx'",
		"complete -c connected-lint -n '__fish_seen_subcommand_from token' -l force -d 'Revoke an existing token with the same name'",
		"complete -c connected-lint -n 'not __fish_seen_subcommand_from init help completion' -l json -d 'JSON output'",
		"complete -c connected-lint -n 'not __fish_seen_subcommand_from init help completion' -l quiet -s q -d 'Minimal output'",
		"complete -c connected-lint -n 'not __fish_seen_subcommand_from init help completion' -l yes -s y -d 'Auto-approve prompts'",
		"complete -c connected-lint -n 'not __fish_seen_subcommand_from init help completion' -l verbose -s v -d 'Debug logging'",
		"complete -c connected-lint -n '__fish_seen_subcommand_from completion' -f -a 'bash zsh fish powershell'",
	)

	return strings.Join(completions, "\n") + "\n"
}

// GeneratePowerShellCompletion generates PowerShell completion script
func GeneratePowerShellCompletion() string {
	var items []string
	for _, cmd := range commands {
		items = append(items, fmt.Sprintf("        @{ Name = '%s'; Description = '%s' }", cmd, getCommandDescription(cmd)))
	}

	return fmt.Sprintf(`# PowerShell completion for connected-lint
Register-ArgumentCompleter -Native -CommandName connected-lint -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $commands = @(
%s
    )

    $elements = $commandAst.CommandElements
    if ($elements.Count -le 2) {
        $commands | Where-Object { $_.Name -like "$wordToComplete*" } | ForEach-Object {
            [System.Management.Automation.CompletionResult]::new($_.Name, $_.Name, 'ParameterValue', $_.Description)
        }
        return
    }

    $flags = @('--json', '--quiet', '--yes', '--verbose')
    switch ($elements[1].Value) {
        'modules'    { $flags += '--remote' }
        'analyze'    { $flags += @('--workers', '--base-dir') }
        'inventory'  { $flags += '--format' }
        'token'      { $flags += '--force' }
        'completion' { $flags = @('bash', 'zsh', 'fish', 'powershell') }
    }
    $flags | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterName', $_)
    }
}
`, strings.Join(items, ",\n"))
}

// getCommandDescription returns a short description for each command
func getCommandDescription(cmd string) string {
	descriptions := map[string]string{
		"init":          "Create connected-lint.yml",
		"update":        "Download the global configuration",
		"update-module": "Download the configuration of one module",
		"check":         "Check whether the global storage is stale",
		"check-module":  "Check whether a module storage is stale",
		"modules":       "List stored modules",
		"status":        "Show storage state",
		"analyze":       "Analyze files with the stored configuration",
		"rule":          "Show stored rule details",
		"inventory":     "Export the server plugin inventory",
		"validate":      "Check the server connection",
		"organizations": "List organizations",
		"token":         "Generate a user token",
		"watch":         "Reload storage on external updates",
		"purge":         "Delete the local storage",
		"completion":    "Generate shell completion script",
		"help":          "Show help information",
	}
	if desc, ok := descriptions[cmd]; ok {
		return desc
	}
	return ""
}
