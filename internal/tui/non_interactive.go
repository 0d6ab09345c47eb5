package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/EmundoT/connected-lint/internal/core"
	"github.com/EmundoT/connected-lint/internal/types"
)

var _ core.UICallback = (*NonInteractiveTUICallback)(nil)

// NonInteractiveTUICallback is used for --yes, --quiet and --json runs and whenever stdout
// is not a terminal. It never prompts.
type NonInteractiveTUICallback struct {
	flags  core.NonInteractiveFlags
	stdout io.Writer
	stderr io.Writer
}

func NewNonInteractiveTUICallback(flags core.NonInteractiveFlags) *NonInteractiveTUICallback {
	return &NonInteractiveTUICallback{flags: flags, stdout: os.Stdout, stderr: os.Stderr}
}

// report writes a message according to the output mode. In JSON mode out is encoded to
// stdout; otherwise text is written to w, and quiet mode prints only when quietText is set.
func (n *NonInteractiveTUICallback) report(out core.JSONOutput, w io.Writer, text, quietText string) {
	switch n.flags.Mode {
	case core.OutputJSON:
		_ = n.FormatJSON(out)
	case core.OutputQuiet:
		if quietText != "" {
			fmt.Fprintln(n.stderr, quietText)
		}
	default:
		fmt.Fprintln(w, text)
	}
}

// ShowError is the only output still printed in quiet mode.
func (n *NonInteractiveTUICallback) ShowError(title, message string) {
	n.report(core.JSONOutput{Status: "error", Error: &core.JSONError{Title: title, Message: message}},
		n.stderr, "Error: "+title+" - "+message, message)
}

func (n *NonInteractiveTUICallback) ShowSuccess(message string) {
	n.report(core.JSONOutput{Status: "success", Message: message}, n.stdout, message, "")
}

func (n *NonInteractiveTUICallback) ShowWarning(title, message string) {
	n.report(core.JSONOutput{Status: "warning", Message: title + ": " + message},
		n.stderr, "Warning: "+title+" - "+message, "")
}

// AskConfirmation approves with --yes. Without it the prompt is reported as an error and refused.
func (n *NonInteractiveTUICallback) AskConfirmation(title, message string) bool {
	if n.flags.Yes {
		return true
	}
	n.ShowError("Interactive Prompt Required", fmt.Sprintf("%s: %s\nUse --yes to auto-approve", title, message))
	return false
}

func (n *NonInteractiveTUICallback) StyleTitle(title string) string { return title }

// StartProgress prints one line per item in normal mode and nothing otherwise.
func (n *NonInteractiveTUICallback) StartProgress(total int, label string) types.ProgressTracker {
	if n.flags.Mode != core.OutputNormal {
		return NewNoOpProgressTracker()
	}
	return NewTextProgressTracker(total, label)
}

func (n *NonInteractiveTUICallback) GetOutputMode() core.OutputMode { return n.flags.Mode }

func (n *NonInteractiveTUICallback) IsAutoApprove() bool { return n.flags.Yes }

// FormatJSON writes output as indented JSON on stdout.
func (n *NonInteractiveTUICallback) FormatJSON(output core.JSONOutput) error {
	enc := json.NewEncoder(n.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
