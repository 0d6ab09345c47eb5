// Package tui provides the terminal front end of connected-lint: styled output, prompts,
// progress rendering and the setup wizard.
package tui

import (
	"os"

	"github.com/EmundoT/connected-lint/internal/core"
	"github.com/EmundoT/connected-lint/internal/types"
	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// TUICallback is the UICallback of an interactive terminal session.
//
//nolint:revive // Name TUICallback is intentional and descriptive
type TUICallback struct {
	confirm       func(title, message string) (bool, error)
	progressOnTTY func() bool
}

// Compile-time interface satisfaction check.
var _ core.UICallback = (*TUICallback)(nil)

// NewTUICallback creates a TUICallback prompting with huh.
func NewTUICallback() *TUICallback {
	return &TUICallback{
		confirm:       confirmPrompt,
		progressOnTTY: func() bool { return isatty.IsTerminal(os.Stderr.Fd()) },
	}
}

func confirmPrompt(title, message string) (bool, error) {
	var confirm bool
	err := huh.NewConfirm().
		Title(title).
		Description(message).
		Value(&confirm).
		Affirmative("Yes").
		Negative("No").
		Run()
	return confirm, err
}

func (t *TUICallback) ShowError(title, message string)   { PrintError(title, message) }
func (t *TUICallback) ShowSuccess(message string)        { PrintSuccess(message) }
func (t *TUICallback) ShowWarning(title, message string) { PrintWarning(title, message) }
func (t *TUICallback) StyleTitle(title string) string    { return StyleTitle(title) }

// AskConfirmation prompts for yes or no. An aborted prompt counts as no.
func (t *TUICallback) AskConfirmation(title, message string) bool {
	ok, err := t.confirm(title, message)
	return err == nil && ok
}

// StartProgress animates a progress bar when stderr is a terminal and prints lines otherwise.
func (t *TUICallback) StartProgress(total int, label string) types.ProgressTracker {
	if t.progressOnTTY() {
		return NewBubbleteaProgressTracker(total, label)
	}
	return NewTextProgressTracker(total, label)
}

// GetOutputMode is always normal: main only builds a TUICallback for normal mode.
func (t *TUICallback) GetOutputMode() core.OutputMode { return core.OutputNormal }

// IsAutoApprove is always false: --yes selects the non-interactive callback.
func (t *TUICallback) IsAutoApprove() bool { return false }

// FormatJSON is never called in normal mode.
func (t *TUICallback) FormatJSON(_ core.JSONOutput) error { return nil }
