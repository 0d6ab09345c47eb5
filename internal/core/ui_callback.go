package core

import "github.com/EmundoT/connected-lint/internal/types"

// UICallback handles user interaction
type UICallback interface {
	ShowError(title, message string)
	ShowSuccess(message string)
	ShowWarning(title, message string)
	AskConfirmation(title, message string) bool
	StyleTitle(title string) string
	StartProgress(total int, label string) types.ProgressTracker

	GetOutputMode() OutputMode
	IsAutoApprove() bool
	FormatJSON(output JSONOutput) error
}

// SilentUICallback is a no-op implementation (for testing/CI)
type SilentUICallback struct{}

func (s *SilentUICallback) ShowError(title, message string)        {}
func (s *SilentUICallback) ShowSuccess(message string)             {}
func (s *SilentUICallback) ShowWarning(title, message string)      {}
func (s *SilentUICallback) AskConfirmation(title, msg string) bool { return false }
func (s *SilentUICallback) StyleTitle(title string) string         { return title }
func (s *SilentUICallback) GetOutputMode() OutputMode              { return OutputNormal }
func (s *SilentUICallback) IsAutoApprove() bool                    { return false }
func (s *SilentUICallback) FormatJSON(output JSONOutput) error     { return nil }

// StartProgress returns a tracker that records nothing.
func (s *SilentUICallback) StartProgress(total int, label string) types.ProgressTracker {
	return silentProgress{}
}

type silentProgress struct{}

func (silentProgress) Increment(string) {}
func (silentProgress) SetTotal(int)     {}
func (silentProgress) Complete()        {}
func (silentProgress) Fail(error)       {}
