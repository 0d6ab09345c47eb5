package tui

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/EmundoT/connected-lint/internal/core"
)

func newTestNonInteractive(mode core.OutputMode, yes bool) (*NonInteractiveTUICallback, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	cb := NewNonInteractiveTUICallback(core.NonInteractiveFlags{Mode: mode, Yes: yes})
	cb.stdout, cb.stderr = &stdout, &stderr
	return cb, &stdout, &stderr
}

func TestNonInteractiveTUICallback_ShowError(t *testing.T) {
	tests := []struct {
		name       string
		mode       core.OutputMode
		wantStdout string
		wantStderr string
	}{
		{"normal", core.OutputNormal, "", "Error: Sync failed - timeout\n"},
		{"quiet", core.OutputQuiet, "", "timeout\n"},
		{"json", core.OutputJSON, `"status": "error"`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, stdout, stderr := newTestNonInteractive(tt.mode, false)
			cb.ShowError("Sync failed", "timeout")

			if tt.wantStdout == "" && stdout.Len() != 0 {
				t.Errorf("stdout = %q, want empty", stdout.String())
			}
			if !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.wantStdout)
			}
			if stderr.String() != tt.wantStderr {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestNonInteractiveTUICallback_QuietSuppressesNoise(t *testing.T) {
	cb, stdout, stderr := newTestNonInteractive(core.OutputQuiet, false)
	cb.ShowSuccess("done")
	cb.ShowWarning("Stale", "update needed")
	if stdout.Len() != 0 || stderr.Len() != 0 {
		t.Errorf("quiet mode wrote %q / %q", stdout.String(), stderr.String())
	}
	if _, ok := cb.StartProgress(3, "Analyzing").(*NoOpProgressTracker); !ok {
		t.Error("quiet mode should not render progress")
	}
}

func TestNonInteractiveTUICallback_JSONWarning(t *testing.T) {
	cb, stdout, _ := newTestNonInteractive(core.OutputJSON, false)
	cb.ShowWarning("Stale", "update needed")

	var out core.JSONOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout.String(), err)
	}
	if out.Status != "warning" || out.Message != "Stale: update needed" {
		t.Errorf("output = %+v", out)
	}
}

func TestNonInteractiveTUICallback_AskConfirmation(t *testing.T) {
	cb, _, _ := newTestNonInteractive(core.OutputNormal, true)
	if !cb.AskConfirmation("Purge", "sure?") || !cb.IsAutoApprove() {
		t.Error("--yes should approve")
	}

	cb, _, stderr := newTestNonInteractive(core.OutputNormal, false)
	if cb.AskConfirmation("Purge", "sure?") {
		t.Error("confirmation without --yes should be refused")
	}
	if !strings.Contains(stderr.String(), "--yes") {
		t.Errorf("stderr = %q, want a --yes hint", stderr.String())
	}
}
