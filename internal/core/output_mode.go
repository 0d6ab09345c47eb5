package core

// OutputMode selects how command results and diagnostics are printed.
type OutputMode int

// Output modes, selected by --quiet and --json.
const (
	OutputNormal OutputMode = iota
	OutputQuiet
	OutputJSON
)

// String returns the flag that selects the mode, or "normal".
func (m OutputMode) String() string {
	switch m {
	case OutputQuiet:
		return "quiet"
	case OutputJSON:
		return "json"
	default:
		return "normal"
	}
}

// NonInteractiveFlags are the global flags shared by every command.
type NonInteractiveFlags struct {
	Yes  bool // answer yes to confirmations such as purge
	Mode OutputMode
}

// Interactive reports whether prompts and styled rendering may be used.
func (f NonInteractiveFlags) Interactive() bool {
	return !f.Yes && f.Mode == OutputNormal
}

// JSONOutput is one message printed by a non-interactive callback in JSON mode.
// Command results use CLIResponse instead.
type JSONOutput struct {
	Status  string     `json:"status"` // success, warning or error
	Message string     `json:"message,omitempty"`
	Error   *JSONError `json:"error,omitempty"`
}

// JSONError is the error part of a JSONOutput.
type JSONError struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}
