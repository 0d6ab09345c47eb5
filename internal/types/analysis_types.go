package types

// Issue is a single finding reported by the analyzer.
// StartLine is nil for file or module level issues; FilePath is nil for directory or module level issues.
type Issue struct {
	RuleKey   string  `json:"rule_key"`
	Message   string  `json:"message,omitempty"`
	Severity  string  `json:"severity,omitempty"`
	StartLine *int    `json:"start_line,omitempty"`
	FilePath  *string `json:"file_path,omitempty"`
}

// AnalysisOutcome is the result of analyzing one in-scope file.
type AnalysisOutcome struct {
	FilePath  string  `json:"file_path"`
	Succeeded bool    `json:"succeeded"`
	Issues    []Issue `json:"issues,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// AnalysisResults summarizes one analysis batch.
type AnalysisResults struct {
	FileCount           int               `json:"file_count"`
	FailedAnalysisFiles []string          `json:"failed_analysis_files"`
	Skipped             []string          `json:"skipped"`
	IssueCount          int               `json:"issue_count"`
	Outcomes            []AnalysisOutcome `json:"outcomes"`
}
