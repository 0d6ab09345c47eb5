package core

import (
	"context"

	"github.com/EmundoT/connected-lint/internal/types"
)

//go:generate mockgen -source=analyzer.go -destination=mock_analyzer_test.go -package=core

// Analyzer runs the rules of a bundle against one file.
type Analyzer interface {
	AnalyzeFile(ctx context.Context, path string, bundle *ConfigBundle) (FileAnalysis, error)
}

// FileAnalysis is what an Analyzer reports for one file.
// A Failed analysis contributes zero issues even if Issues is populated.
type FileAnalysis struct {
	Issues []types.Issue
	Failed bool
}

// IssueListener receives issues one at a time. It is never invoked concurrently.
type IssueListener func(types.Issue)
