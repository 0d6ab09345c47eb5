package core

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/EmundoT/connected-lint/internal/types"
)

// tagRules maps rule ids to the comment tag they track. Rule keys are matched on the part after
// the repository prefix, so "java:S1135" and "javascript:S1135" both enable TODO tracking.
var tagRules = map[string]struct {
	tag     string
	message string
}{
	"S1135": {tag: "TODO", message: "Complete the task associated to this TODO comment."},
	"S1134": {tag: "FIXME", message: "Take the required action to fix the issue indicated by this FIXME comment."},
}

// TextAnalyzer is the built-in line-based Analyzer used by the CLI. It reports comment tags for
// the tag-tracking rules active in the bundle and ignores every other rule.
type TextAnalyzer struct{}

// Compile-time interface satisfaction check.
var _ Analyzer = TextAnalyzer{}

// AnalyzeFile scans path line by line. A file that cannot be read is a failed analysis.
func (TextAnalyzer) AnalyzeFile(ctx context.Context, path string, bundle *ConfigBundle) (FileAnalysis, error) {
	lang, ok := bundle.LanguageOf(path)
	if !ok {
		return FileAnalysis{}, nil
	}

	type matcher struct {
		rule types.RuleDetails
		re   *regexp.Regexp
		msg  string
	}
	var matchers []matcher
	for _, rule := range bundle.ActiveRules[lang] {
		id := rule.Key
		if i := strings.LastIndex(id, ":"); i >= 0 {
			id = id[i+1:]
		}
		tr, ok := tagRules[id]
		if !ok {
			continue
		}
		matchers = append(matchers, matcher{
			rule: rule,
			re:   regexp.MustCompile(`(?i)(//|#|/\*|<!--|\*).*\b` + tr.tag + `\b`),
			msg:  tr.message,
		})
	}
	if len(matchers) == 0 {
		return FileAnalysis{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return FileAnalysis{Failed: true}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var issues []types.Issue
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return FileAnalysis{Failed: true}, err
		}
		line++
		text := scanner.Text()
		for _, m := range matchers {
			if !m.re.MatchString(text) {
				continue
			}
			startLine := line
			filePath := path
			issues = append(issues, types.Issue{
				RuleKey:   m.rule.Key,
				Message:   m.msg,
				Severity:  m.rule.Severity,
				StartLine: &startLine,
				FilePath:  &filePath,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return FileAnalysis{Failed: true}, fmt.Errorf("read %s: %w", path, err)
	}
	return FileAnalysis{Issues: issues}, nil
}
