package core

import (
	"path/filepath"
	"strings"
)

// PatternSet is a list of path globs parsed from a comma-separated setting value.
// Patterns are matched segment by segment against forward-slash paths:
//   - "*" matches any sequence of non-separator characters
//   - "**" matches zero or more whole path segments
//   - "?" matches any single non-separator character
//
// Examples:
//   - "**/*.java" matches "Foo.java" and "src/main/Foo.java"
//   - "src/generated/**" matches "src/generated/A.java"
//   - "*.xml" matches "pom.xml" but not "src/pom.xml"
type PatternSet struct {
	patterns [][]string
}

// ParsePatterns parses a comma-separated pattern list. Blank entries are ignored.
func ParsePatterns(raw string) PatternSet {
	var set PatternSet
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(filepath.ToSlash(p))
		p = strings.TrimPrefix(p, "./")
		if p == "" {
			continue
		}
		set.patterns = append(set.patterns, strings.Split(p, "/"))
	}
	return set
}

// Empty reports whether the set holds no pattern.
func (s PatternSet) Empty() bool {
	return len(s.patterns) == 0
}

// Match reports whether relPath matches any pattern of the set.
func (s PatternSet) Match(relPath string) bool {
	path := strings.Split(strings.TrimPrefix(filepath.ToSlash(relPath), "./"), "/")
	for _, p := range s.patterns {
		if matchSegments(path, p) {
			return true
		}
	}
	return false
}

// matchSegments matches path segments against pattern segments with "**" support.
func matchSegments(path, pattern []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(path); i++ {
				if matchSegments(path[i:], rest) {
					return true
				}
			}
			return false
		}
		if len(path) == 0 {
			return false
		}
		if ok, _ := filepath.Match(pattern[0], path[0]); !ok {
			return false
		}
		path, pattern = path[1:], pattern[1:]
	}
	return len(path) == 0
}

// FileFilter decides whether a file is in the analysis scope of a bundle.
type FileFilter struct {
	Inclusions PatternSet
	Exclusions PatternSet
}

// NewFileFilter builds a filter from the inclusion and exclusion settings.
func NewFileFilter(settings map[string]string) FileFilter {
	return FileFilter{
		Inclusions: ParsePatterns(settings[SettingInclusions]),
		Exclusions: ParsePatterns(settings[SettingExclusions]),
	}
}

// Allows reports whether relPath passes the filter. An empty inclusion list includes everything.
func (f FileFilter) Allows(relPath string) bool {
	if !f.Inclusions.Empty() && !f.Inclusions.Match(relPath) {
		return false
	}
	return !f.Exclusions.Match(relPath)
}
