package core

import (
	"path/filepath"
	"sort"
	"strings"
)

// Language describes one analyzable language.
type Language struct {
	Key             string   `yaml:"key"`
	Name            string   `yaml:"name"`
	SuffixSetting   string   `yaml:"suffix_setting"`
	DefaultSuffixes []string `yaml:"default_suffixes"`
}

// LanguageTable maps language keys to their definitions.
type LanguageTable struct {
	byKey map[string]Language
}

// defaultLanguages is the built-in language table.
var defaultLanguages = []Language{
	{Key: "java", Name: "Java", SuffixSetting: "sonar.java.file.suffixes", DefaultSuffixes: []string{".java", ".jav"}},
	{Key: "js", Name: "JavaScript", SuffixSetting: "sonar.javascript.file.suffixes", DefaultSuffixes: []string{".js", ".jsx", ".vue"}},
	{Key: "ts", Name: "TypeScript", SuffixSetting: "sonar.typescript.file.suffixes", DefaultSuffixes: []string{".ts", ".tsx"}},
	{Key: "php", Name: "PHP", SuffixSetting: "sonar.php.file.suffixes", DefaultSuffixes: []string{".php", ".php3", ".php4", ".php5", ".phtml", ".inc"}},
	{Key: "py", Name: "Python", SuffixSetting: "sonar.python.file.suffixes", DefaultSuffixes: []string{".py"}},
	{Key: "xml", Name: "XML", SuffixSetting: "sonar.xml.file.suffixes", DefaultSuffixes: []string{".xml"}},
}

// DefaultLanguageTable returns the built-in language table.
func DefaultLanguageTable() LanguageTable {
	return NewLanguageTable(defaultLanguages...)
}

// NewLanguageTable creates a table; later entries override earlier ones with the same key.
func NewLanguageTable(languages ...Language) LanguageTable {
	t := LanguageTable{byKey: make(map[string]Language, len(languages))}
	for _, l := range languages {
		l.DefaultSuffixes = append([]string(nil), l.DefaultSuffixes...)
		t.byKey[l.Key] = l
	}
	return t
}

// WithOverrides returns a copy of the table with the given languages added or replaced.
func (t LanguageTable) WithOverrides(overrides ...Language) LanguageTable {
	all := append(t.All(), overrides...)
	return NewLanguageTable(all...)
}

// Get returns the language with the given key.
func (t LanguageTable) Get(key string) (Language, bool) {
	l, ok := t.byKey[key]
	return l, ok
}

// DisplayName returns the human-readable name of a language key, or the key itself when unknown.
func (t LanguageTable) DisplayName(key string) string {
	if l, ok := t.byKey[key]; ok && l.Name != "" {
		return l.Name
	}
	return key
}

// All returns every language sorted by key.
func (t LanguageTable) All() []Language {
	out := make([]Language, 0, len(t.byKey))
	for _, l := range t.byKey {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Suffixes returns the effective suffixes of a language: the configured setting when present,
// the table default otherwise.
func (t LanguageTable) Suffixes(key string, settings map[string]string) []string {
	l, ok := t.byKey[key]
	if !ok {
		return nil
	}
	if raw, set := settings[l.SuffixSetting]; set && l.SuffixSetting != "" {
		return ParseSuffixes(raw)
	}
	return append([]string(nil), l.DefaultSuffixes...)
}

// LanguageOf returns the key of the first language (by key order) whose suffixes match path.
func (t LanguageTable) LanguageOf(path string, settings map[string]string) (string, bool) {
	name := strings.ToLower(filepath.Base(path))
	for _, l := range t.All() {
		for _, suffix := range t.Suffixes(l.Key, settings) {
			if strings.HasSuffix(name, strings.ToLower(suffix)) {
				return l.Key, true
			}
		}
	}
	return "", false
}

// ParseSuffixes splits a comma separated suffix list, adding the leading dot when missing.
func ParseSuffixes(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		out = append(out, part)
	}
	return out
}
