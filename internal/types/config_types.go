package types

import "time"

// EngineConfig is the content of connected-lint.yml.
type EngineConfig struct {
	Server      ServerConfiguration `yaml:"server"`
	StorageRoot string              `yaml:"storage_root,omitempty"`
	SyncTimeout time.Duration       `yaml:"sync_timeout,omitempty"`
	LogLevel    string              `yaml:"log_level,omitempty"`
	Analysis    AnalysisConfig      `yaml:"analysis,omitempty"`
	Whitelists  WhitelistConfig     `yaml:"whitelists,omitempty"`
	Languages   []LanguageConfig    `yaml:"languages,omitempty"`
}

// AnalysisConfig tunes analysis batches.
type AnalysisConfig struct {
	Workers int `yaml:"workers,omitempty"`
}

// WhitelistConfig adds keys to the built-in watched settings. Global and module lists are independent.
type WhitelistConfig struct {
	Global []string `yaml:"global,omitempty"`
	Module []string `yaml:"module,omitempty"`
}

// LanguageConfig overrides or adds a language table entry.
type LanguageConfig struct {
	Key             string   `yaml:"key"`
	Name            string   `yaml:"name,omitempty"`
	SuffixSetting   string   `yaml:"suffix_setting,omitempty"`
	DefaultSuffixes []string `yaml:"default_suffixes,omitempty"`
}
