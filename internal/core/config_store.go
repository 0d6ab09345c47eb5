package core

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/EmundoT/connected-lint/internal/types"
	"github.com/EmundoT/connected-lint/internal/version"
)

// EnvToken overrides server.token from connected-lint.yml.
const EnvToken = "CONNECTED_LINT_TOKEN"

// ConfigStore handles connected-lint.yml I/O operations
type ConfigStore interface {
	Load() (types.EngineConfig, error)
	Save(config types.EngineConfig) error
	Path() string
}

// FileConfigStore implements ConfigStore using the filesystem
type FileConfigStore struct {
	yaml   *YAMLStore[types.EngineConfig]
	getenv func(string) string
}

// NewFileConfigStore creates a new FileConfigStore for rootDir/connected-lint.yml
func NewFileConfigStore(rootDir string) *FileConfigStore {
	return &FileConfigStore{
		yaml:   NewYAMLStore[types.EngineConfig](rootDir, ConfigFile, false),
		getenv: os.Getenv,
	}
}

// Path returns the config file path
func (s *FileConfigStore) Path() string {
	return s.yaml.Path()
}

// Load reads connected-lint.yml, applies environment overrides and defaults, and validates it.
func (s *FileConfigStore) Load() (types.EngineConfig, error) {
	cfg, err := s.yaml.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.EngineConfig{}, NewValidationError("", fmt.Sprintf("%s not found in %s", ConfigFile, filepath.Dir(s.Path())))
		}
		return types.EngineConfig{}, fmt.Errorf("load config: %w", err)
	}

	if token := s.getenv(EnvToken); token != "" {
		cfg.Server.Token = token
	}
	ApplyConfigDefaults(&cfg)

	if err := ValidateConfig(cfg); err != nil {
		return types.EngineConfig{}, err
	}
	return cfg, nil
}

// Save writes connected-lint.yml
func (s *FileConfigStore) Save(cfg types.EngineConfig) error {
	return s.yaml.Save(cfg)
}

// ApplyConfigDefaults fills unset optional fields.
func ApplyConfigDefaults(cfg *types.EngineConfig) {
	if cfg.Server.ID == "" {
		cfg.Server.ID = DefaultServerID
	}
	if cfg.Server.UserAgent == "" {
		cfg.Server.UserAgent = version.UserAgent()
	}
	if cfg.SyncTimeout == 0 {
		cfg.SyncTimeout = DefaultSyncTimeout
	}
	if cfg.StorageRoot == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.StorageRoot = filepath.Join(home, StorageDir)
		} else {
			cfg.StorageRoot = StorageDir
		}
	}
	if cfg.Analysis.Workers == 0 {
		cfg.Analysis.Workers = 1
	}
}

// ValidateConfig checks the configuration for values the engine cannot work with.
func ValidateConfig(cfg types.EngineConfig) error {
	if strings.TrimSpace(cfg.Server.URL) == "" {
		return NewValidationError("server.url", "server URL is required")
	}
	u, err := url.Parse(cfg.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewValidationError("server.url", fmt.Sprintf("invalid server URL %q (expected http or https)", cfg.Server.URL))
	}
	if cfg.Server.Password != "" && cfg.Server.Login == "" {
		return NewValidationError("server.login", "password is set without a login")
	}
	if cfg.Server.Token != "" && cfg.Server.Login != "" {
		return NewValidationError("server.token", "set either a token or a login, not both")
	}
	if cfg.SyncTimeout < 0 {
		return NewValidationError("sync_timeout", "must not be negative")
	}
	if cfg.Analysis.Workers < 0 {
		return NewValidationError("analysis.workers", "must not be negative")
	}
	for i, l := range cfg.Languages {
		if strings.TrimSpace(l.Key) == "" {
			return NewValidationError(fmt.Sprintf("languages[%d].key", i), "language key is required")
		}
	}
	return nil
}

// LanguageTableFromConfig returns the default language table with configured overrides applied.
func LanguageTableFromConfig(cfg types.EngineConfig) LanguageTable {
	table := DefaultLanguageTable()
	if len(cfg.Languages) == 0 {
		return table
	}
	overrides := make([]Language, 0, len(cfg.Languages))
	for _, l := range cfg.Languages {
		lang, ok := table.Get(l.Key)
		if !ok {
			lang = Language{Key: l.Key}
		}
		if l.Name != "" {
			lang.Name = l.Name
		}
		if l.SuffixSetting != "" {
			lang.SuffixSetting = l.SuffixSetting
		}
		if len(l.DefaultSuffixes) > 0 {
			lang.DefaultSuffixes = ParseSuffixes(strings.Join(l.DefaultSuffixes, ","))
		}
		overrides = append(overrides, lang)
	}
	return table.WithOverrides(overrides...)
}

// WhitelistsFromConfig returns the global and module whitelists with configured keys added.
func WhitelistsFromConfig(cfg types.EngineConfig, languages LanguageTable) (global, module Whitelist) {
	global = DefaultGlobalWhitelist(languages).Union(NewWhitelist(cfg.Whitelists.Global...))
	module = DefaultModuleWhitelist().Union(NewWhitelist(cfg.Whitelists.Module...))
	return global, module
}
