package tui

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/EmundoT/connected-lint/internal/types"
)

const (
	authToken = "token"
	authLogin = "login"
	authNone  = "none"
)

// wizardAnswers holds the raw input of the setup wizard.
type wizardAnswers struct {
	URL          string
	ServerID     string
	Organization string
	AuthMethod   string
	Token        string
	Login        string
	Password     string
}

// validateURL accepts absolute http and https URLs.
func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("expected an http or https URL")
	}
	return nil
}

// validateServerID accepts ids usable as a directory name.
func validateServerID(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("server ID cannot be empty")
	}
	if strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
		return fmt.Errorf("server ID cannot contain path separators")
	}
	return nil
}

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

// answersFromConfig pre-fills the wizard from an existing configuration.
func answersFromConfig(cfg types.EngineConfig) wizardAnswers {
	a := wizardAnswers{
		URL:          cfg.Server.URL,
		ServerID:     cfg.Server.ID,
		Organization: cfg.Server.Organization,
		Token:        cfg.Server.Token,
		Login:        cfg.Server.Login,
		Password:     cfg.Server.Password,
	}
	switch {
	case cfg.Server.Token != "":
		a.AuthMethod = authToken
	case cfg.Server.Login != "":
		a.AuthMethod = authLogin
	default:
		a.AuthMethod = authToken
	}
	if a.ServerID == "" {
		a.ServerID = serverIDFromURL(cfg.Server.URL)
	}
	return a
}

// buildEngineConfig applies wizard answers on top of base. Credentials of the
// unselected authentication method are cleared.
func buildEngineConfig(base types.EngineConfig, a wizardAnswers) types.EngineConfig {
	cfg := base
	cfg.Server.URL = strings.TrimSpace(a.URL)
	cfg.Server.ID = strings.TrimSpace(a.ServerID)
	if cfg.Server.ID == "" {
		cfg.Server.ID = serverIDFromURL(cfg.Server.URL)
	}
	cfg.Server.Organization = strings.TrimSpace(a.Organization)
	cfg.Server.Token, cfg.Server.Login, cfg.Server.Password = "", "", ""
	switch a.AuthMethod {
	case authToken:
		cfg.Server.Token = strings.TrimSpace(a.Token)
	case authLogin:
		cfg.Server.Login = strings.TrimSpace(a.Login)
		cfg.Server.Password = a.Password
	}
	return cfg
}

// serverIDFromURL derives a storage-friendly id from the server host.
func serverIDFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.NewReplacer(":", "-", ".", "-").Replace(u.Host)
}
