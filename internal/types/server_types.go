package types

import "time"

// ServerConfiguration describes how to reach the remote analysis server.
type ServerConfiguration struct {
	ID           string        `yaml:"id" json:"id"`
	URL          string        `yaml:"url" json:"url"`
	UserAgent    string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	Login        string        `yaml:"login,omitempty" json:"login,omitempty"`
	Password     string        `yaml:"password,omitempty" json:"-"`
	Token        string        `yaml:"token,omitempty" json:"-"`
	Organization string        `yaml:"organization,omitempty" json:"organization,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// Credentials are presented to the remote source on authentication.
type Credentials struct {
	Login    string
	Password string
	Token    string
}

// Credentials extracts the credentials of the configuration.
func (c ServerConfiguration) Credentials() Credentials {
	return Credentials{Login: c.Login, Password: c.Password, Token: c.Token}
}

// Organization is a remote organization.
type Organization struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// RemoteModule is one module known to the remote server.
type RemoteModule struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}
