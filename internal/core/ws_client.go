package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/EmundoT/connected-lint/internal/types"
	"github.com/EmundoT/connected-lint/internal/version"
	"go.uber.org/zap"
)

const (
	wsMaxAttempts     = 3
	wsPageSize        = 500
	wsMaxResponseSize = 32 << 20
	wsTimestampLayout = "2006-01-02T15:04:05-0700"
)

// Compile-time interface satisfaction check.
var _ RemoteConfigSource = (*WSClient)(nil)

// versionedEndpoints lists endpoints missing from older servers. A 404 on them means the server
// is too old rather than a transport failure.
var versionedEndpoints = map[string]struct{ name, minVersion string }{
	"/api/organizations/search": {"organizations", MinVersionOrganizations},
	"/api/user_tokens/generate": {"user tokens", MinVersionUserTokens},
	"/api/user_tokens/revoke":   {"user tokens", MinVersionUserTokens},
}

// WSClient implements RemoteConfigSource over the server web API.
type WSClient struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	organization string
	logger       *zap.SugaredLogger
	backoff      func(attempt int) time.Duration

	mu    sync.RWMutex
	creds types.Credentials
}

// NewWSClient creates a client for server. A nil httpClient gets one bounded by server.Timeout.
func NewWSClient(server types.ServerConfiguration, httpClient *http.Client, logger *zap.SugaredLogger) (*WSClient, error) {
	base, err := url.Parse(strings.TrimSpace(server.URL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, NewValidationError("server.url", fmt.Sprintf("invalid server URL %q", server.URL))
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: server.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	userAgent := server.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}
	return &WSClient{
		httpClient:   httpClient,
		baseURL:      strings.TrimSuffix(base.String(), "/"),
		userAgent:    userAgent,
		organization: server.Organization,
		logger:       logger,
		// Exponential backoff: 1s, 2s
		backoff: func(attempt int) time.Duration { return time.Duration(1<<uint(attempt-1)) * time.Second },
		creds:   server.Credentials(),
	}, nil
}

// Authenticate stores creds for subsequent requests and validates them.
func (c *WSClient) Authenticate(ctx context.Context, creds types.Credentials) error {
	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()

	var res struct {
		Valid bool `json:"valid"`
	}
	if err := c.getJSON(ctx, "/api/authentication/validate", nil, &res); err != nil {
		return err
	}
	if !res.Valid {
		return ErrUnauthorized
	}
	return nil
}

// FetchServerVersion returns the plain-text server version.
func (c *WSClient) FetchServerVersion(ctx context.Context) (string, error) {
	body, err := c.get(ctx, "/api/server/version", nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// FetchGlobalSettings returns global settings, restricted to keys when given.
func (c *WSClient) FetchGlobalSettings(ctx context.Context, keys ...string) (map[string]string, error) {
	return c.fetchSettings(ctx, "", keys)
}

// FetchModuleSettings returns the settings set on a module, restricted to keys when given.
// Values the module only inherits from the global scope are left out.
func (c *WSClient) FetchModuleSettings(ctx context.Context, moduleKey string, keys ...string) (map[string]string, error) {
	return c.fetchSettings(ctx, moduleKey, keys)
}

func (c *WSClient) fetchSettings(ctx context.Context, component string, keys []string) (map[string]string, error) {
	q := url.Values{}
	if component != "" {
		q.Set("component", component)
	}
	if len(keys) > 0 {
		q.Set("keys", strings.Join(keys, ","))
	}

	var res struct {
		Settings []struct {
			Key       string   `json:"key"`
			Value     *string  `json:"value"`
			Values    []string `json:"values"`
			Inherited bool     `json:"inherited"`
		} `json:"settings"`
	}
	if err := c.getJSON(ctx, "/api/settings/values", q, &res); err != nil {
		return nil, err
	}

	settings := make(map[string]string, len(res.Settings))
	for _, s := range res.Settings {
		// Component-scoped responses also carry the global values a module inherits.
		if component != "" && s.Inherited {
			continue
		}
		switch {
		case s.Value != nil:
			settings[s.Key] = *s.Value
		case s.Values != nil:
			settings[s.Key] = strings.Join(s.Values, ",")
		}
	}
	return settings, nil
}

type wsProfile struct {
	Key            string `json:"key"`
	Name           string `json:"name"`
	Language       string `json:"language"`
	IsDefault      bool   `json:"isDefault"`
	RulesUpdatedAt string `json:"rulesUpdatedAt"`
}

// FetchQualityProfiles returns profile digests with their activated rule keys.
func (c *WSClient) FetchQualityProfiles(ctx context.Context, language string) ([]types.ProfileDigest, error) {
	q := c.orgValues()
	if language != "" {
		q.Set("language", language)
	}
	return c.fetchProfiles(ctx, q)
}

// FetchModuleProfiles returns the digests of the profiles associated with a module.
func (c *WSClient) FetchModuleProfiles(ctx context.Context, moduleKey string) ([]types.ProfileDigest, error) {
	q := c.orgValues()
	q.Set("project", moduleKey)
	return c.fetchProfiles(ctx, q)
}

func (c *WSClient) fetchProfiles(ctx context.Context, q url.Values) ([]types.ProfileDigest, error) {
	var res struct {
		Profiles []wsProfile `json:"profiles"`
	}
	if err := c.getJSON(ctx, "/api/qualityprofiles/search", q, &res); err != nil {
		return nil, err
	}

	digests := make([]types.ProfileDigest, 0, len(res.Profiles))
	for _, p := range res.Profiles {
		keys, err := c.activeRuleKeys(ctx, p.Key)
		if err != nil {
			return nil, err
		}
		d := types.ProfileDigest{
			ProfileKey:        p.Key,
			ProfileName:       p.Name,
			Language:          p.Language,
			IsDefault:         p.IsDefault,
			ActivatedRuleKeys: keys,
		}
		if ts, err := time.Parse(wsTimestampLayout, p.RulesUpdatedAt); err == nil {
			d.LastActivationTimestamp = ts.UTC()
		}
		digests = append(digests, d.Normalized())
	}
	return digests, nil
}

type wsRule struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Lang     string `json:"lang"`
	Severity string `json:"severity"`
	HTMLDesc string `json:"htmlDesc"`
	HTMLNote string `json:"htmlNote"`
	MdNote   string `json:"mdNote"`
}

// activeRuleKeys lists only the keys of the rules activated in a profile.
func (c *WSClient) activeRuleKeys(ctx context.Context, profileKey string) ([]string, error) {
	rules, err := c.searchRules(ctx, profileKey, "repo")
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rules))
	for _, r := range rules {
		keys = append(keys, r.Key)
	}
	return keys, nil
}

// FetchActiveRules returns full details of the rules activated in a profile.
func (c *WSClient) FetchActiveRules(ctx context.Context, profileKey string) ([]types.RuleDetails, error) {
	rules, err := c.searchRules(ctx, profileKey, "name,lang,severity,htmlDesc,htmlNote,mdNote")
	if err != nil {
		return nil, err
	}
	out := make([]types.RuleDetails, 0, len(rules))
	for _, r := range rules {
		extended := r.HTMLNote
		if extended == "" {
			extended = r.MdNote
		}
		out = append(out, types.RuleDetails{
			Key:                 r.Key,
			Name:                r.Name,
			Language:            r.Lang,
			Severity:            r.Severity,
			HTMLDescription:     r.HTMLDesc,
			ExtendedDescription: extended,
		})
	}
	return out, nil
}

func (c *WSClient) searchRules(ctx context.Context, profileKey, fields string) ([]wsRule, error) {
	var all []wsRule
	for page := 1; ; page++ {
		q := c.orgValues()
		q.Set("qprofile", profileKey)
		q.Set("activation", "true")
		q.Set("f", fields)
		q.Set("ps", strconv.Itoa(wsPageSize))
		q.Set("p", strconv.Itoa(page))

		var res struct {
			Total int      `json:"total"`
			Rules []wsRule `json:"rules"`
		}
		if err := c.getJSON(ctx, "/api/rules/search", q, &res); err != nil {
			return nil, err
		}
		all = append(all, res.Rules...)
		if len(res.Rules) == 0 || len(all) >= res.Total {
			return all, nil
		}
	}
}

// FetchPluginVersions returns installed plugin versions keyed by plugin key.
func (c *WSClient) FetchPluginVersions(ctx context.Context) (map[string]string, error) {
	var res struct {
		Plugins []struct {
			Key     string `json:"key"`
			Version string `json:"version"`
		} `json:"plugins"`
	}
	if err := c.getJSON(ctx, "/api/plugins/installed", nil, &res); err != nil {
		return nil, err
	}
	plugins := make(map[string]string, len(res.Plugins))
	for _, p := range res.Plugins {
		plugins[p.Key] = p.Version
	}
	return plugins, nil
}

// EnumerateModules returns every project visible to the credentials, keyed by project key.
func (c *WSClient) EnumerateModules(ctx context.Context) (map[string]string, error) {
	modules := make(map[string]string)
	for page := 1; ; page++ {
		q := c.orgValues()
		q.Set("qualifiers", "TRK")
		q.Set("ps", strconv.Itoa(wsPageSize))
		q.Set("p", strconv.Itoa(page))

		var res struct {
			Paging struct {
				Total int `json:"total"`
			} `json:"paging"`
			Components []types.RemoteModule `json:"components"`
		}
		if err := c.getJSON(ctx, "/api/components/search", q, &res); err != nil {
			return nil, err
		}
		for _, m := range res.Components {
			modules[m.Key] = m.Name
		}
		if len(res.Components) == 0 || page*wsPageSize >= res.Paging.Total {
			return modules, nil
		}
	}
}

// ListOrganizations returns the organizations visible to the credentials.
func (c *WSClient) ListOrganizations(ctx context.Context) ([]types.Organization, error) {
	var orgs []types.Organization
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("ps", strconv.Itoa(wsPageSize))
		q.Set("p", strconv.Itoa(page))

		var res struct {
			Paging struct {
				Total int `json:"total"`
			} `json:"paging"`
			Organizations []types.Organization `json:"organizations"`
		}
		if err := c.getJSON(ctx, "/api/organizations/search", q, &res); err != nil {
			return nil, err
		}
		orgs = append(orgs, res.Organizations...)
		if len(res.Organizations) == 0 || page*wsPageSize >= res.Paging.Total {
			return orgs, nil
		}
	}
}

// GenerateToken creates a user token. With force, an existing token of the same name is revoked first.
func (c *WSClient) GenerateToken(ctx context.Context, name string, force bool) (string, error) {
	if force {
		form := url.Values{"name": {name}}
		if _, err := c.do(ctx, http.MethodPost, "/api/user_tokens/revoke", form); err != nil {
			return "", err
		}
	}

	body, err := c.do(ctx, http.MethodPost, "/api/user_tokens/generate", url.Values{"name": {name}})
	if err != nil {
		return "", err
	}
	var res struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return "", NewTransportError("decode /api/user_tokens/generate", err)
	}
	return res.Token, nil
}

func (c *WSClient) orgValues() url.Values {
	q := url.Values{}
	if c.organization != "" {
		q.Set("organization", c.organization)
	}
	return q
}

func (c *WSClient) getJSON(ctx context.Context, path string, q url.Values, out interface{}) error {
	body, err := c.get(ctx, path, q)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return NewTransportError("decode "+path, err)
	}
	return nil
}

func (c *WSClient) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil)
}

// do performs a request with bounded retries. Rate limiting, unavailability and network failures
// are retried; authentication failures never are.
func (c *WSClient) do(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	op := method + " " + strings.SplitN(path, "?", 2)[0]

	var lastErr error
	for attempt := 0; attempt < wsMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, NewTransportError(op, ctx.Err())
			case <-time.After(c.backoff(attempt)):
			}
		}

		body, retry, err := c.attempt(ctx, method, path, form)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
		c.logger.Debugw("Retrying request", "op", op, "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func (c *WSClient) attempt(ctx context.Context, method, path string, form url.Values) ([]byte, bool, error) {
	op := method + " " + strings.SplitN(path, "?", 2)[0]

	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, false, NewTransportError(op, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, NewTransportError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, wsMaxResponseSize))
	if err != nil {
		return nil, true, NewTransportError(op, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, true, NewTransportError(op, fmt.Errorf("server returned %s", resp.Status))
	case resp.StatusCode == http.StatusNotFound:
		if feature, ok := versionedEndpoints[strings.SplitN(path, "?", 2)[0]]; ok {
			return nil, false, NewUnsupportedServerError(feature.name, feature.minVersion, "")
		}
		return nil, false, NewTransportError(op, fmt.Errorf("server returned %s: %s", resp.Status, wsErrorMessage(body)))
	case resp.StatusCode >= 500:
		return nil, false, NewTransportError(op, fmt.Errorf("server returned %s", resp.Status))
	case resp.StatusCode >= 300:
		return nil, false, NewTransportError(op, fmt.Errorf("server returned %s: %s", resp.Status, wsErrorMessage(body)))
	}
	return body, false, nil
}

// authorize sets basic auth. Tokens are sent as the user name with an empty password.
func (c *WSClient) authorize(req *http.Request) {
	c.mu.RLock()
	creds := c.creds
	c.mu.RUnlock()

	switch {
	case creds.Token != "":
		req.SetBasicAuth(creds.Token, "")
	case creds.Login != "":
		req.SetBasicAuth(creds.Login, creds.Password)
	}
}

// wsErrorMessage extracts the first message of a web API error payload.
func wsErrorMessage(body []byte) string {
	var res struct {
		Errors []struct {
			Msg string `json:"msg"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &res); err == nil && len(res.Errors) > 0 {
		return res.Errors[0].Msg
	}
	return strings.TrimSpace(string(body))
}
