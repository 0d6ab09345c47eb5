package core

import (
	"context"

	"github.com/EmundoT/connected-lint/internal/types"
)

//go:generate mockgen -source=remote_source.go -destination=mock_remote_source_test.go -package=core

// RemoteConfigSource supplies configuration snapshots from the remote analysis server.
// All operations may fail with ErrUnauthorized or a *TransportError.
type RemoteConfigSource interface {
	// Authenticate validates credentials. Invalid credentials fail with ErrUnauthorized.
	Authenticate(ctx context.Context, creds types.Credentials) error
	// FetchServerVersion returns the server version string.
	FetchServerVersion(ctx context.Context) (string, error)
	// FetchGlobalSettings returns global settings. With keys, only those keys are requested.
	FetchGlobalSettings(ctx context.Context, keys ...string) (map[string]string, error)
	// FetchModuleSettings returns the settings of one module. With keys, only those keys are requested.
	FetchModuleSettings(ctx context.Context, moduleKey string, keys ...string) (map[string]string, error)
	// FetchQualityProfiles returns profile digests, for one language or all when language is empty.
	// IsDefault marks the default profile of each language.
	FetchQualityProfiles(ctx context.Context, language string) ([]types.ProfileDigest, error)
	// FetchModuleProfiles returns the profile digests associated with a module.
	FetchModuleProfiles(ctx context.Context, moduleKey string) ([]types.ProfileDigest, error)
	// FetchActiveRules returns full rule details for a profile. Never used by staleness checks.
	FetchActiveRules(ctx context.Context, profileKey string) ([]types.RuleDetails, error)
	// FetchPluginVersions returns installed plugin versions keyed by plugin name.
	FetchPluginVersions(ctx context.Context) (map[string]string, error)
	// EnumerateModules returns every module visible to the credentials, keyed by module key.
	EnumerateModules(ctx context.Context) (map[string]string, error)
}
