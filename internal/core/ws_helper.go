package core

import (
	"context"
	"fmt"

	"github.com/EmundoT/connected-lint/internal/types"
)

// ServerAdmin is the part of the web API used by WSHelper.
type ServerAdmin interface {
	Authenticate(ctx context.Context, creds types.Credentials) error
	FetchServerVersion(ctx context.Context) (string, error)
	ListOrganizations(ctx context.Context) ([]types.Organization, error)
	GenerateToken(ctx context.Context, name string, force bool) (string, error)
}

// Compile-time interface satisfaction check.
var _ ServerAdmin = (*WSClient)(nil)

// ValidationResult is the outcome of a connection check.
type ValidationResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ServerVersion string `json:"server_version,omitempty"`
}

// WSHelper offers server operations that do not touch storage.
type WSHelper struct {
	admin ServerAdmin
	creds types.Credentials
}

// NewWSHelper creates a WSHelper authenticating with creds.
func NewWSHelper(admin ServerAdmin, creds types.Credentials) *WSHelper {
	return &WSHelper{admin: admin, creds: creds}
}

// ValidateConnection checks that the server is reachable and accepts the credentials.
// Connection problems are reported in the result, not as an error.
func (h *WSHelper) ValidateConnection(ctx context.Context) ValidationResult {
	version, err := h.admin.FetchServerVersion(ctx)
	if err != nil {
		return ValidationResult{Message: err.Error()}
	}
	if err := h.admin.Authenticate(ctx, h.creds); err != nil {
		return ValidationResult{Message: err.Error(), ServerVersion: version}
	}
	return ValidationResult{Success: true, Message: "Connection successful", ServerVersion: version}
}

// GenerateAuthenticationToken creates a user token named name.
// With force, an existing token of the same name is replaced.
func (h *WSHelper) GenerateAuthenticationToken(ctx context.Context, name string, force bool) (string, error) {
	if name == "" {
		return "", NewValidationError("token name", "must not be empty")
	}
	if err := h.requireVersion(ctx, "user tokens", MinVersionUserTokens); err != nil {
		return "", err
	}
	if err := h.admin.Authenticate(ctx, h.creds); err != nil {
		return "", err
	}
	token, err := h.admin.GenerateToken(ctx, name, force)
	if err != nil {
		return "", fmt.Errorf("generate token %s: %w", name, err)
	}
	return token, nil
}

// ListOrganizations returns the organizations visible to the credentials.
func (h *WSHelper) ListOrganizations(ctx context.Context) ([]types.Organization, error) {
	if err := h.requireVersion(ctx, "organizations", MinVersionOrganizations); err != nil {
		return nil, err
	}
	if err := h.admin.Authenticate(ctx, h.creds); err != nil {
		return nil, err
	}
	orgs, err := h.admin.ListOrganizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return orgs, nil
}

func (h *WSHelper) requireVersion(ctx context.Context, feature, minVersion string) error {
	version, err := h.admin.FetchServerVersion(ctx)
	if err != nil {
		return err
	}
	return RequireVersion(feature, minVersion, version)
}
