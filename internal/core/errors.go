package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common error conditions.
// These can be used with errors.Is() for error type checking.
var (
	// ErrUnauthorized indicates the remote server rejected the credentials.
	// The message is surfaced verbatim to the user and is never retried.
	ErrUnauthorized = errors.New("Not authorized. Please check server credentials.") //nolint:revive,stylecheck // user-facing message

	// ErrStorageCorrupted indicates a persisted record failed its checksum or schema check
	ErrStorageCorrupted = errors.New("storage record is corrupted")
)

// formatError renders the Error/Context/Fix layout used by user-facing errors.
func formatError(summary, context, fix string) string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(summary)
	if context != "" {
		b.WriteString("\nContext: ")
		b.WriteString(context)
	}
	if fix != "" {
		b.WriteString("\nFix: ")
		b.WriteString(fix)
	}
	return b.String()
}

// TransportError is a network, timeout or server-side failure. Safe to retry.
type TransportError struct {
	Op    string
	Cause error
}

// NewTransportError wraps cause as a transport failure of op.
func NewTransportError(op string, cause error) *TransportError {
	return &TransportError{Op: op, Cause: cause}
}

func (e *TransportError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("transport error during %s", e.Op)
	}
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// IsTransportError reports whether err is or wraps a TransportError.
func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsUnauthorized reports whether err is or wraps ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// PreconditionFailedError is returned when an operation is attempted out of order,
// e.g. a module sync before any global sync.
type PreconditionFailedError struct {
	Operation string
	Reason    string
}

// NewPreconditionFailedError creates a PreconditionFailedError.
func NewPreconditionFailedError(operation, reason string) *PreconditionFailedError {
	return &PreconditionFailedError{Operation: operation, Reason: reason}
}

func (e *PreconditionFailedError) Error() string {
	return formatError(
		fmt.Sprintf("cannot %s", e.Operation),
		e.Reason,
		"Run 'connected-lint update' first",
	)
}

// IsPreconditionFailed reports whether err is or wraps a PreconditionFailedError.
func IsPreconditionFailed(err error) bool {
	var target *PreconditionFailedError
	return errors.As(err, &target)
}

// UnsupportedServerError indicates the remote server is too old for a feature.
// Callers branch on MinVersion/ServerVersion instead of parsing the message.
type UnsupportedServerError struct {
	Feature       string
	MinVersion    string
	ServerVersion string
}

// NewUnsupportedServerError creates an UnsupportedServerError.
func NewUnsupportedServerError(feature, minVersion, serverVersion string) *UnsupportedServerError {
	return &UnsupportedServerError{Feature: feature, MinVersion: minVersion, ServerVersion: serverVersion}
}

func (e *UnsupportedServerError) Error() string {
	ctx := ""
	if e.ServerVersion != "" {
		ctx = fmt.Sprintf("server version is %s", e.ServerVersion)
	}
	return formatError(
		fmt.Sprintf("%s requires server version %s or later", e.Feature, e.MinVersion),
		ctx,
		"Upgrade the server or disable this feature",
	)
}

// IsUnsupportedServer reports whether err is or wraps an UnsupportedServerError.
func IsUnsupportedServer(err error) bool {
	var target *UnsupportedServerError
	return errors.As(err, &target)
}

// AnalysisFileError records a parse or semantic failure of one file.
// It never aborts the batch.
type AnalysisFileError struct {
	Path  string
	Cause error
}

func (e *AnalysisFileError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("analysis of %s failed", e.Path)
	}
	return fmt.Sprintf("analysis of %s failed: %v", e.Path, e.Cause)
}

func (e *AnalysisFileError) Unwrap() error { return e.Cause }

// IsAnalysisFileError reports whether err is or wraps an AnalysisFileError.
func IsAnalysisFileError(err error) bool {
	var target *AnalysisFileError
	return errors.As(err, &target)
}

// RemoteUnavailableError is returned by staleness checks when the lightweight fetch fails.
// A check never reports "no update needed" on failure.
type RemoteUnavailableError struct {
	Cause error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("remote server unavailable: %v", e.Cause)
}

func (e *RemoteUnavailableError) Unwrap() error { return e.Cause }

// IsRemoteUnavailable reports whether err is or wraps a RemoteUnavailableError.
func IsRemoteUnavailable(err error) bool {
	var target *RemoteUnavailableError
	return errors.As(err, &target)
}

// RuleNotFoundError is returned when rule details are not present in storage.
type RuleNotFoundError struct {
	Key string
}

func (e *RuleNotFoundError) Error() string {
	return formatError(
		fmt.Sprintf("rule '%s' not found", e.Key),
		"rule details are stored only for rules activated in a quality profile",
		"Run 'connected-lint update' to refresh storage",
	)
}

// IsRuleNotFound reports whether err is or wraps a RuleNotFoundError.
func IsRuleNotFound(err error) bool {
	var target *RuleNotFoundError
	return errors.As(err, &target)
}

// ValidationError describes an invalid configuration value.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	ctx := ""
	if e.Field != "" {
		ctx = fmt.Sprintf("field '%s' in %s", e.Field, ConfigFile)
	}
	return formatError(e.Message, ctx, fmt.Sprintf("Edit %s and try again", ConfigFile))
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
