package core

import (
	"encoding/json"
	"errors"
	"io"
	"os"
)

// CLIResponse is what --json commands print on stdout:
//
//	{"success": true, "data": {...}}
//	{"success": false, "error": {"code": "UNAUTHORIZED", "message": "..."}}
type CLIResponse struct {
	Success bool            `json:"success"`
	Data    interface{}     `json:"data,omitempty"`
	Error   *CLIErrorDetail `json:"error,omitempty"`
}

type CLIErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Process exit codes. ExitNeedsUpdate is returned by check commands that found stale storage.
const (
	ExitSuccess            = 0
	ExitGeneralError       = 1
	ExitInvalidArguments   = 2
	ExitValidationFailed   = 3
	ExitNetworkError       = 4
	ExitUnauthorized       = 5
	ExitPreconditionFailed = 6
	ExitUnsupportedServer  = 7
	ExitNeedsUpdate        = 10
)

const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidArguments   = "INVALID_ARGUMENTS"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeNetworkError       = "NETWORK_ERROR"
	ErrCodePreconditionFailed = "PRECONDITION_FAILED"
	ErrCodeUnsupportedServer  = "UNSUPPORTED_SERVER"
	ErrCodeRuleNotFound       = "RULE_NOT_FOUND"
	ErrCodeStorageCorrupted   = "STORAGE_CORRUPTED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// errorClasses is checked in order; the first match wins, so unauthorized must stay first
// because a RemoteUnavailableError can wrap ErrUnauthorized.
var errorClasses = []struct {
	match    func(error) bool
	code     string
	exitCode int
}{
	{IsUnauthorized, ErrCodeUnauthorized, ExitUnauthorized},
	{IsValidationError, ErrCodeValidationFailed, ExitValidationFailed},
	{IsTransportError, ErrCodeNetworkError, ExitNetworkError},
	{IsRemoteUnavailable, ErrCodeNetworkError, ExitNetworkError},
	{IsPreconditionFailed, ErrCodePreconditionFailed, ExitPreconditionFailed},
	{IsUnsupportedServer, ErrCodeUnsupportedServer, ExitUnsupportedServer},
	{IsRuleNotFound, ErrCodeRuleNotFound, ExitGeneralError},
	{func(err error) bool { return errors.Is(err, ErrStorageCorrupted) }, ErrCodeStorageCorrupted, ExitGeneralError},
}

func classifyError(err error) (code string, exitCode int) {
	for _, c := range errorClasses {
		if c.match(err) {
			return c.code, c.exitCode
		}
	}
	return ErrCodeInternalError, ExitGeneralError
}

// CLIExitCodeForError maps an engine error to a process exit code.
func CLIExitCodeForError(err error) int {
	_, exitCode := classifyError(err)
	return exitCode
}

// CLIErrorCodeForError maps an engine error to the code reported in CLIErrorDetail.
func CLIErrorCodeForError(err error) string {
	code, _ := classifyError(err)
	return code
}

// cliOutput is replaced in tests.
var cliOutput io.Writer = os.Stdout

func writeCLIResponse(resp CLIResponse) {
	enc := json.NewEncoder(cliOutput)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp)
}

// EmitCLISuccess prints data as a successful CLIResponse.
func EmitCLISuccess(data interface{}) {
	writeCLIResponse(CLIResponse{Success: true, Data: data})
}

// EmitCLIError prints a failed CLIResponse and returns exitCode for os.Exit.
func EmitCLIError(code, message string, exitCode int) int {
	writeCLIResponse(CLIResponse{Error: &CLIErrorDetail{Code: code, Message: message}})
	return exitCode
}
