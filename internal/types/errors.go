package types

import (
	"fmt"
	"strings"
)

// ErrorCode is a typed string for categorizing pipeline errors.
// The prefix of every code names the pipeline stage that produced it.
type ErrorCode string

// Complete error code constants.
// All stages MUST use these constants instead of hardcoded strings.
const (
	// Configuration (build environment is malformed)
	ErrCodeConfigMissingEnv     ErrorCode = "config_missing_env"
	ErrCodeConfigInvalid        ErrorCode = "config_invalid"
	ErrCodeConfigUnknownProfile ErrorCode = "config_unknown_profile"

	// Resolver (cargo metadata)
	ErrCodeResolverExec        ErrorCode = "resolver_exec_failed"
	ErrCodeResolverOutput      ErrorCode = "resolver_output_invalid"
	ErrCodeResolverRootMissing ErrorCode = "resolver_root_missing"
	ErrCodeResolverNoGraph     ErrorCode = "resolver_graph_missing"

	// Audit record construction
	ErrCodeRecordUnknownPackage ErrorCode = "record_unknown_package"
	ErrCodeRecordUnknownSource  ErrorCode = "record_unknown_source"

	// Packaging (serialization, compression, file I/O)
	ErrCodePackageEncode ErrorCode = "package_encode_failed"
	ErrCodePackageDecode ErrorCode = "package_decode_failed"
	ErrCodePackageWrite  ErrorCode = "package_write_failed"
	ErrCodePackageRead   ErrorCode = "package_read_failed"

	// Publishing the artifact location to the compile step
	ErrCodePublishNotReady ErrorCode = "publish_artifact_not_ready"
	ErrCodePublishWrite    ErrorCode = "publish_write_failed"
)

// ExitCode maps an ErrorCode to the process exit status used by the CLI.
// Build systems only care that it is non-zero; the distinct values let a
// wrapper script tell configuration mistakes apart from resolver failures.
// Returns 1 for unrecognized error codes.
func (c ErrorCode) ExitCode() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "config_"):
		return 2
	case strings.HasPrefix(s, "resolver_"):
		return 3
	case strings.HasPrefix(s, "record_"):
		return 4
	case strings.HasPrefix(s, "package_"):
		return 5
	case strings.HasPrefix(s, "publish_"):
		return 6
	default:
		return 1
	}
}

// Stage returns the human-readable pipeline stage name for the code.
func (c ErrorCode) Stage() string {
	prefix, _, found := strings.Cut(string(c), "_")
	if !found {
		return "unknown"
	}
	switch prefix {
	case "config":
		return "configuration"
	case "resolver":
		return "dependency resolution"
	case "record":
		return "audit record"
	case "package":
		return "packaging"
	case "publish":
		return "publish"
	default:
		return "unknown"
	}
}

// AppError is the standard error type returned by every pipeline stage.
// Diagnostics printed by the CLI are derived from it, so the failing stage is
// always identifiable from the build log.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit status corresponding to this error's code.
func (e *AppError) ExitCode() int {
	return e.Code.ExitCode()
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError with the given code, message,
// underlying error, and structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}
