package main

import (
	"errors"
	"fmt"

	"depaudit/internal/config"
	"depaudit/internal/types"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// toExitError attaches the exit code and failing stage to err. Configuration
// loading errors are mapped onto the config_ codes first so they share the
// same exit status as every other configuration failure.
func toExitError(err error) *ExitError {
	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) {
		code := types.ErrCodeConfigInvalid
		if cfgErr.Type == config.ErrMissingEnv {
			code = types.ErrCodeConfigMissingEnv
		}
		err = types.NewAppError(code, "invalid build environment", err)
	}

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return &ExitError{
			Code: appErr.ExitCode(),
			Err:  fmt.Errorf("%s stage failed: %w", appErr.Code.Stage(), err),
		}
	}
	return &ExitError{Code: 1, Err: err}
}
