package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/harrison/shotcheck/internal/bridge"
	"github.com/harrison/shotcheck/internal/inference"
	"github.com/harrison/shotcheck/internal/models"
	"github.com/harrison/shotcheck/internal/staging"
)

// Process exit codes
const (
	ExitOK          = 0   // Every screenshot passed, or there was nothing to verify
	ExitFailed      = 1   // At least one FAIL or ERROR verdict, or an unclassified error
	ExitConfig      = 2   // Invalid configuration or missing credential
	ExitDevice      = 3   // Bridge missing, transfer failed or timed out, staging busy
	ExitInterrupted = 130 // Cancelled by SIGINT or SIGTERM
)

// ExitError carries a process exit code alongside the error that caused it.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// configError marks err as a configuration problem.
func configError(err error) error {
	return &ExitError{Code: ExitConfig, Err: err}
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var transferErr *bridge.TransferError
	switch {
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, inference.ErrMissingCredential):
		return ExitConfig
	case errors.Is(err, bridge.ErrBridgeNotFound),
		errors.Is(err, bridge.ErrBridgeTimeout),
		errors.Is(err, staging.ErrBusy),
		errors.As(err, &transferErr):
		return ExitDevice
	default:
		return ExitFailed
	}
}

// RunExitCode maps a completed run to the process exit code.
func RunExitCode(result models.RunResult) int {
	if result.Err != nil {
		return ExitCode(result.Err)
	}
	if !result.Verification.AllPassed() {
		return ExitFailed
	}
	return ExitOK
}

// runError turns a finished run into the error returned from RunE, or nil
// when the process should exit 0.
func runError(result models.RunResult) error {
	code := RunExitCode(result)
	if code == ExitOK {
		return nil
	}
	if result.Err != nil {
		return &ExitError{Code: code, Err: result.Err}
	}

	v := result.Verification
	return &ExitError{
		Code: code,
		Err: fmt.Errorf("%d of %d screenshots did not pass (%d failed, %d errors)",
			v.Failed()+v.Errored(), len(v.Verdicts), v.Failed(), v.Errored()),
	}
}
