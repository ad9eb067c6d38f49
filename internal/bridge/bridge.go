// Package bridge wraps the device bridge CLI (adb) used to copy files off a
// connected device or emulator.
package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Pull waits for output pipes after the process exits.
const waitDelay = 5 * time.Second

// ErrBridgeNotFound is returned when the bridge executable cannot be located.
var ErrBridgeNotFound = errors.New("device bridge executable not found")

// ErrBridgeTimeout is returned when the bridge process exceeds its deadline.
var ErrBridgeTimeout = errors.New("device bridge timed out")

// TransferError reports a bridge process that ran but exited non-zero.
// Both output streams are kept verbatim for diagnosis.
type TransferError struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("device bridge exited with code %d\nstdout: %s\nstderr: %s",
		e.ExitCode, strings.TrimRight(e.Stdout, "\n"), strings.TrimRight(e.Stderr, "\n"))
}

// Bridge manages invocations of the device bridge CLI
type Bridge struct {
	// Path is the bridge executable. Defaults to "adb" (found in PATH).
	Path string

	// Serial selects a device when more than one is attached (-s flag).
	Serial string

	// Timeout bounds a single invocation. Zero means no deadline beyond ctx.
	Timeout time.Duration
}

// Output captures one bridge invocation
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// New creates a Bridge with default settings
func New() *Bridge {
	return &Bridge{
		Path: "adb",
	}
}

// BuildPullArgs constructs the arguments for a pull of src into dst
func (b *Bridge) BuildPullArgs(src, dst string) []string {
	args := []string{}
	if b.Serial != "" {
		args = append(args, "-s", b.Serial)
	}
	return append(args, "pull", src, dst)
}

// Pull copies everything under the device directory src into the local directory dst.
// It never modifies the device. A single attempt is made.
func (b *Bridge) Pull(ctx context.Context, src, dst string) (*Output, error) {
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	path := b.Path
	if path == "" {
		path = "adb"
	}

	startTime := time.Now()

	cmd := exec.CommandContext(ctx, path, b.BuildPullArgs(src, dst)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// adb may fork a server that inherits the output pipes
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if errors.Is(err, exec.ErrWaitDelay) {
		err = nil
	}

	out := &Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(startTime),
	}

	if err == nil {
		return out, nil
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		out.ExitCode = -1
		return out, fmt.Errorf("%w: %s: %v", ErrBridgeNotFound, path, err)
	}

	// A killed process surfaces as an ExitError too; check the deadline first
	if ctxErr := ctx.Err(); ctxErr != nil {
		out.ExitCode = -1
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return out, fmt.Errorf("%w after %s", ErrBridgeTimeout, out.Duration.Round(time.Millisecond))
		}
		return out, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, &TransferError{
			ExitCode: out.ExitCode,
			Stdout:   out.Stdout,
			Stderr:   out.Stderr,
		}
	}

	out.ExitCode = -1
	return out, fmt.Errorf("device bridge invocation failed: %w", err)
}
