// Package retriever copies screenshots from a device into a clean local
// staging directory.
package retriever

import (
	"context"
	"fmt"

	"github.com/harrison/shotcheck/internal/bridge"
	"github.com/harrison/shotcheck/internal/models"
	"github.com/harrison/shotcheck/internal/staging"
)

// Puller is the part of the device bridge the retriever depends on.
type Puller interface {
	Pull(ctx context.Context, src, dst string) (*bridge.Output, error)
}

// Retriever wipes the staging directory and pulls the device directory into it.
type Retriever struct {
	bridge Puller
}

// New creates a Retriever using the given bridge.
func New(b Puller) *Retriever {
	if b == nil {
		panic("bridge cannot be nil")
	}
	return &Retriever{bridge: b}
}

// Retrieve destroys and recreates localStagingPath, then pulls everything
// under deviceSourcePath into it. The device is never modified.
//
// A nil error means the transfer succeeded. On failure the returned result
// still carries whatever the bridge printed, so callers can surface it.
// There are no retries.
func (r *Retriever) Retrieve(ctx context.Context, deviceSourcePath, localStagingPath string) (*models.RetrievalResult, error) {
	result := &models.RetrievalResult{
		Source:      deviceSourcePath,
		Destination: localStagingPath,
		ExitCode:    -1,
	}

	lock := staging.NewLock(localStagingPath)
	if err := lock.TryLock(); err != nil {
		return result, err
	}
	defer lock.Unlock()

	if err := staging.Reset(localStagingPath); err != nil {
		return result, err
	}

	out, err := r.bridge.Pull(ctx, deviceSourcePath, localStagingPath)
	if out != nil {
		result.Stdout = out.Stdout
		result.Stderr = out.Stderr
		result.ExitCode = out.ExitCode
		result.Duration = out.Duration
	}
	if err != nil {
		return result, fmt.Errorf("failed to pull %s: %w", deviceSourcePath, err)
	}

	entries, err := staging.List(localStagingPath, nil)
	if err != nil {
		return result, err
	}
	for _, e := range entries {
		result.Files = append(result.Files, e.Name)
	}

	return result, nil
}
