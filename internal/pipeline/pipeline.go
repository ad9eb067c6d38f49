// Package pipeline sequences the retrieval and verification phases of a run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/shotcheck/internal/models"
)

// Logger defines the interface for logging pipeline progress and results.
type Logger interface {
	LogRetrievalStart(src, dst string)
	LogRetrieval(result *models.RetrievalResult, err error)
	LogSummary(result models.RunResult)
}

// Retriever pulls artifacts from the device into the staging directory.
type Retriever interface {
	Retrieve(ctx context.Context, src, dst string) (*models.RetrievalResult, error)
}

// Verifier checks the artifacts in the staging directory.
type Verifier interface {
	Verify(ctx context.Context, stagingPath string) (*models.VerificationReport, error)
}

// Config selects the phases of one run.
type Config struct {
	RunID    string // Run identifier; generated when empty
	Source   string // Device-side directory
	Staging  string // Local staging directory
	Retrieve bool   // Run the retrieval phase
	Verify   bool   // Run the verification phase
}

// Pipeline runs the phases strictly in sequence.
type Pipeline struct {
	retriever Retriever
	verifier  Verifier
	logger    Logger
	newRunID  func() string
}

// New creates a Pipeline. Either phase collaborator may be nil when the
// corresponding phase is never requested. The logger is optional.
func New(retriever Retriever, verifier Verifier, logger Logger) *Pipeline {
	return &Pipeline{
		retriever: retriever,
		verifier:  verifier,
		logger:    logger,
		newRunID:  uuid.NewString,
	}
}

// Run executes the requested phases. Verification only starts after a
// successful retrieval. The returned error is the same as result.Err.
func (p *Pipeline) Run(ctx context.Context, cfg Config) (models.RunResult, error) {
	startTime := time.Now()
	result := models.RunResult{RunID: cfg.RunID}
	if result.RunID == "" {
		result.RunID = p.newRunID()
	}

	finish := func(err error) (models.RunResult, error) {
		result.Err = err
		result.Duration = time.Since(startTime)
		if p.logger != nil {
			p.logger.LogSummary(result)
		}
		return result, err
	}

	if !cfg.Retrieve && !cfg.Verify {
		return finish(fmt.Errorf("no phase selected"))
	}
	if cfg.Staging == "" {
		return finish(fmt.Errorf("staging directory cannot be empty"))
	}

	if cfg.Retrieve {
		if p.retriever == nil {
			return finish(fmt.Errorf("retrieval requested but no retriever configured"))
		}
		if p.logger != nil {
			p.logger.LogRetrievalStart(cfg.Source, cfg.Staging)
		}
		retrieval, err := p.retriever.Retrieve(ctx, cfg.Source, cfg.Staging)
		result.Retrieval = retrieval
		if p.logger != nil {
			p.logger.LogRetrieval(retrieval, err)
		}
		if err != nil {
			return finish(err)
		}
	}

	if cfg.Verify {
		if p.verifier == nil {
			return finish(fmt.Errorf("verification requested but no verifier configured"))
		}
		report, err := p.verifier.Verify(ctx, cfg.Staging)
		result.Verification = report
		if err != nil {
			return finish(err)
		}
	}

	return finish(nil)
}
