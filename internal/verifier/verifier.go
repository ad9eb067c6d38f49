// Package verifier asks a vision-language model whether each staged
// screenshot shows the expected content.
//
// Verification is sequential: one synchronous model call per screenshot, in
// name order. A failure on one screenshot is recorded as an ERROR verdict and
// the loop moves on; only a missing credential or an unreadable staging
// directory aborts the phase.
package verifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harrison/shotcheck/internal/imaging"
	"github.com/harrison/shotcheck/internal/inference"
	"github.com/harrison/shotcheck/internal/models"
	"github.com/harrison/shotcheck/internal/staging"
)

// ErrMissingCredential aliases the inference sentinel so callers need only
// this package.
var ErrMissingCredential = inference.ErrMissingCredential

// Criteria is the visual assertion: the prompt sent with every screenshot
// and the keywords that must all appear in the answer.
type Criteria struct {
	Prompt   string
	Keywords []string
}

// Logger receives per-screenshot progress.
type Logger interface {
	LogVerifyStart(count int)
	LogNothingToVerify(dir string)
	LogArtifactStart(index, total int, artifact models.Artifact)
	LogVerdict(v models.ArtifactVerdict)
}

// Options configures a Verifier.
type Options struct {
	// APIKey is the inference credential. Required.
	APIKey string

	// NewClient builds the inference client. Called at most once per Verify.
	NewClient inference.Factory

	// Criteria is the assertion to evaluate.
	Criteria Criteria

	// Extensions selects which staged files are screenshots. Defaults to ".png".
	Extensions []string

	// CallTimeout bounds each model call. Zero means no deadline beyond ctx.
	CallTimeout time.Duration

	// Logger is optional.
	Logger Logger
}

// Verifier runs the verification phase.
type Verifier struct {
	opts Options
}

// New creates a Verifier.
func New(opts Options) *Verifier {
	if opts.NewClient == nil {
		panic("client factory cannot be nil")
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".png"}
	}
	return &Verifier{opts: opts}
}

// Verify checks every qualifying screenshot under stagingPath.
//
// It returns ErrMissingCredential before touching the filesystem or the
// network when no credential was configured. With no qualifying files the
// report has NothingToVerify set and no client is created. If ctx is
// cancelled mid-run, the partial report is returned with ctx.Err().
func (v *Verifier) Verify(ctx context.Context, stagingPath string) (*models.VerificationReport, error) {
	if strings.TrimSpace(v.opts.APIKey) == "" {
		return nil, ErrMissingCredential
	}

	startTime := time.Now()
	report := &models.VerificationReport{}

	entries, err := staging.List(stagingPath, v.opts.Extensions)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		report.NothingToVerify = true
		report.Duration = time.Since(startTime)
		if v.opts.Logger != nil {
			v.opts.Logger.LogNothingToVerify(stagingPath)
		}
		return report, nil
	}

	client, err := v.opts.NewClient(ctx, v.opts.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create inference client: %w", err)
	}

	if v.opts.Logger != nil {
		v.opts.Logger.LogVerifyStart(len(entries))
	}

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(startTime)
			return report, err
		}

		artifact := models.Artifact{
			Name: entry.Name,
			Path: entry.Path,
			Size: entry.Size,
		}
		if v.opts.Logger != nil {
			v.opts.Logger.LogArtifactStart(i+1, len(entries), artifact)
		}

		verdict := v.verifyOne(ctx, client, artifact)
		report.Verdicts = append(report.Verdicts, verdict)

		if v.opts.Logger != nil {
			v.opts.Logger.LogVerdict(verdict)
		}
	}

	report.Duration = time.Since(startTime)
	return report, nil
}

// verifyOne decodes, submits and classifies a single screenshot.
// Errors never escape; they become an ERROR verdict.
func (v *Verifier) verifyOne(ctx context.Context, client inference.Client, artifact models.Artifact) models.ArtifactVerdict {
	startTime := time.Now()
	verdict := models.ArtifactVerdict{Artifact: artifact}

	fail := func(err error) models.ArtifactVerdict {
		verdict.Assertion = models.AssertionError
		verdict.Error = err
		verdict.Duration = time.Since(startTime)
		return verdict
	}

	decoded, err := imaging.Load(artifact.Path)
	if err != nil {
		return fail(err)
	}
	verdict.Artifact.Format = decoded.Format
	verdict.Artifact.Width = decoded.Width()
	verdict.Artifact.Height = decoded.Height()

	payload, err := imaging.EncodePNG(decoded.Image)
	if err != nil {
		return fail(err)
	}

	callCtx := ctx
	if v.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, v.opts.CallTimeout)
		defer cancel()
	}

	text, err := client.Describe(callCtx, inference.Request{
		Prompt:   v.opts.Criteria.Prompt,
		Image:    payload,
		MIMEType: imaging.PayloadMIMEType,
	})
	if err != nil {
		return fail(fmt.Errorf("inference failed: %w", err))
	}

	verdict.Response = text
	verdict.Assertion = Classify(text, v.opts.Criteria.Keywords)
	verdict.Duration = time.Since(startTime)
	return verdict
}

// Classify derives the assertion from a model response: PASS iff every
// keyword occurs in the response, compared case-insensitively as plain
// substrings. Keyword order and position do not matter.
//
// Negations are not understood: "this is NOT a map of Adelaide" passes for
// the keywords "adelaide" and "map".
func Classify(text string, keywords []string) models.Assertion {
	if text == "" {
		return models.AssertionFail
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if !strings.Contains(lower, strings.ToLower(kw)) {
			return models.AssertionFail
		}
	}
	return models.AssertionPass
}
