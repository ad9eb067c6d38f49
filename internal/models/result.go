package models

import (
	"encoding/json"
	"time"
)

// Assertion is the verdict derived for one screenshot.
type Assertion string

// Assertion values
const (
	AssertionPass  Assertion = "PASS"  // Response contained every required keyword
	AssertionFail  Assertion = "FAIL"  // Response was received but did not confirm the subject
	AssertionError Assertion = "ERROR" // Decode or inference failed; artifact skipped
)

// ArtifactVerdict represents the result of verifying a single screenshot
type ArtifactVerdict struct {
	Artifact  Artifact      // The screenshot that was verified
	Response  string        // Raw free-text response from the model
	Assertion Assertion     // PASS, FAIL or ERROR
	Error     error         // Set when Assertion is ERROR
	Duration  time.Duration // Time spent decoding and calling the model
}

// VerificationReport aggregates the verdicts of one verification phase
type VerificationReport struct {
	Verdicts        []ArtifactVerdict // One entry per qualifying screenshot, in processing order
	NothingToVerify bool              // True when the staging directory held no qualifying files
	Duration        time.Duration     // Total phase duration
}

// Passed returns the number of PASS verdicts.
func (r *VerificationReport) Passed() int {
	return r.count(AssertionPass)
}

// Failed returns the number of FAIL verdicts.
func (r *VerificationReport) Failed() int {
	return r.count(AssertionFail)
}

// Errored returns the number of artifacts skipped with an error.
func (r *VerificationReport) Errored() int {
	return r.count(AssertionError)
}

// AllPassed reports whether every verdict is PASS. An empty report counts as passed.
func (r *VerificationReport) AllPassed() bool {
	return r.Failed() == 0 && r.Errored() == 0
}

func (r *VerificationReport) count(a Assertion) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, v := range r.Verdicts {
		if v.Assertion == a {
			n++
		}
	}
	return n
}

// RetrievalResult captures the outcome of one device-to-host transfer
type RetrievalResult struct {
	Source      string        // Device-side directory
	Destination string        // Local staging directory
	Stdout      string        // Bridge standard output, verbatim
	Stderr      string        // Bridge standard error, verbatim
	ExitCode    int           // Bridge exit code (0 on success, -1 if it never ran)
	Files       []string      // Files present in staging after the transfer, relative and sorted
	Duration    time.Duration // Time taken by the transfer
}

// RunResult represents the aggregate result of one pipeline run
type RunResult struct {
	RunID        string              // Unique identifier for this run
	Retrieval    *RetrievalResult    // Nil when retrieval was not part of the run
	Verification *VerificationReport // Nil when verification was skipped or not part of the run
	Err          error               // Phase-level error that aborted the run, if any
	Duration     time.Duration       // Total run time
}

type verdictJSON struct {
	File      string  `json:"file"`
	Assertion string  `json:"assertion"`
	Response  string  `json:"response,omitempty"`
	Error     string  `json:"error,omitempty"`
	Seconds   float64 `json:"seconds"`
}

type runJSON struct {
	RunID           string        `json:"run_id"`
	Success         bool          `json:"success"`
	Error           string        `json:"error,omitempty"`
	Pulled          []string      `json:"pulled,omitempty"`
	NothingToVerify bool          `json:"nothing_to_verify,omitempty"`
	Passed          int           `json:"passed"`
	Failed          int           `json:"failed"`
	Errored         int           `json:"errored"`
	Verdicts        []verdictJSON `json:"verdicts"`
}

// MarshalJSON renders the run in a stable, machine-readable shape.
// Errors are flattened to strings since error values do not marshal.
func (r RunResult) MarshalJSON() ([]byte, error) {
	out := runJSON{
		RunID:    r.RunID,
		Success:  r.Err == nil && (r.Verification == nil || r.Verification.AllPassed()),
		Verdicts: []verdictJSON{},
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	if r.Retrieval != nil {
		out.Pulled = r.Retrieval.Files
	}
	if v := r.Verification; v != nil {
		out.NothingToVerify = v.NothingToVerify
		out.Passed = v.Passed()
		out.Failed = v.Failed()
		out.Errored = v.Errored()
		for _, verdict := range v.Verdicts {
			vj := verdictJSON{
				File:      verdict.Artifact.Name,
				Assertion: string(verdict.Assertion),
				Response:  verdict.Response,
				Seconds:   verdict.Duration.Seconds(),
			}
			if verdict.Error != nil {
				vj.Error = verdict.Error.Error()
			}
			out.Verdicts = append(out.Verdicts, vj)
		}
	}
	return json.Marshal(out)
}
