package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationReportCounts(t *testing.T) {
	report := &VerificationReport{Verdicts: []ArtifactVerdict{
		{Assertion: AssertionPass},
		{Assertion: AssertionPass},
		{Assertion: AssertionFail},
		{Assertion: AssertionError},
	}}

	assert.Equal(t, 2, report.Passed())
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, 1, report.Errored())
	assert.False(t, report.AllPassed())
}

func TestVerificationReportAllPassed(t *testing.T) {
	tests := []struct {
		name   string
		report *VerificationReport
		want   bool
	}{
		{"nil report", nil, true},
		{"empty", &VerificationReport{NothingToVerify: true}, true},
		{"all pass", &VerificationReport{Verdicts: []ArtifactVerdict{{Assertion: AssertionPass}}}, true},
		{"one fail", &VerificationReport{Verdicts: []ArtifactVerdict{{Assertion: AssertionPass}, {Assertion: AssertionFail}}}, false},
		{"one error", &VerificationReport{Verdicts: []ArtifactVerdict{{Assertion: AssertionError}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.report.AllPassed())
		})
	}
}

func TestRunResultMarshalJSON(t *testing.T) {
	result := RunResult{
		RunID:     "abc",
		Retrieval: &RetrievalResult{Files: []string{"a.png", "b.png"}},
		Verification: &VerificationReport{Verdicts: []ArtifactVerdict{
			{
				Artifact:  Artifact{Name: "a.png"},
				Response:  "A map of Adelaide",
				Assertion: AssertionPass,
				Duration:  1500 * time.Millisecond,
			},
			{
				Artifact:  Artifact{Name: "b.png"},
				Assertion: AssertionError,
				Error:     errors.New("decode image: unknown format"),
			},
		}},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "abc", got["run_id"])
	assert.Equal(t, false, got["success"])
	assert.Equal(t, []any{"a.png", "b.png"}, got["pulled"])
	assert.EqualValues(t, 1, got["passed"])
	assert.EqualValues(t, 0, got["failed"])
	assert.EqualValues(t, 1, got["errored"])
	assert.NotContains(t, got, "error")

	verdicts, ok := got["verdicts"].([]any)
	require.True(t, ok)
	require.Len(t, verdicts, 2)

	first := verdicts[0].(map[string]any)
	assert.Equal(t, "a.png", first["file"])
	assert.Equal(t, "PASS", first["assertion"])
	assert.Equal(t, "A map of Adelaide", first["response"])
	assert.EqualValues(t, 1.5, first["seconds"])

	second := verdicts[1].(map[string]any)
	assert.Equal(t, "ERROR", second["assertion"])
	assert.Equal(t, "decode image: unknown format", second["error"])
	assert.NotContains(t, second, "response")
}

func TestRunResultMarshalJSONAborted(t *testing.T) {
	data, err := json.Marshal(RunResult{RunID: "x", Err: errors.New("device bridge timed out")})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, false, got["success"])
	assert.Equal(t, "device bridge timed out", got["error"])
	assert.Equal(t, []any{}, got["verdicts"])
}

func TestRunResultMarshalJSONNothingToVerify(t *testing.T) {
	data, err := json.Marshal(RunResult{
		RunID:        "y",
		Verification: &VerificationReport{NothingToVerify: true},
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, true, got["success"])
	assert.Equal(t, true, got["nothing_to_verify"])
}
