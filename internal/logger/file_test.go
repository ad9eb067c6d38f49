package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harrison/shotcheck/internal/models"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	return string(data)
}

// TestLogDirectoryCreation verifies the log directory is created on initialization
func TestLogDirectoryCreation(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), ".shotcheck", "logs")

	logger, err := NewFileLogger(logDir, "info", "run-1")
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("expected log directory %s to exist", logDir)
	}
}

// TestPerRunLogFile verifies a timestamped log file and latest.log symlink
func TestPerRunLogFile(t *testing.T) {
	logDir := t.TempDir()

	logger, err := NewFileLogger(logDir, "info", "run-1")
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	defer logger.Close()

	name := filepath.Base(logger.Path())
	if !strings.HasPrefix(name, "run-") || !strings.HasSuffix(name, ".log") {
		t.Errorf("unexpected run log name %q", name)
	}

	target, err := os.Readlink(filepath.Join(logDir, "latest.log"))
	if err != nil {
		t.Fatalf("expected latest.log symlink: %v", err)
	}
	if target != name {
		t.Errorf("latest.log -> %q, want %q", target, name)
	}

	out := readLog(t, logger.Path())
	if !strings.Contains(out, "=== shotcheck Run Log ===") || !strings.Contains(out, "Run ID: run-1") {
		t.Errorf("missing header:\n%s", out)
	}
}

// TestRunLogNamesAreUnique verifies runs started back to back get separate files
func TestRunLogNamesAreUnique(t *testing.T) {
	logDir := t.TempDir()

	first, err := NewFileLogger(logDir, "info", "aaaaaaaa-1111")
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	defer first.Close()
	second, err := NewFileLogger(logDir, "info", "bbbbbbbb-2222")
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	defer second.Close()

	if first.Path() == second.Path() {
		t.Fatalf("both runs write to %s", first.Path())
	}
	if out := readLog(t, first.Path()); strings.Contains(out, "bbbbbbbb-2222") {
		t.Errorf("first run log contains the second run:\n%s", out)
	}
	if out := readLog(t, second.Path()); strings.Contains(out, "aaaaaaaa-1111") {
		t.Errorf("second run log contains the first run:\n%s", out)
	}
}

func TestRunLogName(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 10, 10, 123*int(time.Millisecond), time.UTC)

	tests := []struct {
		runID string
		want  string
	}{
		{"0123456789ab", "run-20261015-101010.123-01234567.log"},
		{"r1", "run-20261015-101010.123-r1.log"},
		{"a/b", "run-20261015-101010.123-a_b.log"},
		{"", "run-20261015-101010.123.log"},
	}
	for _, tt := range tests {
		if got := runLogName(now, tt.runID); got != tt.want {
			t.Errorf("runLogName(%q) = %q, want %q", tt.runID, got, tt.want)
		}
	}
}

// TestLatestSymlinkReplaced verifies an existing latest.log is repointed
func TestLatestSymlinkReplaced(t *testing.T) {
	logDir := t.TempDir()
	if err := os.Symlink("run-old.log", filepath.Join(logDir, "latest.log")); err != nil {
		t.Fatal(err)
	}

	logger, err := NewFileLogger(logDir, "info", "run-2")
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	defer logger.Close()

	target, err := os.Readlink(filepath.Join(logDir, "latest.log"))
	if err != nil {
		t.Fatal(err)
	}
	if target != filepath.Base(logger.Path()) {
		t.Errorf("latest.log still points at %q", target)
	}
}

// TestFileLoggerRecordsRun verifies the full event sequence lands in the file
func TestFileLoggerRecordsRun(t *testing.T) {
	logger, err := NewFileLogger(t.TempDir(), "debug", "run-3")
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	logger.LogRetrievalStart("/sdcard/Pictures/screenshots/", "staging")
	logger.LogRetrieval(&models.RetrievalResult{
		ExitCode: 0,
		Stdout:   "2 files pulled",
		Files:    []string{"a.png", "b.png"},
	}, nil)
	logger.LogVerifyStart(2)
	logger.LogArtifactStart(1, 2, models.Artifact{Name: "a.png", Size: 42})
	logger.LogVerdict(models.ArtifactVerdict{
		Artifact:  models.Artifact{Name: "a.png", Format: "png", Width: 4, Height: 2},
		Response:  "A map of Adelaide.",
		Assertion: models.AssertionPass,
		Duration:  time.Second,
	})
	logger.LogVerdict(models.ArtifactVerdict{
		Artifact:  models.Artifact{Name: "b.png"},
		Assertion: models.AssertionError,
		Error:     errors.New("corrupt"),
	})
	logger.LogSummary(models.RunResult{
		RunID: "run-3",
		Verification: &models.VerificationReport{Verdicts: []models.ArtifactVerdict{
			{Assertion: models.AssertionPass},
			{Assertion: models.AssertionError},
		}},
	})

	path := logger.Path()
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	out := readLog(t, path)
	for _, want := range []string{
		"pull /sdcard/Pictures/screenshots/ -> staging",
		"retrieval succeeded",
		"2 files pulled",
		"pulled: a.png",
		"pulled: b.png",
		"verifying 2 screenshot(s)",
		"analyzing a.png (1/2, 42 bytes)",
		"a.png: PASS",
		"image: png 4x2",
		"A map of Adelaide.",
		"b.png: ERROR",
		"error: corrupt",
		"Errors:       1",
		"Status:       FAILED",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log:\n%s", want, out)
		}
	}
}

// TestFileLoggerFailedRetrieval verifies the bridge streams are kept on failure
func TestFileLoggerFailedRetrieval(t *testing.T) {
	logger, err := NewFileLogger(t.TempDir(), "error", "run-4")
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	logger.LogRetrieval(&models.RetrievalResult{
		ExitCode: 1,
		Stderr:   "adb: error: no devices/emulators found",
	}, errors.New("failed to pull"))
	logger.LogSummary(models.RunResult{RunID: "run-4", Err: errors.New("failed to pull")})

	path := logger.Path()
	logger.Close()

	out := readLog(t, path)
	for _, want := range []string{
		"[ERROR] retrieval failed: failed to pull",
		"exit code: 1",
		"no devices/emulators found",
		"(empty)",
		"Status:       ABORTED",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log:\n%s", want, out)
		}
	}
}

// TestFileLoggerCloseIdempotent verifies writes after Close are dropped silently
func TestFileLoggerCloseIdempotent(t *testing.T) {
	logger, err := NewFileLogger(t.TempDir(), "info", "run-5")
	if err != nil {
		t.Fatal(err)
	}
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	logger.LogInfo("after close")
}

// TestIndent verifies multi-line bodies are indented and empty bodies marked
func TestIndent(t *testing.T) {
	if got := indent(""); got != "    (empty)\n" {
		t.Errorf("indent(\"\") = %q", got)
	}
	if got := indent("a\nb\n"); got != "    a\n    b\n" {
		t.Errorf("indent multi-line = %q", got)
	}
}
