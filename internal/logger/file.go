package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/shotcheck/internal/models"
)

// FileLogger writes run events to a timestamped file in the log directory
// and maintains a latest.log symlink pointing to the most recent run.
// Output is never colored. It is thread-safe.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger writing to logDir at the given level.
// It creates the directory if needed and writes a header naming runID.
func NewFileLogger(logDir, logLevel, runID string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	runFile := filepath.Join(logDir, runLogName(time.Now(), runID))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	fl := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	fl.writeRunLog("=== shotcheck Run Log ===\n")
	fl.writeRunLog(fmt.Sprintf("Run ID: %s\n", runID))
	fl.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return fl, nil
}

// runLogName returns run-YYYYMMDD-HHMMSS.mmm-<id>.log, where id is the
// first 8 characters of runID. Runs started in the same millisecond still
// get distinct files.
func runLogName(now time.Time, runID string) string {
	id := strings.Map(func(r rune) rune {
		if r == '/' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, runID)
	if len(id) > 8 {
		id = id[:8]
	}
	name := "run-" + now.Format("20060102-150405.000")
	if id != "" {
		name += "-" + id
	}
	return name + ".log"
}

// Path returns the path of the current run log.
func (fl *FileLogger) Path() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogRetrievalStart records the transfer source and destination.
func (fl *FileLogger) LogRetrievalStart(src, dst string) {
	fl.logWithLevel("INFO", fmt.Sprintf("pull %s -> %s", src, dst))
}

// LogRetrieval records the transfer outcome including the full bridge output.
func (fl *FileLogger) LogRetrieval(result *models.RetrievalResult, err error) {
	var b strings.Builder
	ts := timestamp()

	if err != nil {
		fmt.Fprintf(&b, "[%s] [ERROR] retrieval failed: %v\n", ts, err)
	} else {
		if !fl.shouldLog("info") {
			return
		}
		fmt.Fprintf(&b, "[%s] [INFO] retrieval succeeded\n", ts)
	}
	if result != nil {
		fmt.Fprintf(&b, "  exit code: %d\n", result.ExitCode)
		fmt.Fprintf(&b, "  duration:  %.1fs\n", result.Duration.Seconds())
		fmt.Fprintf(&b, "  stdout:\n%s", indent(result.Stdout))
		fmt.Fprintf(&b, "  stderr:\n%s", indent(result.Stderr))
		for _, f := range result.Files {
			fmt.Fprintf(&b, "  pulled: %s\n", f)
		}
	}

	fl.writeRunLog(b.String())
}

// LogVerifyStart records how many screenshots qualify for verification.
func (fl *FileLogger) LogVerifyStart(count int) {
	fl.logWithLevel("INFO", fmt.Sprintf("verifying %d screenshot(s)", count))
}

// LogNothingToVerify records an empty staging directory.
func (fl *FileLogger) LogNothingToVerify(dir string) {
	fl.logWithLevel("INFO", fmt.Sprintf("no screenshots found to verify in %s", dir))
}

// LogArtifactStart records the screenshot about to be analyzed.
func (fl *FileLogger) LogArtifactStart(index, total int, artifact models.Artifact) {
	fl.logWithLevel("DEBUG", fmt.Sprintf("analyzing %s (%d/%d, %d bytes)", artifact.Name, index, total, artifact.Size))
}

// LogVerdict records the verdict and raw response for one screenshot.
func (fl *FileLogger) LogVerdict(v models.ArtifactVerdict) {
	var b strings.Builder
	ts := timestamp()

	fmt.Fprintf(&b, "[%s] [INFO] %s: %s (%.1fs)\n", ts, v.Artifact.Name, v.Assertion, v.Duration.Seconds())
	if v.Artifact.Format != "" {
		fmt.Fprintf(&b, "  image: %s %dx%d\n", v.Artifact.Format, v.Artifact.Width, v.Artifact.Height)
	}
	if v.Error != nil {
		fmt.Fprintf(&b, "  error: %v\n", v.Error)
	}
	if v.Response != "" {
		fmt.Fprintf(&b, "  response:\n%s", indent(v.Response))
	}

	fl.writeRunLog(b.String())
}

// LogSummary records final statistics and overall status.
func (fl *FileLogger) LogSummary(result models.RunResult) {
	ts := timestamp()

	status := "SUCCESS"
	switch {
	case result.Err != nil:
		status = "ABORTED"
	case result.Verification != nil && !result.Verification.AllPassed():
		status = "FAILED"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s] === RUN SUMMARY ===\n", ts)
	fmt.Fprintf(&b, "[%s] Run ID:       %s\n", ts, result.RunID)
	if v := result.Verification; v != nil {
		fmt.Fprintf(&b, "[%s] Screenshots:  %d\n", ts, len(v.Verdicts))
		fmt.Fprintf(&b, "[%s] Passed:       %d\n", ts, v.Passed())
		fmt.Fprintf(&b, "[%s] Failed:       %d\n", ts, v.Failed())
		fmt.Fprintf(&b, "[%s] Errors:       %d\n", ts, v.Errored())
	}
	if result.Err != nil {
		fmt.Fprintf(&b, "[%s] Error:        %v\n", ts, result.Err)
	}
	fmt.Fprintf(&b, "[%s] Total time:   %.1fs\n", ts, result.Duration.Seconds())
	fmt.Fprintf(&b, "[%s] Status:       %s\n", ts, status)
	fmt.Fprintf(&b, "[%s] Completed at: %s\n", ts, time.Now().Format(time.RFC3339))

	fl.writeRunLog(b.String())
}

// Close flushes and closes the run log.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		fl.runLog.Sync()
	}
}

func indent(text string) string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return "    (empty)\n"
	}
	return "    " + strings.ReplaceAll(text, "\n", "\n    ") + "\n"
}
