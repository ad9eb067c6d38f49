// Package logger provides logging implementations for shotcheck runs.
//
// Loggers report retrieval, per-screenshot verdicts and the run summary as
// human-readable progress lines. Implementations are safe for concurrent use
// and write to the console or to a per-run log file.
package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/shotcheck/internal/bridge"
	"github.com/harrison/shotcheck/internal/models"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs run progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// Color output is enabled automatically when writing to a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether w is a TTY that should receive ANSI colors.
// NO_COLOR is honoured through color.NoColor.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	coloredLevel := level
	if cl.colorOutput {
		switch level {
		case "DEBUG":
			coloredLevel = color.New(color.FgCyan).Sprint(level)
		case "INFO":
			coloredLevel = color.New(color.FgBlue).Sprint(level)
		case "WARN":
			coloredLevel = color.New(color.FgYellow).Sprint(level)
		case "ERROR":
			coloredLevel = color.New(color.FgRed).Sprint(level)
		}
	}

	cl.write(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), coloredLevel, message))
}

// write emits pre-formatted text under the mutex.
func (cl *ConsoleLogger) write(text string) {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	cl.writer.Write([]byte(text))
}

// block prefixes every line of body with a timestamp.
func block(ts, body string) string {
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return ""
	}
	var b strings.Builder
	for _, line := range strings.Split(body, "\n") {
		fmt.Fprintf(&b, "[%s]   %s\n", ts, line)
	}
	return b.String()
}

// LogRetrievalStart logs the beginning of a transfer at INFO level.
// Format: "[HH:MM:SS] Pulling screenshots from <src> to <dst>"
func (cl *ConsoleLogger) LogRetrievalStart(src, dst string) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}
	cl.write(fmt.Sprintf("[%s] Pulling screenshots from %s to %s\n", timestamp(), src, dst))
}

// LogRetrieval logs the outcome of a transfer. Bridge output is echoed
// verbatim; failures are logged regardless of level.
func (cl *ConsoleLogger) LogRetrieval(result *models.RetrievalResult, err error) {
	if cl.writer == nil {
		return
	}

	ts := timestamp()
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)

	if err != nil {
		var output string
		var transferErr *bridge.TransferError
		switch {
		case errors.Is(err, bridge.ErrBridgeNotFound):
			msg := fmt.Sprintf("Error: %v. Please ensure Android SDK Platform-Tools are installed and in your PATH.", err)
			if cl.colorOutput {
				msg = red.Sprint(msg)
			}
			output = fmt.Sprintf("[%s] %s\n", ts, msg)
		case errors.As(err, &transferErr):
			header := fmt.Sprintf("Error pulling screenshots (exit code %d):", transferErr.ExitCode)
			if cl.colorOutput {
				header = red.Sprint(header)
			}
			output = fmt.Sprintf("[%s] %s\n", ts, header)
			output += fmt.Sprintf("[%s] Stdout:\n%s", ts, block(ts, transferErr.Stdout))
			output += fmt.Sprintf("[%s] Stderr:\n%s", ts, block(ts, transferErr.Stderr))
		default:
			msg := fmt.Sprintf("Error pulling screenshots: %v", err)
			if cl.colorOutput {
				msg = red.Sprint(msg)
			}
			output = fmt.Sprintf("[%s] %s\n", ts, msg)
		}
		cl.write(output)
		return
	}

	if !cl.shouldLog("info") || result == nil {
		return
	}

	output := fmt.Sprintf("[%s] Bridge output:\n%s", ts, block(ts, result.Stdout))
	if strings.TrimSpace(result.Stderr) != "" {
		output += fmt.Sprintf("[%s] Bridge error output:\n%s", ts, block(ts, result.Stderr))
	}
	done := fmt.Sprintf("Screenshots pulled successfully (%d %s, %s).",
		len(result.Files), plural(len(result.Files), "file", "files"), formatDuration(result.Duration))
	if cl.colorOutput {
		done = green.Sprint(done)
	}
	output += fmt.Sprintf("[%s] %s\n", ts, done)
	cl.write(output)
}

// LogVerifyStart logs how many screenshots are about to be verified.
func (cl *ConsoleLogger) LogVerifyStart(count int) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}
	cl.write(fmt.Sprintf("[%s] Verifying %d %s\n", timestamp(), count, plural(count, "screenshot", "screenshots")))
}

// LogNothingToVerify reports an empty staging directory.
func (cl *ConsoleLogger) LogNothingToVerify(dir string) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}
	msg := "No screenshots found to verify."
	if cl.colorOutput {
		msg = color.New(color.FgYellow).Sprint(msg)
	}
	cl.write(fmt.Sprintf("[%s] %s (%s)\n", timestamp(), msg, dir))
}

// LogArtifactStart logs that a screenshot is being sent to the model.
// index is 1-based.
// Format: "[HH:MM:SS] [====      ] 2/5 (40%) Analyzing <name>..."
func (cl *ConsoleLogger) LogArtifactStart(index, total int, artifact models.Artifact) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}
	pb := NewProgressBar(total, 10, cl.colorOutput)
	pb.Update(index)
	cl.write(fmt.Sprintf("[%s] %s Analyzing %s...\n", timestamp(), pb.Render(), artifact.Name))
}

// LogVerdict prints the raw model response and the assertion for one screenshot.
// Verdicts are always shown: they are the output of the run.
func (cl *ConsoleLogger) LogVerdict(v models.ArtifactVerdict) {
	if cl.writer == nil {
		return
	}

	ts := timestamp()
	name := v.Artifact.Name
	var output string

	switch v.Assertion {
	case models.AssertionError:
		msg := fmt.Sprintf("Error analyzing %s: %v", name, v.Error)
		if cl.colorOutput {
			msg = color.New(color.FgRed).Sprint(msg)
		}
		output = fmt.Sprintf("[%s] %s\n", ts, msg)
	default:
		output = fmt.Sprintf("[%s] Model analysis for %s:\n%s", ts, name, block(ts, v.Response))

		status := "PASSED"
		detail := "the model confirmed the expected content"
		statusColor := color.New(color.FgGreen, color.Bold)
		if v.Assertion != models.AssertionPass {
			status = "FAILED"
			detail = "the model did not confirm the expected content"
			statusColor = color.New(color.FgRed, color.Bold)
		}
		if cl.colorOutput {
			status = statusColor.Sprint(status)
		}
		output += fmt.Sprintf("[%s] Assertion %s for %s: %s.\n", ts, status, name, detail)
	}

	cl.write(output)
}

// LogSummary logs the run summary at INFO level.
func (cl *ConsoleLogger) LogSummary(result models.RunResult) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	ts := timestamp()
	header := "=== Verification Summary ==="
	if cl.colorOutput {
		header = color.New(color.Bold).Sprint(header)
	}
	output := fmt.Sprintf("[%s] %s\n", ts, header)
	output += fmt.Sprintf("[%s] Run: %s\n", ts, result.RunID)

	if result.Retrieval != nil {
		output += fmt.Sprintf("[%s] Pulled: %d %s\n", ts, len(result.Retrieval.Files), plural(len(result.Retrieval.Files), "file", "files"))
	}

	if v := result.Verification; v != nil {
		passed := fmt.Sprintf("Passed: %d", v.Passed())
		failed := fmt.Sprintf("Failed: %d", v.Failed())
		errored := fmt.Sprintf("Errors: %d", v.Errored())
		if cl.colorOutput {
			passed = color.New(color.FgGreen).Sprint(passed)
			if v.Failed() > 0 {
				failed = color.New(color.FgRed).Sprint(failed)
			}
			if v.Errored() > 0 {
				errored = color.New(color.FgYellow).Sprint(errored)
			}
		}
		output += fmt.Sprintf("[%s] Screenshots: %d\n", ts, len(v.Verdicts))
		output += fmt.Sprintf("[%s] %s\n", ts, passed)
		output += fmt.Sprintf("[%s] %s\n", ts, failed)
		output += fmt.Sprintf("[%s] %s\n", ts, errored)
	} else if result.Err != nil {
		output += fmt.Sprintf("[%s] Verification: skipped\n", ts)
	}

	if result.Err != nil {
		msg := fmt.Sprintf("Aborted: %v", result.Err)
		if cl.colorOutput {
			msg = color.New(color.FgRed).Sprint(msg)
		}
		output += fmt.Sprintf("[%s] %s\n", ts, msg)
	}
	output += fmt.Sprintf("[%s] Duration: %s\n", ts, formatDuration(result.Duration))

	cl.write(output)
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// formatDuration converts a time.Duration to a human-readable string.
// Sub-second durations are shown in milliseconds.
// Examples: "350ms", "5s", "1m30s"
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d >= time.Minute:
		minutes := d / time.Minute
		seconds := (d % time.Minute) / time.Second
		if seconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
}
