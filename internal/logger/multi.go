package logger

import "github.com/harrison/shotcheck/internal/models"

// RunLogger is the full set of events a run reports.
type RunLogger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogRetrievalStart(src, dst string)
	LogRetrieval(result *models.RetrievalResult, err error)
	LogVerifyStart(count int)
	LogNothingToVerify(dir string)
	LogArtifactStart(index, total int, artifact models.Artifact)
	LogVerdict(v models.ArtifactVerdict)
	LogSummary(result models.RunResult)
}

// MultiLogger implements RunLogger by delegating to multiple loggers
type MultiLogger struct {
	loggers []RunLogger
}

// NewMultiLogger fans events out to every non-nil logger.
func NewMultiLogger(loggers ...RunLogger) *MultiLogger {
	ml := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			ml.loggers = append(ml.loggers, l)
		}
	}
	return ml
}

// LogDebug forwards to all loggers
func (ml *MultiLogger) LogDebug(message string) {
	for _, l := range ml.loggers {
		l.LogDebug(message)
	}
}

// LogInfo forwards to all loggers
func (ml *MultiLogger) LogInfo(message string) {
	for _, l := range ml.loggers {
		l.LogInfo(message)
	}
}

// LogWarn forwards to all loggers
func (ml *MultiLogger) LogWarn(message string) {
	for _, l := range ml.loggers {
		l.LogWarn(message)
	}
}

// LogError forwards to all loggers
func (ml *MultiLogger) LogError(message string) {
	for _, l := range ml.loggers {
		l.LogError(message)
	}
}

// LogRetrievalStart forwards to all loggers
func (ml *MultiLogger) LogRetrievalStart(src, dst string) {
	for _, l := range ml.loggers {
		l.LogRetrievalStart(src, dst)
	}
}

// LogRetrieval forwards to all loggers
func (ml *MultiLogger) LogRetrieval(result *models.RetrievalResult, err error) {
	for _, l := range ml.loggers {
		l.LogRetrieval(result, err)
	}
}

// LogVerifyStart forwards to all loggers
func (ml *MultiLogger) LogVerifyStart(count int) {
	for _, l := range ml.loggers {
		l.LogVerifyStart(count)
	}
}

// LogNothingToVerify forwards to all loggers
func (ml *MultiLogger) LogNothingToVerify(dir string) {
	for _, l := range ml.loggers {
		l.LogNothingToVerify(dir)
	}
}

// LogArtifactStart forwards to all loggers
func (ml *MultiLogger) LogArtifactStart(index, total int, artifact models.Artifact) {
	for _, l := range ml.loggers {
		l.LogArtifactStart(index, total, artifact)
	}
}

// LogVerdict forwards to all loggers
func (ml *MultiLogger) LogVerdict(v models.ArtifactVerdict) {
	for _, l := range ml.loggers {
		l.LogVerdict(v)
	}
}

// LogSummary forwards to all loggers
func (ml *MultiLogger) LogSummary(result models.RunResult) {
	for _, l := range ml.loggers {
		l.LogSummary(result)
	}
}
