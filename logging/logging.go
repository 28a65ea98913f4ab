// Package logging provides leveled structured logging for retry and
// rate-limit events. Output is a single line per event in
// LEVEL TIMESTAMP [component] message key=value format, suitable for
// real-time monitoring and grep-based triage.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger provides structured logging to a writer (stdout by default).
type Logger struct {
	mu        sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
}

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a new Logger writing to stdout at INFO level.
func New() *Logger {
	return &Logger{
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// WithComponent returns a new logger tagged with the given component name.
// The parent's output and level are shared at creation time.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	var parts []string
	for k, v := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a log entry: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// --- Event convenience methods ---
// Called by the retry executor and rate limiter so event shapes stay
// consistent across call sites.

// RetryAttempt logs a retryable failure and the computed backoff delay.
func (l *Logger) RetryAttempt(operation string, attempt, maxRetries int, kind, errMsg string, delay time.Duration) {
	l.Warn("retry_attempt", map[string]interface{}{
		"operation":   operation,
		"attempt":     attempt,
		"max_retries": maxRetries,
		"kind":        kind,
		"error":       errMsg,
		"delay":       delay.String(),
	})
}

// RetryExhausted logs a retry budget exhaustion before the failure propagates.
func (l *Logger) RetryExhausted(operation string, maxRetries int, kind, errMsg string) {
	l.Error("retry_exhausted", map[string]interface{}{
		"operation":   operation,
		"max_retries": maxRetries,
		"kind":        kind,
		"error":       errMsg,
	})
}

// FailOpen logs an admission allowed because the rate-limit store was
// unreachable.
func (l *Logger) FailOpen(identity, action string, err error) {
	l.Warn("rate_limit_fail_open", map[string]interface{}{
		"identity": identity,
		"action":   action,
		"error":    err.Error(),
	})
}

// RateLimited logs a denied admission.
func (l *Logger) RateLimited(identity, action string, count, limit int64) {
	l.Debug("rate_limit_denied", map[string]interface{}{
		"identity": identity,
		"action":   action,
		"count":    count,
		"limit":    limit,
	})
}
