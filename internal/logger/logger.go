// Package logger wraps charm/log for structured logging. A *Logger is
// threaded explicitly through the parser, vault, and CLI; Discard() is
// the default sink so library code never logs unless a caller asks.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging.
type Logger struct {
	*log.Logger
}

// New creates a new logger with the given output.
func New(w io.Writer) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	return &Logger{Logger: l}
}

// NewWithLevel creates a logger with a specific level.
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	return &Logger{Logger: l}
}

// Stderr returns a logger writing human-readable output to stderr.
func Stderr(verbose bool) *Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return NewWithLevel(os.Stderr, level)
}

// Discard returns a logger that discards all output.
func Discard() *Logger {
	return New(io.Discard)
}

// ParseNote logs a region the parser could not interpret.
func (l *Logger) ParseNote(file string, line int, why string) {
	l.Warn("unparseable region left untouched",
		"file", file,
		"line", line+1,
		"why", why)
}

// LaneIDRepaired logs a generated or regenerated lane id.
func (l *Logger) LaneIDRepaired(laneTitle, id, why string) {
	l.Debug("lane id assigned",
		"lane", laneTitle,
		"id", id,
		"why", why)
}

// SettingsFallback logs a malformed per-document settings block.
func (l *Logger) SettingsFallback(file string, err error) {
	l.Warn("settings block unusable, using global defaults",
		"file", file,
		"error", err)
}

// FileError logs an error for a specific file.
func (l *Logger) FileError(file string, err error) {
	l.Error("file error",
		"file", file,
		"error", err)
}

// MutationApplied logs a successful targeted mutation.
func (l *Logger) MutationApplied(file, kind, target string) {
	l.Debug("mutation applied",
		"file", file,
		"kind", kind,
		"target", target)
}

// ScanCompleted logs the end of a workspace scan.
func (l *Logger) ScanCompleted(files, boards, errors int, duration time.Duration) {
	l.Info("scan completed",
		"files", files,
		"boards", boards,
		"errors", errors,
		"duration", duration.Round(time.Millisecond))
}
