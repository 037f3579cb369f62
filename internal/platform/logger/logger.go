// Package logger provides structured logging for the simulation server.
// Everything the engine decides should be traceable through this.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger provides structured logging with context.
type Logger struct {
	base *logrus.Logger
}

// NewLogger creates a new logger instance. LOG_LEVEL controls verbosity
// (default info).
func NewLogger() *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	return &Logger{base: base}
}

// Info logs informational messages.
func (l *Logger) Info(format string, args ...interface{}) {
	l.base.Infof(format, args...)
}

// Warn logs warning messages.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.base.Warnf(format, args...)
}

// Error logs error messages.
func (l *Logger) Error(format string, args ...interface{}) {
	l.base.Errorf(format, args...)
}

// Event logs a simulation event with its kind and subject for oversight.
func (l *Logger) Event(kind string, subject string, details string) {
	l.base.WithFields(logrus.Fields{
		"event":   kind,
		"subject": subject,
	}).Info(details)
}
