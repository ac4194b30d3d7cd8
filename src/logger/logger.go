package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// -----------------------------------------------------------------------------

// Level ordering for filtering.
const (
	levelDebug = iota
	levelInfo
	levelWarning
	levelError
)

// Logger provides leveled logging with a component-name prefix.
type Logger struct {
	name   string
	logger *log.Logger
	min    int
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. level is one of DEBUG, INFO,
// WARNING, ERROR; anything else defaults to INFO.
func NewLogger(level string, name string) *Logger {
	min := levelInfo
	switch strings.ToUpper(level) {
	case "DEBUG":
		min = levelDebug
	case "INFO":
		min = levelInfo
	case "WARNING":
		min = levelWarning
	case "ERROR":
		min = levelError
	}

	return &Logger{
		name:   name,
		logger: log.New(os.Stdout, "", log.LstdFlags),
		min:    min,
	}
}

// -----------------------------------------------------------------------------

// Named returns a logger with the same level but a different component name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{name: name, logger: l.logger, min: l.min}
}

// -----------------------------------------------------------------------------

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.min > levelDebug {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] DEBUG: %s", l.name, msg)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	if l.min > levelInfo {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] INFO: %s", l.name, msg)
}

// -----------------------------------------------------------------------------

// Warning logs warning messages
func (l *Logger) Warning(format string, args ...interface{}) {
	if l.min > levelWarning {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] WARNING: %s", l.name, msg)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] ERROR: %s", l.name, msg)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] CRITICAL: %s", l.name, msg)
	os.Exit(1)
}
