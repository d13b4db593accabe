// Package log is a small level-filtered logger shared by every package in
// the module. Output goes to stderr by default; the terminal UI redirects
// it into a Journal while it owns the screen.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

// Constants for log levels.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// Tags are padded to a common width so messages line up.
var levelTags = [...]string{
	LevelDebug: "[DEBUG] ",
	LevelInfo:  "[INFO]  ",
	LevelWarn:  "[WARN]  ",
	LevelError: "[ERROR] ",
	LevelFatal: "[FATAL] ",
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	if int(l) >= len(levelTags) {
		return "UNKNOWN"
	}
	return strings.Trim(levelTags[l], "[] ")
}

// ParseLevel converts a string (case-insensitive, surrounding space
// ignored) to a LogLevel. "warning" is accepted for LevelWarn. Returns
// LevelInfo and false if the string is not recognized.
func ParseLevel(s string) (LogLevel, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		return LevelWarn, true
	}
	for l := range levelTags {
		if LogLevel(l).String() == s {
			return LogLevel(l), true
		}
	}
	return LevelInfo, false
}

var (
	currentLevel atomic.Uint32

	// stdlog.Logger serialises concurrent writes, so SetOutput is safe at
	// any time.
	logger = stdlog.New(os.Stderr, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds)

	// Replaced in tests.
	exit = os.Exit
)

func init() {
	SetLevel(LevelInfo)
}

// SetLevel sets the global logging level atomically.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
}

// GetLevel gets the current global logging level atomically.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

// Enabled reports whether messages at level are currently written.
func Enabled(level LogLevel) bool {
	return level >= GetLevel()
}

// SetOutput redirects all subsequent log lines to w.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Writer returns the current log destination.
func Writer() io.Writer {
	return logger.Writer()
}

func logf(level LogLevel, format string, v []any) {
	if level < LevelFatal && !Enabled(level) {
		return
	}
	_ = logger.Output(3, levelTags[level]+fmt.Sprintf(format, v...))
}

// Debugf logs a formatted debug message if the level is appropriate.
func Debugf(format string, v ...any) { logf(LevelDebug, format, v) }

// Infof logs a formatted info message if the level is appropriate.
func Infof(format string, v ...any) { logf(LevelInfo, format, v) }

// Warnf logs a formatted warning message if the level is appropriate.
func Warnf(format string, v ...any) { logf(LevelWarn, format, v) }

// Errorf logs a formatted error message if the level is appropriate.
func Errorf(format string, v ...any) { logf(LevelError, format, v) }

// Fatalf logs a formatted message regardless of level and exits with
// status 1.
func Fatalf(format string, v ...any) {
	logf(LevelFatal, format, v)
	exit(1)
}
