// Package logging configures structured diagnostics for jarvis.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFileEnv names the environment variable that redirects diagnostics to a file.
const LogFileEnv = "JARVIS_LOG_FILE"

// Logger wraps slog and owns the log file, if any.
type Logger struct {
	*slog.Logger
	file *os.File
}

// ParseLevel maps a level name to a slog level. Unknown names map to warn.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// New builds a text logger writing to filePath, or to fallback when filePath
// is empty or cannot be opened.
func New(level, filePath string, fallback io.Writer) *Logger {
	if fallback == nil {
		fallback = os.Stderr
	}
	output := fallback
	var logFile *os.File
	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			output = f
			logFile = f
		}
	}
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{Level: ParseLevel(level)})
	return &Logger{Logger: slog.New(handler), file: logFile}
}

// FromEnv builds the process logger: warn by default, debug when requested,
// written to $JARVIS_LOG_FILE when set and stderr otherwise.
func FromEnv(debug bool) *Logger {
	level := "warn"
	if debug {
		level = "debug"
	}
	return New(level, os.Getenv(LogFileEnv), os.Stderr)
}

// WithComponent returns a child logger tagged with the component name.
func (l *Logger) WithComponent(name string) *slog.Logger {
	return l.Logger.With("component", name)
}

// Close closes the log file if one is open
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
