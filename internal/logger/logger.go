// ABOUTME: Structured logging configuration using log/slog.
// ABOUTME: CLI commands log to stderr; the TUI logs to a file so the screen stays clean.

package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu      sync.Mutex
	logFile *os.File
)

// Init configures the default slog logger to write to w.
// LOG_LEVEL: debug, info, warn, error (default: warn)
// LOG_FORMAT: text, json (default: text)
func Init(w io.Writer) {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	format := strings.ToLower(os.Getenv("LOG_FORMAT"))

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// InitFile points the default logger at debug.log in configDir.
// If configDir is empty, log output is discarded.
func InitFile(configDir string) error {
	mu.Lock()
	defer mu.Unlock()

	if configDir == "" {
		Init(io.Discard)
		return nil
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		Init(io.Discard)
		return err
	}

	f, err := os.OpenFile(filepath.Join(configDir, "debug.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		Init(io.Discard)
		return err
	}

	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	Init(f)
	return nil
}

// Close closes the log file opened by InitFile, if any
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	Init(io.Discard)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
