// Package log_manager configures the leveled logger shared by all Jarvis
// components. Records go to the console and to a daily file under the
// user's log directory.
package log_manager

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Options controls where and how verbosely the logger writes.
type Options struct {
	// LogDir is the directory for the daily log file. Empty means
	// ~/.jarvis/logs. Set to "-" to disable the file handler.
	LogDir       string
	ConsoleLevel slog.Level
	FileLevel    slog.Level
}

// New builds a logger with a console handler and, when possible, a daily
// rotating file handler. A failure to open the log file is not fatal; the
// console handler alone is returned.
func New(opts Options) (*slog.Logger, func(), error) {
	consoleHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: opts.ConsoleLevel,
	})

	if opts.LogDir == "-" {
		return slog.New(consoleHandler), func() {}, nil
	}

	logDir := opts.LogDir
	if logDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return slog.New(consoleHandler), func() {}, nil
		}
		logDir = filepath.Join(home, ".jarvis", "logs")
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return slog.New(consoleHandler), func() {}, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("jarvis_%s.log", time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return slog.New(consoleHandler), func() {}, fmt.Errorf("failed to open log file: %w", err)
	}

	fileHandler := slog.NewTextHandler(f, &slog.HandlerOptions{
		Level: opts.FileLevel,
	})

	logger := slog.New(newTeeHandler(consoleHandler, fileHandler))
	closer := func() { _ = f.Close() }
	return logger, closer, nil
}

// NewDiscard returns a logger that drops everything. Used in tests.
func NewDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(100),
	}))
}

// LevelFromString maps a config string to a slog.Level, defaulting to info.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
