// Package logging builds the service logger: slog with a JSON or text
// handler, optionally teeing into a size-rotated log file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"tradebridge/internal/config"
)

// New creates a slog.Logger from the logging configuration. With a
// file configured, output goes to both stdout and a size-rotated log
// file; otherwise stdout only.
func New(cfg config.LoggingConfig) *slog.Logger {
	var writer io.Writer = os.Stdout

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err == nil {
			fileLogger := &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,  // Megabytes
				MaxBackups: cfg.MaxBackups, // Number of backups
				MaxAge:     cfg.MaxAgeDays, // Days
				Compress:   cfg.Compress,
			}
			writer = io.MultiWriter(os.Stdout, fileLogger)
		}
		// Fall through to stdout only when the log directory cannot
		// be created.
	}

	opts := &slog.HandlerOptions{
		Level: Level(cfg.Level),
	}

	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(writer, opts))
	}
	return slog.New(slog.NewJSONHandler(writer, opts))
}

// Level maps a config level string to a slog.Level. Unknown values
// default to info.
func Level(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
