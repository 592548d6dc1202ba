// Package logger installs the process-wide structured logger.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Init sets the default slog logger to a JSON handler on stderr. The level
// comes from LOG_LEVEL; unrecognized values mean info.
func Init() {
	var level slog.Level
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
