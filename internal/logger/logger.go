package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Level maps a LOG_LEVEL value to a slog level; anything unknown is info.
func Level(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a colored handler writing to w.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      Level(level),
		TimeFormat: time.TimeOnly,
		NoColor:    w != os.Stderr,
	}))
}

// Setup installs the stderr logger as the slog default.
func Setup(level string) {
	slog.SetDefault(New(os.Stderr, level))
}
