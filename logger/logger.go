package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Log is the process-wide logger. Messages carry a "[component]" prefix and
// key/value attributes.
var Log *slog.Logger

var level = new(slog.LevelVar)

func init() {
	Log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

// SetLevel accepts debug, info, warn or error. Anything else leaves the level
// at info.
func SetLevel(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}
