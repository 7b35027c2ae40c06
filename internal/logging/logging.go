// Package logging builds this repository's one structured logger, which
// always renders through tint's colourised console handler; there is no
// plain-text fallback.
package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a slog.Logger at the given level, rendered with tint.
func New(levelName string) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      parseLevel(levelName),
		TimeFormat: time.Kitchen,
	}))
}

func parseLevel(name string) slog.Level {
	switch name {
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
