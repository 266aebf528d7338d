// Package logging configures structured logging for splitledger binaries.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Options controls handler construction.
type Options struct {
	// Level is the minimum level to emit. Defaults to the LOG_LEVEL
	// environment variable, then to info.
	Level slog.Leveler

	// Writer defaults to os.Stderr.
	Writer io.Writer

	// ForceColor enables the colored handler even when the writer is
	// not a terminal.
	ForceColor bool
}

// Setup installs the default slog logger: colored tint output on
// terminals, plain JSON otherwise.
func Setup(opts Options) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	level := opts.Level
	if level == nil {
		level = LevelFromEnv()
	}

	color := opts.ForceColor
	if f, ok := w.(*os.File); ok && !color {
		color = isatty.IsTerminal(f.Fd())
	}

	var handler slog.Handler
	if color {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

// LevelFromEnv reads LOG_LEVEL (debug, info, warn, error).
func LevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
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
