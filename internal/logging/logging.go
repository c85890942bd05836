// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup installs a text or JSON slog handler writing to w (stderr when nil).
// Debug records are emitted only when verbose is true.
func Setup(verbose bool, jsonOutput bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if w == nil {
		w = os.Stderr
	}

	var logger *slog.Logger
	if jsonOutput {
		logger = slog.New(slog.NewJSONHandler(w, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(w, opts))
	}
	slog.SetDefault(logger)
	return logger
}

// IsJSONFormat reports whether a configured log format selects the JSON handler.
// Anything other than "json" means text.
func IsJSONFormat(format string) bool {
	return strings.EqualFold(strings.TrimSpace(format), "json")
}
