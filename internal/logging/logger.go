// Package logging builds the service's slog logger on top of
// charmbracelet/log.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

// New creates a configured application logger writing to w.
// level is one of debug, info, warn, error (default info); format is
// text, json or logfmt (default text).
func New(w io.Writer, level, format string) *slog.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	h := log.NewWithOptions(w, log.Options{
		Prefix:          "entitytree",
		Level:           lvl,
		ReportTimestamp: true,
		Formatter:       formatter(format),
	})
	return slog.New(h)
}

func formatter(format string) log.Formatter {
	switch strings.ToLower(format) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(log.NewWithOptions(io.Discard, log.Options{}))
}
