// Package logger provides opinionated logging for the aikit library and its
// CLI and proxy surfaces, built on log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level   slog.Level
	pretty  bool
	json    bool
	source  bool
	writers []io.Writer
}

// New creates a *slog.Logger. The default is a text handler on stdout at
// Info level; options select pretty CLI output, JSON service output, level,
// source annotation and alternate writers.
func New(opts ...Option) *slog.Logger {
	cfg := &config{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(cfg)
	}

	var w io.Writer = os.Stdout
	if len(cfg.writers) == 1 {
		w = cfg.writers[0]
	} else if len(cfg.writers) > 1 {
		w = io.MultiWriter(cfg.writers...)
	}

	var handler slog.Handler
	switch {
	case cfg.pretty:
		charmLevel := charmlog.InfoLevel
		if cfg.level == slog.LevelDebug {
			charmLevel = charmlog.DebugLevel
		}
		handler = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmLevel,
			ReportCaller:    cfg.source,
			ReportTimestamp: true,
		})
	case cfg.json:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     cfg.level,
			AddSource: cfg.source,
		})
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     cfg.level,
			AddSource: cfg.source,
		})
	}

	return slog.New(handler)
}

// Nop returns a logger that discards everything. Library components accept
// an optional logger and fall back to this when given none.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
