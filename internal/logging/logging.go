// Package logging wraps github.com/charmbracelet/log behind a small
// Config/New surface, mirroring the level/output/report-caller knobs the
// CLI layer exposes via --verbose/--quiet.
package logging

import (
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Config configures a Logger.
type Config struct {
	Level           string // "debug", "info", "warn", "error"
	Output          io.Writer
	ReportCaller    bool
	ReportTimestamp bool
}

// Logger wraps *charmlog.Logger with the pipeline's structured-field
// conventions (tu_id, part, stage, elapsed).
type Logger struct {
	*charmlog.Logger
}

// New constructs a Logger from cfg, defaulting Output to stderr and Level to
// info on zero values.
func New(cfg Config) (*Logger, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	lvl, err := charmlog.ParseLevel(orDefault(cfg.Level, "info"))
	if err != nil {
		return nil, fmt.Errorf("logging: invalid level %q: %w", cfg.Level, err)
	}
	l := charmlog.NewWithOptions(out, charmlog.Options{
		Level:           lvl,
		ReportCaller:    cfg.ReportCaller,
		ReportTimestamp: cfg.ReportTimestamp,
	})
	return &Logger{Logger: l}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Stage logs an Info-level line for one pipeline stage transition on one
// TU, with the conventional key-value fields.
func (l *Logger) Stage(stage, part string, tuID int, kv ...any) {
	args := append([]any{"stage", stage, "part", part, "tu_id", tuID}, kv...)
	l.Info("pipeline stage", args...)
}
