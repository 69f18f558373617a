// Package xlog provides structured logging for xvc using zerolog.
//
// It provides the component-logger pattern: a subsystem (e.g. "file.track",
// "git", "watcher") gets a child logger tagged with its name, so log lines can
// be filtered by component in production.
package xlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var Logger zerolog.Logger

type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration. cmd/xvc populates Level from the
// cumulative -v/--verbose and --quiet CLI flags only; the core.verbosity
// config key is not read into it.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case InfoLevel:
		level = zerolog.InfoLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

// WithComponent returns a child logger tagged with the subsystem name, e.g.
// "walker", "ecs", "pipeline", "cache", "diff".
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithStep tags a logger with the step name for pipeline run output.
func WithStep(stepName string) zerolog.Logger {
	return Logger.With().Str("step", stepName).Logger()
}

// WithEntity tags a logger with an entity's decimal u128 representation.
func WithEntity(entity string) zerolog.Logger {
	return Logger.With().Str("entity", entity).Logger()
}

func init() {
	// Safe defaults so packages used as libraries (tests, other tools) don't
	// panic on a nil logger before Init is called by cmd/xvc.
	Init(Config{Level: InfoLevel})
}
