// Package config provides logging setup and the optional TOML defaults file
// for the cpplumber CLI.
//
// The logging subsystem uses Go's stdlib log/slog package exclusively. All
// log output is directed to os.Stderr so stdout carries nothing but the
// report.
package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SetupLogging configures the global slog default logger with the given log
// level and format. The format parameter should be "json" for JSON output or
// any other value for human-readable text output.
//
// This function is safe to call multiple times (idempotent). Each call
// replaces the previous global logger configuration.
func SetupLogging(level slog.Level, format string) {
	SetupLoggingWithWriter(level, format, os.Stderr)
}

// SetupLoggingWithWriter is the testing variant of SetupLogging, allowing log
// output to be captured in a buffer rather than written to os.Stderr.
func SetupLoggingWithWriter(level slog.Level, format string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// ResolveLogLevel determines the appropriate slog.Level from CLI flags and
// environment variables. The priority order (highest to lowest) is:
//
//  1. CPPLUMBER_DEBUG=1 environment variable -> slog.LevelDebug
//  2. verbose flag (--verbose) -> slog.LevelDebug
//  3. quiet flag (--quiet) -> slog.LevelError
//  4. Default -> slog.LevelWarn
//
// The default is warn rather than info: per-run progress is debug-level
// detail for a tool whose primary output is the report itself.
func ResolveLogLevel(verbose, quiet bool) slog.Level {
	if os.Getenv("CPPLUMBER_DEBUG") == "1" {
		return slog.LevelDebug
	}

	if verbose {
		return slog.LevelDebug
	}

	if quiet {
		return slog.LevelError
	}

	return slog.LevelWarn
}

// ResolveLogFormat reads the CPPLUMBER_LOG_FORMAT environment variable and
// returns the log format string: "json" when set to "json"
// (case-insensitive), "text" otherwise.
func ResolveLogFormat() string {
	if strings.EqualFold(os.Getenv("CPPLUMBER_LOG_FORMAT"), "json") {
		return "json"
	}
	return "text"
}

// NewLogger returns a child logger derived from the global default logger
// with a "component" attribute set to the given name.
func NewLogger(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
