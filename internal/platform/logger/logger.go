// Package logger provides structured logging functionality for the application.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Options configures the logging system.
type Options struct {
	// Level is the minimum level to emit: debug, info, warn or error.
	// Invalid values fall back to info with a warning.
	Level string

	// Dir, when non-empty, is a directory that receives a JSON log file per
	// run in addition to the console stream.
	Dir string
}

// Setup initializes the application's logging system. It creates a structured
// JSON logger at the configured level, optionally teeing into a per-run log
// file, and installs it as the slog default.
//
// The returned closer flushes and closes the log file, if any.
func Setup(opts Options) (*slog.Logger, func() error, error) {
	level := parseLevel(opts.Level)

	var out io.Writer = os.Stdout
	closer := func() error { return nil }

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, err
		}
		name := filepath.Join(opts.Dir, time.Now().UTC().Format("2006-01-02_15-04-05")+".log")
		file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file.Close
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	log := slog.New(handler)
	slog.SetDefault(log)

	if !validLevel(opts.Level) && opts.Level != "" {
		log.Warn("invalid log level configured, using default level",
			"configured_level", opts.Level,
			"default_level", "info")
	}

	return log, closer, nil
}

// parseLevel maps a level name to a slog.Level, case-insensitively.
func parseLevel(value string) slog.Level {
	switch strings.ToLower(value) {
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

func validLevel(value string) bool {
	switch strings.ToLower(value) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}
