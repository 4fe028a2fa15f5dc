package slogutil

import (
	"io"
	"log/slog"

	"apifp/internal/config"
)

// LoggerFactory builds the CLI logger from configuration and flags.
// Precedence: CLI flags > logging.level config > info.
type LoggerFactory struct {
	config   config.LoggingConfig
	cliLevel *slog.Level
	closers  []io.Closer
}

// NewLoggerFactory creates a factory. cliLevel is nil when no verbosity flag was given.
func NewLoggerFactory(cfg config.LoggingConfig, cliLevel *slog.Level) *LoggerFactory {
	return &LoggerFactory{config: cfg, cliLevel: cliLevel}
}

// Level returns the effective level
func (f *LoggerFactory) Level() slog.Level {
	if f.cliLevel != nil {
		return *f.cliLevel
	}
	if f.config.Level != "" {
		return LevelFromString(f.config.Level)
	}
	return slog.LevelInfo
}

// Logger creates a logger writing to w in the configured format, and also to
// logging.file when one is configured
func (f *LoggerFactory) Logger(w io.Writer) (*slog.Logger, error) {
	level := f.Level()
	primary := f.handler(w, level)
	if f.config.File == "" {
		return slog.New(primary), nil
	}

	file, closer, err := NewFileLogger(f.config.File, slog.LevelDebug)
	if err != nil {
		return nil, err
	}
	f.closers = append(f.closers, closer)
	return slog.New(NewTeeHandler(primary, file.Handler())), nil
}

func (f *LoggerFactory) handler(w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if f.config.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return NewHandler(w, opts)
}

// Close closes all open log files
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
