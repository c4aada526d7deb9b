// Package logger wraps log/slog. Options carry env tags so config can fill them.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger is a wrapper around the standard slog.Logger.
type Logger struct {
	*slog.Logger
}

// Options is the exportable logger configuration.
type Options struct {
	Level      string `yaml:"level" env:"LOG_LEVEL" default:"WARN"`
	Output     string `yaml:"output" env:"LOG_OUTPUT" default:"STDERR"`
	Format     string `yaml:"format" env:"LOG_FORMAT" default:"text"`
	TimeFormat string `yaml:"time_format" env:"LOG_TIME_FORMAT" default:"RFC3339"`
}

type options struct {
	level      slog.Level
	output     io.Writer
	format     string
	timeFormat string
}

// Option overrides a setting after Options are applied.
type Option func(*options)

// WithLevel sets the minimum level ("DEBUG", "INFO", "WARN", "ERROR").
func WithLevel(level string) Option {
	return func(o *options) {
		o.level = parseLevel(level)
	}
}

// WithOutput sends log records to w.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// New creates a Logger from opts.
func New(cfg Options, opts ...Option) *Logger {
	o := &options{
		level:      parseLevel(cfg.Level),
		output:     parseOutput(cfg.Output),
		format:     strings.ToLower(cfg.Format),
		timeFormat: cfg.TimeFormat,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.output == nil {
		o.output = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level: o.level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key != slog.TimeKey || o.timeFormat == "" {
				return a
			}
			switch o.timeFormat {
			case "Unix":
				return slog.Int64(slog.TimeKey, a.Value.Time().Unix())
			case "UnixMilli":
				return slog.Int64(slog.TimeKey, a.Value.Time().UnixMilli())
			case "RFC3339":
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			case "RFC3339Nano":
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339Nano))
			default:
				return slog.String(slog.TimeKey, a.Value.Time().Format(o.timeFormat))
			}
		},
	}

	var handler slog.Handler
	switch o.format {
	case "json":
		handler = slog.NewJSONHandler(o.output, handlerOpts)
	default:
		handler = slog.NewTextHandler(o.output, handlerOpts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a Logger that drops every record.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func parseOutput(output string) io.Writer {
	switch strings.ToUpper(strings.TrimSpace(output)) {
	case "STDOUT":
		return os.Stdout
	case "DISCARD":
		return io.Discard
	default:
		return os.Stderr
	}
}
