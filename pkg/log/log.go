// Package log provides structured logging for walletdash.
package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers.
var (
	Session  zerolog.Logger
	Chain    zerolog.Logger
	Provider zerolog.Logger
	Watcher  zerolog.Logger
	Server   zerolog.Logger
)

// Options configures Init.
type Options struct {
	Level string
	JSON  bool
	// File receives JSON logs in addition to the console.
	File string
	// Quiet disables console output, e.g. while the TUI owns the terminal.
	Quiet bool
}

func init() {
	SetLogger(NewConsoleLogger(os.Stderr, "info"))
}

// Init replaces the global logger. The returned closer releases the log
// file, if any.
func Init(opts Options) (io.Closer, error) {
	var writers []io.Writer
	if !opts.Quiet {
		if opts.JSON {
			writers = append(writers, os.Stderr)
		} else {
			writers = append(writers, consoleWriter(os.Stderr))
		}
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		writers = append(writers, f)
		closer = f
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	// Console output goes through a ConsoleWriter, which reformats the
	// JSON lines.
	SetLogger(NewJSONLogger(out, opts.Level))
	return closer, nil
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(consoleWriter(w)).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// SetLogger installs l as the global logger and rebuilds component loggers.
func SetLogger(l zerolog.Logger) {
	Logger = l
	initComponentLoggers()
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func initComponentLoggers() {
	Session = WithComponent("session")
	Chain = WithComponent("chain")
	Provider = WithComponent("provider")
	Watcher = WithComponent("watcher")
	Server = WithComponent("server")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
