// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options selects level, output format and whether lines are mirrored to
// the platform debug-trace sink.
type Options struct {
	Level      string
	Format     string
	DebugTrace bool
}

// ParseLevel accepts trace, debug, info, warn (or warning) and error.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("invalid log level: %s (must be trace, debug, info, warn, or error)", level)
	}
}

// Setup replaces log.Logger and the default context logger and returns the
// new logger.
func Setup(opts Options) (zerolog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return log.Logger, err
	}

	tty := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	writers := []io.Writer{newWriter(os.Stderr, opts.Format, tty)}
	if opts.DebugTrace {
		if sink := traceSink(); sink != nil {
			writers = append(writers, zerolog.ConsoleWriter{Out: sink, NoColor: true, TimeFormat: time.TimeOnly})
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger
	return logger, nil
}

// newWriter picks the human-readable console writer for terminals and
// "console", and raw JSON lines otherwise.
func newWriter(out io.Writer, format string, tty bool) io.Writer {
	switch strings.ToLower(format) {
	case "json":
		return out
	case "console":
		return zerolog.ConsoleWriter{Out: out, NoColor: !tty, TimeFormat: time.RFC3339}
	}
	if tty {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return out
}
