// Package logging adapts a zerolog logger to the [types.Logger] interface
// expected by the sqs package.
package logging

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/slackmgr/types"
)

// Logger is a [types.Logger] backed by zerolog.
type Logger struct {
	zl zerolog.Logger
}

var _ types.Logger = (*Logger)(nil)

// New wraps zl.
func New(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl}
}

// NewConsole returns a logger writing to w at the given level. When pretty is
// set, output is formatted for humans instead of JSON.
func NewConsole(w io.Writer, level string, pretty bool) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	return New(zerolog.New(w).Level(lvl).With().Timestamp().Logger()), nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(zerolog.Nop())
}

// ParseLevel parses a level name such as "debug" or "WARN". An empty string
// means info.
func ParseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}

	return zerolog.ParseLevel(strings.ToLower(level))
}

// Zerolog returns the underlying zerolog logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

//nolint:ireturn // Must return interface to implement types.Logger
func (l *Logger) WithField(key string, value any) types.Logger {
	return New(l.zl.With().Interface(key, value).Logger())
}

//nolint:ireturn // Must return interface to implement types.Logger
func (l *Logger) WithFields(fields map[string]any) types.Logger {
	return New(l.zl.With().Fields(fields).Logger())
}

func (l *Logger) Debug(msg string) {
	l.zl.Debug().Msg(msg)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.zl.Debug().Msgf(format, args...)
}

func (l *Logger) Info(msg string) {
	l.zl.Info().Msg(msg)
}

func (l *Logger) Infof(format string, args ...any) {
	l.zl.Info().Msgf(format, args...)
}

func (l *Logger) Warn(msg string) {
	l.zl.Warn().Msg(msg)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *Logger) Error(msg string) {
	l.zl.Error().Msg(msg)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.zl.Error().Msgf(format, args...)
}

// Fatal logs msg and exits the process with status 1.
func (l *Logger) Fatal(msg string) {
	l.zl.Fatal().Msg(msg)
}

// Fatalf logs a formatted message and exits the process with status 1.
func (l *Logger) Fatalf(format string, args ...any) {
	l.zl.Fatal().Msgf(format, args...)
}
