// =============================================================================
// Shipment Sheet Pipeline - Logging
// =============================================================================
//
// Every component logs through the small Logger interface below so the
// parser and the price pass stay independent of the logging backend. The
// default implementation writes human-readable console lines via zerolog.
//
// LEVELS:
//   debug : per-row decisions, file paths
//   info  : pipeline progress and totals
//   warn  : structural problems, unresolved catalog names
//   error : fatal I/O before the command exits
//
// =============================================================================

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is an interface for logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// =============================================================================
// ZEROLOG IMPLEMENTATION
// =============================================================================

// zeroLogger adapts a zerolog.Logger to Logger. Messages are printf-style.
type zeroLogger struct {
	log zerolog.Logger
}

// New creates a console logger writing to w at the given level
// ("debug", "info", "warn", "error"). Unknown levels fall back to info.
func New(w io.Writer, level string) Logger {
	if w == nil {
		w = os.Stderr
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return &zeroLogger{
		log: zerolog.New(console).Level(ParseLevel(level)).With().Timestamp().Logger(),
	}
}

// With returns a logger that adds key=value to every line.
func With(l Logger, key, value string) Logger {
	zl, ok := l.(*zeroLogger)
	if !ok {
		return l
	}
	return &zeroLogger{log: zl.log.With().Str(key, value).Logger()}
}

// ParseLevel maps a config level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *zeroLogger) Debug(msg string, args ...interface{}) {
	l.log.Debug().Msg(fmt.Sprintf(msg, args...))
}

func (l *zeroLogger) Info(msg string, args ...interface{}) {
	l.log.Info().Msg(fmt.Sprintf(msg, args...))
}

func (l *zeroLogger) Warn(msg string, args ...interface{}) {
	l.log.Warn().Msg(fmt.Sprintf(msg, args...))
}

func (l *zeroLogger) Error(msg string, args ...interface{}) {
	l.log.Error().Msg(fmt.Sprintf(msg, args...))
}

// =============================================================================
// NOP LOGGER
// =============================================================================

// Nop discards everything. Used when no logger is configured and in tests.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// =============================================================================
// RECORDER
// =============================================================================

// Recorder keeps formatted warnings in memory. Tests use it to assert on
// non-fatal problems.
type Recorder struct {
	Warnings []string
}

func (r *Recorder) Debug(string, ...interface{}) {}
func (r *Recorder) Info(string, ...interface{})  {}
func (r *Recorder) Error(msg string, args ...interface{}) {
	r.Warnings = append(r.Warnings, "ERROR "+fmt.Sprintf(msg, args...))
}
func (r *Recorder) Warn(msg string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(msg, args...))
}
