package logging

import (
	"context"
	"io"
	"maps"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLogger is the zerolog-backed logger used when the host application
// does not install its own.
// Debug/Info -> stdout
// Warn/Error/Fatal -> stderr
// Output is human-readable on a terminal and JSON otherwise.
type DefaultLogger struct {
	stdout zerolog.Logger
	stderr zerolog.Logger
	level  Level
	fields Fields
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() *DefaultLogger {
	return newDefaultLogger(os.Stdout, os.Stderr, isTerminal())
}

// NewDefaultLoggerNoColor creates a new default logger that always writes JSON
func NewDefaultLoggerNoColor() *DefaultLogger {
	return newDefaultLogger(os.Stdout, os.Stderr, false)
}

// NewWriterLogger sends every level to w as JSON lines. Mostly used by tests.
func NewWriterLogger(w io.Writer) *DefaultLogger {
	return newDefaultLogger(w, w, false)
}

func newDefaultLogger(out, errOut io.Writer, console bool) *DefaultLogger {
	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
		errOut = zerolog.ConsoleWriter{Out: errOut, TimeFormat: time.Kitchen}
	}

	return &DefaultLogger{
		stdout: zerolog.New(out).With().Timestamp().Logger(),
		stderr: zerolog.New(errOut).With().Timestamp().Logger(),
		level:  InfoLevel,
		fields: make(Fields),
	}
}

// isTerminal checks if stdout is a character device
func isTerminal() bool {
	if fileInfo, _ := os.Stdout.Stat(); fileInfo != nil {
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

func (d *DefaultLogger) event(level Level) *zerolog.Event {
	switch level {
	case DebugLevel:
		return d.stdout.Debug()
	case InfoLevel:
		return d.stdout.Info()
	case WarnLevel:
		return d.stderr.Warn()
	case ErrorLevel:
		return d.stderr.Error()
	default:
		return d.stderr.WithLevel(zerolog.FatalLevel)
	}
}

func (d *DefaultLogger) log(level Level, err error, msg string, fields ...Fields) {
	if level < d.level {
		return
	}

	allFields := make(Fields, len(d.fields))
	maps.Copy(allFields, d.fields)
	for _, f := range fields {
		maps.Copy(allFields, f)
	}

	ev := d.event(level)
	if err != nil {
		ev = ev.Err(err)
	}
	if len(allFields) > 0 {
		// zerolog only accepts the unnamed map type
		ev = ev.Fields(map[string]any(allFields))
	}
	ev.Msg(msg)

	if level == FatalLevel {
		os.Exit(1)
	}
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.log(DebugLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.log(InfoLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.log(WarnLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.log(ErrorLevel, err, msg, fields...)
}

func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.log(FatalLevel, err, msg, fields...)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	newFields := make(Fields, len(d.fields)+len(fields))
	maps.Copy(newFields, d.fields)
	maps.Copy(newFields, fields)

	return &DefaultLogger{
		stdout: d.stdout,
		stderr: d.stderr,
		level:  d.level,
		fields: newFields,
	}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

func (d *DefaultLogger) SetLevel(level Level) {
	d.level = level
}

// NoOpLogger discards everything. Install it with SetGlobalLogger(nil).
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
