// Package logging provides the structured logger used across spatch.
package logging

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the severity of a log entry.
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// ParseLevel accepts level names case-insensitively ("warning" included).
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LogLevelDebug, nil
	case "", "INFO":
		return LogLevelInfo, nil
	case "WARN", "WARNING":
		return LogLevelWarn, nil
	case "ERROR":
		return LogLevelError, nil
	}
	return "", fmt.Errorf("unknown log level %q", s)
}

func (l LogLevel) toZerolog() zerolog.Level {
	switch l {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// LogField represents a key-value pair in structured logging.
type LogField struct {
	Key   string
	Value any
}

// Field creates a LogField from a key-value pair.
func Field(key string, value any) LogField {
	return LogField{Key: key, Value: value}
}

// Logger provides structured logging capabilities with context support.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...LogField)
	Info(ctx context.Context, msg string, fields ...LogField)
	Warn(ctx context.Context, msg string, fields ...LogField)
	Error(ctx context.Context, msg string, err error, fields ...LogField)
	WithFields(fields ...LogField) Logger
}

// NoOpLogger is a logger that discards all log entries.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(_ context.Context, _ string, _ ...LogField)          {}
func (n *NoOpLogger) Info(_ context.Context, _ string, _ ...LogField)           {}
func (n *NoOpLogger) Warn(_ context.Context, _ string, _ ...LogField)           {}
func (n *NoOpLogger) Error(_ context.Context, _ string, _ error, _ ...LogField) {}
func (n *NoOpLogger) WithFields(_ ...LogField) Logger                           { return n }

// Options configures a ZeroLogger.
type Options struct {
	Level LogLevel
	// Console selects zerolog's human readable writer instead of JSON lines.
	Console bool
	NoColor bool
}

// ZeroLogger writes structured entries through zerolog. The input source
// attached to the context with WithSource is added to every entry.
type ZeroLogger struct {
	zl zerolog.Logger
}

// New creates a logger writing to w. A nil writer discards everything.
func New(w io.Writer, opts Options) *ZeroLogger {
	if w == nil {
		return &ZeroLogger{zl: zerolog.Nop()}
	}
	if opts.Console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: opts.NoColor, TimeFormat: time.Kitchen}
	}
	zl := zerolog.New(w).Level(opts.Level.toZerolog()).With().Timestamp().Logger()
	return &ZeroLogger{zl: zl}
}

func (z *ZeroLogger) log(ctx context.Context, ev *zerolog.Event, msg string, fields []LogField) {
	if ev == nil {
		return
	}
	if source := getSource(ctx); source != "" {
		ev = ev.Str("source", source)
	}
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

func (z *ZeroLogger) Debug(ctx context.Context, msg string, fields ...LogField) {
	z.log(ctx, z.zl.Debug(), msg, fields)
}

func (z *ZeroLogger) Info(ctx context.Context, msg string, fields ...LogField) {
	z.log(ctx, z.zl.Info(), msg, fields)
}

func (z *ZeroLogger) Warn(ctx context.Context, msg string, fields ...LogField) {
	z.log(ctx, z.zl.Warn(), msg, fields)
}

func (z *ZeroLogger) Error(ctx context.Context, msg string, err error, fields ...LogField) {
	z.log(ctx, z.zl.Error().Err(err), msg, fields)
}

func (z *ZeroLogger) WithFields(fields ...LogField) Logger {
	c := z.zl.With()
	for _, f := range fields {
		c = c.Interface(f.Key, f.Value)
	}
	return &ZeroLogger{zl: c.Logger()}
}

// sourceKey is the context key for the input currently being split.
type sourceKey struct{}

// WithSource tags ctx with the name of the input being processed.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

func getSource(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(sourceKey{}).(string); ok {
		return s
	}
	return ""
}
