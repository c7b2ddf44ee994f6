package logging

import (
	"context"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Config controls logger construction.
type Config struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "json" or "text"
	Output string `json:"output" yaml:"output"` // "stdout", "stderr" or a file path
}

// Logger wraps logrus with context-aware helpers.
type Logger struct {
	*logrus.Logger
}

var (
	standard *Logger
	once     sync.Once
)

// Standard returns the shared default logger (text format, info level).
func Standard() *Logger {
	once.Do(func() {
		standard = &Logger{Logger: logrus.New()}
		standard.SetFormatter(&logrus.TextFormatter{})
	})
	return standard
}

// New creates a logger from configuration.
func New(c *Config) (*Logger, error) {
	l := &Logger{Logger: logrus.New()}

	if c == nil {
		c = &Config{}
	}

	if c.Level != "" {
		level, err := logrus.ParseLevel(c.Level)
		if err != nil {
			return nil, err
		}
		l.SetLevel(level)
	}

	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{})
	}

	switch c.Output {
	case "", "stdout":
		l.SetOutput(os.Stdout)
	case "stderr":
		l.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(c.Output, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0666)
		if err != nil {
			return nil, err
		}
		l.SetOutput(f)
	}

	return l, nil
}

type contextKey string

const traceKey contextKey = "trace_id"

// WithTraceID attaches a trace id to the context; entries logged with that
// context carry it as a field.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey, traceID)
}

func getTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(traceKey).(string); ok {
		return v
	}
	return ""
}

// entryFromContext creates a new log entry with fields from context.
func (l *Logger) entryFromContext(ctx context.Context) *logrus.Entry {
	fields := logrus.Fields{}
	if traceID := getTraceID(ctx); traceID != "" {
		fields[string(traceKey)] = traceID
	}
	return l.WithFields(fields)
}

func (l *Logger) logf(ctx context.Context, level logrus.Level, format string, args ...any) {
	l.entryFromContext(ctx).Logf(level, format, args...)
}

func (l *Logger) Debugf(ctx context.Context, format string, args ...any) {
	l.logf(ctx, logrus.DebugLevel, format, args...)
}

func (l *Logger) Infof(ctx context.Context, format string, args ...any) {
	l.logf(ctx, logrus.InfoLevel, format, args...)
}

func (l *Logger) Warnf(ctx context.Context, format string, args ...any) {
	l.logf(ctx, logrus.WarnLevel, format, args...)
}

func (l *Logger) Errorf(ctx context.Context, format string, args ...any) {
	l.logf(ctx, logrus.ErrorLevel, format, args...)
}
