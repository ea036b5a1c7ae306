package logging

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// LogrusLogger adapts a *logrus.Entry to the Logger interface.
type LogrusLogger struct {
	e *logrus.Entry
}

// NewLogrusLogger builds a configured logrus-backed logger. In "development"
// mode it logs human-readable text at debug level; otherwise JSON at info.
func NewLogrusLogger(appName, env string) *LogrusLogger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	if env == "development" {
		l.SetLevel(logrus.DebugLevel)
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetLevel(logrus.InfoLevel)
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return &LogrusLogger{e: l.WithFields(logrus.Fields{"app": appName, "env": env})}
}

// NewLogrusLoggerFrom wraps an existing logrus logger, mainly for tests.
func NewLogrusLoggerFrom(l *logrus.Logger) *LogrusLogger {
	return &LogrusLogger{e: logrus.NewEntry(l)}
}

func (s *LogrusLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.e.WithContext(ctx).WithFields(fields(args)).Debug(msg)
}

func (s *LogrusLogger) Info(ctx context.Context, msg string, args ...any) {
	s.e.WithContext(ctx).WithFields(fields(args)).Info(msg)
}

func (s *LogrusLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.e.WithContext(ctx).WithFields(fields(args)).Warn(msg)
}

func (s *LogrusLogger) Error(ctx context.Context, msg string, args ...any) {
	s.e.WithContext(ctx).WithFields(fields(args)).Error(msg)
}

func (s *LogrusLogger) With(args ...any) Logger {
	return &LogrusLogger{e: s.e.WithFields(fields(args))}
}

// fields converts variadic key–value pairs into logrus.Fields.
// A trailing value without a key is recorded under "!BADKEY".
func fields(args []any) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		f[key] = args[i+1]
	}
	if len(args)%2 != 0 {
		f["!BADKEY"] = args[len(args)-1]
	}
	return f
}

// Discard returns a logger that drops everything, for tests.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(nopWriter{})
	return NewLogrusLoggerFrom(l)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
