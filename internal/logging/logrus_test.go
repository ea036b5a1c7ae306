package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newBufLogger(t *testing.T) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.DebugLevel)
	return NewLogrusLoggerFrom(l), &buf
}

func TestLogrusLogger_KeyValuePairs(t *testing.T) {
	log, buf := newBufLogger(t)

	log.Info(context.Background(), "hello", "path", "/auth/login", "status", 200)

	out := buf.String()
	require.Contains(t, out, `"msg":"hello"`)
	require.Contains(t, out, `"path":"/auth/login"`)
	require.Contains(t, out, `"status":200`)
}

func TestLogrusLogger_With(t *testing.T) {
	log, buf := newBufLogger(t)

	child := log.With("component", "api")
	child.Warn(context.Background(), "slow request")

	require.Contains(t, buf.String(), `"component":"api"`)
	require.Contains(t, buf.String(), `"level":"warning"`)
}

func TestLogrusLogger_OddArgs(t *testing.T) {
	log, buf := newBufLogger(t)

	log.Error(context.Background(), "boom", "dangling")

	require.Contains(t, buf.String(), `"!BADKEY":"dangling"`)
}

func TestDiscard(t *testing.T) {
	require.NotPanics(t, func() {
		Discard().Info(context.Background(), "dropped", "k", "v")
	})
}
