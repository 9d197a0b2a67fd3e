package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskingHandler_MasksSensitiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	handler := NewMaskingHandler(slog.NewTextHandler(&buf, nil))
	log := slog.New(handler)

	log.Info("connecting",
		slog.String("password", "hunter2"),
		slog.String("DSN", "postgres://user:pw@host/db"),
		slog.String("host", "localhost"),
	)

	out := buf.String()
	require.NotEmpty(t, out)
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "postgres://")
	assert.Contains(t, out, "password=***")
	assert.Contains(t, out, "localhost")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
