package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
)

func TestTraceHandler_InjectsTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&traceHandler{Handler: slog.NewJSONHandler(&buf, nil)})

	ctx := WithTraceID(context.Background(), "trace-123")
	WithComponent(logger, "upload").InfoContext(ctx, "file stored", slog.String("file", "a.txt"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trace-123", entry["trace_id"])
	assert.Equal(t, "upload", entry["component"])
	assert.Equal(t, "a.txt", entry["file"])
}

func TestTraceHandler_NoTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&traceHandler{Handler: slog.NewJSONHandler(&buf, nil)})

	logger.InfoContext(context.Background(), "no trace")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "trace_id")
}

func TestEnsureTraceID(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	id := GetTraceID(ctx)
	assert.Len(t, id, 36)
	assert.Equal(t, id, GetTraceID(EnsureTraceID(ctx)), "existing id is kept")
}

func TestInitializeLogger_File(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "file", FilePath: path})
	require.NoError(t, err)
	assert.Same(t, logger, GetLogger())

	logger.Debug("debug visible")
	require.NoError(t, CloseLogFile())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug visible")
}

func TestNewLogger_TextFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Output: "file", Format: "text", FilePath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseLogFile() })

	logger.InfoContext(WithTraceID(context.Background(), "abc"), "plain line")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=\"plain line\"")
	assert.Contains(t, string(data), "trace_id=abc")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestWithError(t *testing.T) {
	logger := slog.Default()
	assert.Same(t, logger, WithError(logger, nil))
	assert.NotSame(t, logger, WithError(logger, os.ErrNotExist))
}
