package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hvexport/internal/config"
)

func decodeLines(t *testing.T, data []byte) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "line %q", line)
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger_BothOutputs(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "nested", "hvexport.log")
	var console bytes.Buffer

	logger, closer, err := newLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "both",
		FilePath: logFile,
	}, &console)
	require.NoError(t, err)

	logger.Info("file converted", "path", "a.csv")
	logger.Debug("suppressed")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, console.String(), string(content))

	entries := decodeLines(t, content)
	require.Len(t, entries, 1)
	assert.Equal(t, "file converted", entries[0]["msg"])
	assert.Equal(t, "a.csv", entries[0]["path"])
	assert.Equal(t, "INFO", entries[0]["level"])
}

func TestNewLogger_TraceIDInjection(t *testing.T) {
	var console bytes.Buffer
	logger, _, err := newLogger(config.LoggingConfig{Level: "debug", Format: "json", Output: "console"}, &console)
	require.NoError(t, err)

	ctx := WithTraceID(context.Background(), "batch-123")
	logger.With("component", "pool").InfoContext(ctx, "with trace")
	logger.Info("without trace")

	entries := decodeLines(t, console.Bytes())
	require.Len(t, entries, 2)
	assert.Equal(t, "batch-123", entries[0]["trace_id"])
	assert.Equal(t, "pool", entries[0]["component"])
	assert.NotContains(t, entries[1], "trace_id")
}

func TestNewLogger_TextFormat(t *testing.T) {
	var console bytes.Buffer
	logger, _, err := newLogger(config.LoggingConfig{Level: "warn", Format: "text", Output: "console"}, &console)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "file", "b.csv")

	out := console.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "msg=kept")
	assert.Contains(t, out, "file=b.csv")
}

func TestNewLogger_UnwritableFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, _, err := newLogger(config.LoggingConfig{
		Output:   "file",
		FilePath: filepath.Join(blocker, "app.log"),
	}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"INFO":    "INFO",
		"warning": "WARN",
		"warn":    "WARN",
		"error":   "ERROR",
		"bogus":   "INFO",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, parseLogLevel(in).String())
		})
	}
}

func TestTraceIDHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	ctx = EnsureTraceID(ctx)
	id := GetTraceID(ctx)
	assert.Len(t, id, 36)

	assert.Equal(t, id, GetTraceID(EnsureTraceID(ctx)), "existing id is preserved")
	assert.NotEqual(t, GenerateTraceID(), GenerateTraceID())
}
