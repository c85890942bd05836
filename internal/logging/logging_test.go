package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreDefault(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestSetup_TextLevels(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer

	Setup(false, false, &buf)
	slog.Debug("hidden")
	slog.Info("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "key=value")
}

func TestSetup_VerboseEnablesDebug(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer

	logger := Setup(true, false, &buf)
	logger.Debug("details")

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Same(t, logger, slog.Default())
}

func TestSetup_JSON(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer

	Setup(false, true, &buf)
	slog.Warn("careful", "path", "/tmp/x")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "careful", record["msg"])
	assert.Equal(t, "/tmp/x", record["path"])
}

func TestIsJSONFormat(t *testing.T) {
	assert.True(t, IsJSONFormat("json"))
	assert.True(t, IsJSONFormat(" JSON "))
	assert.False(t, IsJSONFormat("text"))
	assert.False(t, IsJSONFormat(""))
}
