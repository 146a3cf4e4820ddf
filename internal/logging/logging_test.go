package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/katalvlaran/egraphx/internal/config"
	"github.com/katalvlaran/egraphx/internal/logging"
)

func TestJSONEntries(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.New(config.LogConfig{Level: "info", Format: "json"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("extracted", zap.String("extractor", "greedy-dag"))
	require.NoError(t, logging.Sync(l))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1, "debug is below the level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "extracted", entry["msg"])
	assert.Equal(t, "greedy-dag", entry["extractor"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "ts")
}

func TestConsoleEntries(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.New(config.LogConfig{Level: "debug", Format: "console"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	l.Debug("sweep", zap.Int("classes", 4))
	assert.Contains(t, buf.String(), "sweep")
	assert.Contains(t, buf.String(), `"classes": 4`)
}

func TestInvalid(t *testing.T) {
	var buf bytes.Buffer
	_, err := logging.New(config.LogConfig{Level: "loud", Format: "json"}, zapcore.AddSync(&buf))
	require.Error(t, err)
	_, err = logging.New(config.LogConfig{Level: "info", Format: "xml"}, zapcore.AddSync(&buf))
	require.Error(t, err)
}
