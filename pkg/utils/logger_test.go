package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestKVLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewKVLogger(zap.New(core))

	logger.Info("Request created", "id", int64(7), "name", "TRIP/00001")
	logger.Error("Transition failed", "request_id", 7, 42, "dropped", "dangling")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, "Request created", entries[0].Message)
	assert.Equal(t, map[string]interface{}{"id": int64(7), "name": "TRIP/00001"}, entries[0].ContextMap())

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, map[string]interface{}{"request_id": int64(7)}, entries[1].ContextMap())
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, err := NewLogger(LoggerConfig{Level: "debug", OutputPath: path, Format: "json"})
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Sync())
	assert.FileExists(t, path)

	logger, err = NewLogger(LoggerConfig{Level: "not-a-level", OutputPath: "stdout", Format: "console"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}
