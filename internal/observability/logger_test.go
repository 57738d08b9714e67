// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/lhkpn-cli/internal/config"
)

// syncBuffer adapts a bytes.Buffer to zapcore.WriteSyncer.
type syncBuffer struct{ bytes.Buffer }

func (s *syncBuffer) Sync() error { return nil }

func TestInitializeConsoleLogger(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf syncBuffer
	Initialize(config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "lhkpn-test",
	}, zapcore.Lock(&buf))

	GetLogger().Info("search started")
	Sync()

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "search started")
	assert.Contains(t, out, "lhkpn-test.")
}

func TestInitializeJSONLogger(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf syncBuffer
	Initialize(config.LoggerConfig{
		Level:       "info",
		Format:      "json",
		ServiceName: "lhkpn-test",
	}, zapcore.Lock(&buf))

	logger := GetLogger()
	logger.Debug("should be filtered")
	logger.Info("records exported")
	Sync()

	out := buf.String()
	assert.NotContains(t, out, "should be filtered")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "records exported", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestInitializeRunsOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var first, second syncBuffer
	Initialize(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "first"}, zapcore.Lock(&first))
	Initialize(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "second"}, zapcore.Lock(&second))

	GetLogger().Info("only the first initialization wins")
	Sync()

	assert.NotEmpty(t, first.String())
	assert.Empty(t, second.String())
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	// Never panics, even before initialization.
	logger := GetLogger()
	require.NotNil(t, logger)
	logger.Info("fallback logger is usable")
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf syncBuffer
	Initialize(config.LoggerConfig{Level: "chatty", Format: "json", ServiceName: "t"}, zapcore.Lock(&buf))

	GetLogger().Debug("debug hidden at info level")
	GetLogger().Info("visible")
	Sync()

	assert.NotContains(t, buf.String(), "debug hidden")
	assert.Contains(t, buf.String(), "visible")
}
