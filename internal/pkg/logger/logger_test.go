package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	require.NoError(t, Init(Options{Level: zapcore.InfoLevel}, zap.String("service", "test")))
	first := Log

	require.NoError(t, Init(Options{Level: zapcore.DebugLevel, Format: FormatJSON}))
	assert.Same(t, first, Log, "second Init must not rebuild the logger")
	assert.Same(t, Log, L())
	assert.False(t, L().Core().Enabled(zapcore.DebugLevel))
}

func TestConfigure(t *testing.T) {
	console := configure(Options{Level: zapcore.WarnLevel})
	assert.Equal(t, FormatConsole, console.Encoding)
	assert.Equal(t, zapcore.WarnLevel, console.Level.Level())

	json := configure(Options{Level: zapcore.InfoLevel, Format: FormatJSON})
	assert.Equal(t, FormatJSON, json.Encoding)
	assert.Equal(t, "timestamp", json.EncoderConfig.TimeKey)
}
