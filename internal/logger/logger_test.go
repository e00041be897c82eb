package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"podrecon/internal/logger"
)

func TestInit(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	tests := []struct {
		name    string
		level   string
		format  string
		enabled zapcore.Level
		blocked zapcore.Level
	}{
		{name: "json_info", level: "info", format: "json", enabled: zapcore.InfoLevel, blocked: zapcore.DebugLevel},
		{name: "console_debug", level: "DEBUG", format: "console", enabled: zapcore.DebugLevel, blocked: zapcore.DebugLevel - 1},
		{name: "default_format", level: "warn", format: "", enabled: zapcore.WarnLevel, blocked: zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := logger.Init(tt.level, tt.format)
			require.NoError(t, err)
			assert.Same(t, l, zap.L())
			assert.True(t, l.Core().Enabled(tt.enabled))
			assert.False(t, l.Core().Enabled(tt.blocked))
		})
	}
}

func TestInit_Invalid(t *testing.T) {
	_, err := logger.Init("loud", "json")
	assert.ErrorContains(t, err, "invalid log level")

	_, err = logger.Init("info", "xml")
	assert.ErrorContains(t, err, "invalid log format")
}
