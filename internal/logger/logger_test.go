package logger

import (
	"testing"

	"github.com/straye-as/sales-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Levels(t *testing.T) {
	app := &config.AppConfig{Name: "sales-api", Environment: "development"}

	l, err := NewLogger(&config.LoggingConfig{Level: "debug", Format: "console"}, app)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = NewLogger(&config.LoggingConfig{Level: "verbose"}, app)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel), "unknown levels fall back to info")
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))

	l, err = NewLogger(&config.LoggingConfig{Level: "warn"}, &config.AppConfig{Environment: "production"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
}
