package logger

import (
	"testing"

	"doc-quiz/internal/config"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	t.Run("debug level", func(t *testing.T) {
		err := Initialize(config.LoggerConfig{Level: "debug", Env: "development"})
		assert.NoError(t, err)
		assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("default level is info", func(t *testing.T) {
		err := Initialize(config.LoggerConfig{Env: "production"})
		assert.NoError(t, err)
		assert.False(t, Get().Core().Enabled(zapcore.DebugLevel))
		assert.True(t, Get().Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("invalid level", func(t *testing.T) {
		err := Initialize(config.LoggerConfig{Level: "loud"})
		assert.Error(t, err)
	})
}
