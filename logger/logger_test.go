package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestHelpersAreSafeBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		Info("not initialised", String("k", "v"), Int("n", 1))
		Warn("not initialised", Float64("f", 0.5), Bool("b", true))
		Error("not initialised", ErrorField(os.ErrNotExist))
		Sync()
	})
	assert.NotNil(t, L())
}

func TestLevelParsing(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, LogLevel("DEBUG").zapLevel())
	assert.Equal(t, zapcore.WarnLevel, WarnLevel.zapLevel())
	assert.Equal(t, zapcore.ErrorLevel, ErrorLevel.zapLevel())
	assert.Equal(t, zapcore.InfoLevel, LogLevel("verbose").zapLevel())
}

func TestBuildWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l := build(Config{Level: InfoLevel, OutputPath: path, MaxSize: 1})
	l.Info("hello", String("mode", "listen"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"mode":"listen"`)
}
