package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"word-adventure/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_InvalidLevelFallsBackToWarn(t *testing.T) {
	l, err := logger.New(logger.Config{Level: "loud", OutputPath: "stderr"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Core().Enabled(zap.WarnLevel))
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adventure.log")

	l, err := logger.New(logger.Config{Level: "debug", Encoding: "json", OutputPath: path})
	require.NoError(t, err)

	l.Info("turn generated", zap.String("model", "primary"))
	_ = l.Sync()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"turn generated"`)
	assert.Contains(t, string(content), `"model":"primary"`)
}
