package logging

import (
	"os"
	"path/filepath"
	"testing"

	ipfslog "github.com/ipfs/go-log/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/rexliu/flake/pkg/config"
	"github.com/rexliu/flake/pkg/node"
)

func TestConfigureLevel(t *testing.T) {
	l := New("flake-test")
	require.NoError(t, l.Configure(config.LoggingConfig{Level: "debug"}))

	require.NoError(t, l.Configure(config.LoggingConfig{Level: "warn"}))
	assert.False(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))

	assert.Error(t, l.Configure(config.LoggingConfig{Level: "shouting"}))
}

func TestConfigureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "flake.log")
	l := New("flake-file")
	require.NoError(t, l.Configure(config.LoggingConfig{Level: "info", FilePath: path, Format: "json"}))
	t.Cleanup(func() {
		ipfslog.SetupLogging(ipfslog.Config{Format: ipfslog.PlaintextOutput, Stderr: true, Level: ipfslog.LevelError})
	})

	l.Infof("hello %s", "file")
	require.NoError(t, l.Sync())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}

func TestSatisfiesNodeLogger(t *testing.T) {
	var _ node.Logger = New("flake-iface")
	var nilLogger *Logger
	assert.NoError(t, nilLogger.Configure(config.LoggingConfig{Level: "debug"}))
}
