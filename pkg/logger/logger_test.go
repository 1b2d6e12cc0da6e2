package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureWritesToOutputPaths(t *testing.T) {
	t.Cleanup(func() { Logger = nil })
	path := filepath.Join(t.TempDir(), "metaspec.log")

	require.NoError(t, Configure(Options{Level: "warn", OutputPaths: []string{path}}))
	Info("hidden below warn")
	Warn("cache cleared %d times", 2)
	Sync()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "cache cleared 2 times")
	assert.NotContains(t, string(content), "hidden below warn")
	assert.Contains(t, string(content), "process_id")
}

func TestConfigureRejectsBadOptions(t *testing.T) {
	t.Cleanup(func() { Logger = nil })

	assert.Error(t, Configure(Options{Level: "loud"}))
	assert.Error(t, Configure(Options{OutputPaths: []string{filepath.Join(t.TempDir(), "missing", "dir", "x.log")}}))
}

func TestHelpersBeforeInit(t *testing.T) {
	Logger = nil

	assert.NotPanics(t, func() {
		Debug("dropped")
		Info("to the standard logger")
		Sync()
	})
}
