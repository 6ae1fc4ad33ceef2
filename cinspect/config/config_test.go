package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Inspect.Dataset)
	assert.Equal(t, "text", cfg.Inspect.Output)
	assert.Equal(t, 0, cfg.Inspect.MaxWorkers)
	assert.NotEmpty(t, cfg.Inspect.IgnoreFile)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("inspect:\n  dataset: events\n  output: json\n  maxWorkers: 4\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "events", cfg.Inspect.Dataset)
	assert.Equal(t, "json", cfg.Inspect.Output)
	assert.Equal(t, 4, cfg.Inspect.MaxWorkers)
	assert.Equal(t, "debug", cfg.Log.Level)
}
