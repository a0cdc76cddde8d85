package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/gaze/internal/config"
)

func TestLoadSettingsWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")

	settings, err := config.LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "info", settings.LogLevel)
	assert.Equal(t, 10, settings.LogMaxSizeMB)
	assert.Equal(t, 3, settings.LogMaxBackups)
	assert.Empty(t, settings.SessionCmd)
	assert.False(t, settings.DarkTheme)
	assert.Equal(t, 100*time.Millisecond, settings.Debounce)
	assert.Equal(t, 500*time.Millisecond, settings.RetryInterval)
	assert.Equal(t, 3, settings.MaxRetries)

	// the defaults are written out on first load
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadSettingsReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")

	doc := []byte(`log:
  level: debug
  max_size_mb: 25
settings:
  session_cmd: notify-send done
display:
  dark_theme: true
watcher:
  debounce: 250ms
  max_retries: 5
`)
	require.NoError(t, os.WriteFile(path, doc, 0o644))

	settings, err := config.LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", settings.LogLevel)
	assert.Equal(t, 25, settings.LogMaxSizeMB)
	assert.Equal(t, "notify-send done", settings.SessionCmd)
	assert.True(t, settings.DarkTheme)
	assert.Equal(t, 250*time.Millisecond, settings.Debounce)
	assert.Equal(t, 5, settings.MaxRetries)

	// unspecified keys keep their defaults
	assert.Equal(t, 3, settings.LogMaxBackups)
	assert.Equal(t, 500*time.Millisecond, settings.RetryInterval)
}
