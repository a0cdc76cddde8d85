package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

const (
	keyLogLevel        = "log.level"
	keyLogMaxSizeMB    = "log.max_size_mb"
	keyLogMaxBackups   = "log.max_backups"
	keySessionCmd      = "settings.session_cmd"
	keyDarkTheme       = "display.dark_theme"
	keyWatchDebounce   = "watcher.debounce"
	keyWatchRetry      = "watcher.retry_interval"
	keyWatchMaxRetries = "watcher.max_retries"
)

// Settings holds the daemon's tunables, loaded from the settings file
// with sensible defaults written on first run.
type Settings struct {
	LogLevel      string
	LogMaxSizeMB  int
	LogMaxBackups int
	// SessionCmd is an optional command executed each time a session
	// closes.
	SessionCmd string
	// DarkTheme selects brighter output colors for dark terminals.
	DarkTheme bool
	// Debounce collapses bursts of config change notifications.
	Debounce time.Duration
	// RetryInterval and MaxRetries govern waiting for a config file that
	// disappeared mid-rewrite.
	RetryInterval time.Duration
	MaxRetries    int
}

// LoadSettings reads the daemon settings, creating the file with
// defaults if it does not exist yet.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogMaxSizeMB, 10)
	v.SetDefault(keyLogMaxBackups, 3)
	v.SetDefault(keySessionCmd, "")
	v.SetDefault(keyDarkTheme, false)
	v.SetDefault(keyWatchDebounce, "100ms")
	v.SetDefault(keyWatchRetry, "500ms")
	v.SetDefault(keyWatchMaxRetries, 3)

	err := v.ReadInConfig()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading settings file failed: %w", err)
		}

		if err := v.WriteConfig(); err != nil {
			return nil, fmt.Errorf("writing default settings failed: %w", err)
		}
	}

	return &Settings{
		LogLevel:      v.GetString(keyLogLevel),
		LogMaxSizeMB:  v.GetInt(keyLogMaxSizeMB),
		LogMaxBackups: v.GetInt(keyLogMaxBackups),
		SessionCmd:    v.GetString(keySessionCmd),
		DarkTheme:     v.GetBool(keyDarkTheme),
		Debounce:      v.GetDuration(keyWatchDebounce),
		RetryInterval: v.GetDuration(keyWatchRetry),
		MaxRetries:    v.GetInt(keyWatchMaxRetries),
	}, nil
}
