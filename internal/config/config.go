// Package config resolves gaze's file locations and daemon settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pterm/pterm"
)

const Version = "v0.3.0"

var (
	configDir        = "gaze"
	exclusionsName   = "config.json"
	settingsName     = "settings.yml"
	dbFileName       = "gaze.db"
	logFileName      = "gazed.log"
	pidFileName      = "gazed.pid"
	exclusionsPath   string
	settingsFilePath string
	dbFilePath       string
	logFilePath      string
	pidFilePath      string
)

func DBFilePath() string {
	return dbFilePath
}

func LogFilePath() string {
	return logFilePath
}

func PidFilePath() string {
	return pidFilePath
}

// ExclusionsFilePath is the JSON document listing excluded apps/windows.
func ExclusionsFilePath() string {
	return exclusionsPath
}

func SettingsFilePath() string {
	return settingsFilePath
}

// InitializePaths resolves all file locations. GAZE_ENV segregates the
// files of test or development instances.
func InitializePaths() {
	gazeEnv := strings.TrimSpace(os.Getenv("GAZE_ENV"))
	if gazeEnv != "" {
		exclusionsName = fmt.Sprintf("config_%s.json", gazeEnv)
		settingsName = fmt.Sprintf("settings_%s.yml", gazeEnv)
		dbFileName = fmt.Sprintf("gaze_%s.db", gazeEnv)
		logFileName = fmt.Sprintf("gazed_%s.log", gazeEnv)
		pidFileName = fmt.Sprintf("gazed_%s.pid", gazeEnv)
	}

	var err error

	exclusionsPath, err = xdg.ConfigFile(filepath.Join(configDir, exclusionsName))
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	settingsFilePath, err = xdg.ConfigFile(filepath.Join(configDir, settingsName))
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	dataDir, err := xdg.DataFile(configDir)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	dbFilePath = filepath.Join(dataDir, dbFileName)

	pidFilePath = filepath.Join(dataDir, pidFileName)

	logFilePath = filepath.Join(dataDir, "log", logFileName)
}
