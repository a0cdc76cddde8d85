// Package app assembles the gaze command-line interface.
package app

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/gaze/internal/config"
	"github.com/ayoisaiah/gaze/internal/ui"
)

const (
	envNoColor     = "NO_COLOR"
	envGazeNoColor = "GAZE_NO_COLOR"
)

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Debug.Prefix.Text = ""
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
	pterm.Fatal.Prefix.Text = ""
}

// Get retrieves the gaze app instance.
func Get() *cli.App {
	gazeApp := &cli.App{
		Name: "gaze",
		Usage: `
		Gaze reports on the app and window activity recorded by the gazed
		daemon: what is being tracked right now, the session history, and
		usage summaries per app or window.`,
		UsageText:            "[COMMAND] [OPTIONS]",
		Version:              config.Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:   "current",
				Usage:  "Show the session being tracked right now and today's total",
				Action: currentAction,
			},
			{
				Name: "log",
				Usage: `
				List recorded sessions. Positional arguments are matched against
				app names and window titles`,
				Action: logAction,
				Flags: []cli.Flag{
					appFlag,
					periodFlag,
					fromFlag,
					toFlag,
					limitFlag,
					jsonFlag,
				},
			},
			{
				Name:   "summary",
				Usage:  "Summarize usage per app, or per window with --windows",
				Action: summaryAction,
				Flags: []cli.Flag{
					windowsFlag,
					periodFlag,
					fromFlag,
					toFlag,
					jsonFlag,
				},
			},
			{
				Name:   "delete",
				Usage:  "Delete sessions by id, app, time range, or all at once",
				Action: deleteAction,
				Flags: []cli.Flag{
					idFlag,
					appFlag,
					periodFlag,
					fromFlag,
					toFlag,
					allFlag,
				},
			},
		},
		Before: func(ctx *cli.Context) error {
			config.InitializePaths()

			if settings, err := config.LoadSettings(config.SettingsFilePath()); err == nil {
				ui.DarkTheme = settings.DarkTheme
			}

			if _, ok := os.LookupEnv(envNoColor); ok {
				disableStyling()
			}

			if _, ok := os.LookupEnv(envGazeNoColor); ok {
				disableStyling()
			}

			return nil
		},
	}

	return gazeApp
}
