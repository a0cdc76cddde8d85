package app

import "github.com/urfave/cli/v2"

var (
	appFlag = &cli.StringFlag{
		Name:    "app",
		Aliases: []string{"a"},
		Usage:   "Restrict to sessions whose app name contains the given text",
	}

	periodFlag = &cli.StringFlag{
		Name:    "period",
		Aliases: []string{"p"},
		Usage:   "Time period to report on. One of: today (default), yesterday, 7days, 14days, 30days, 90days, 180days, 365days, all-time",
	}

	fromFlag = &cli.StringFlag{
		Name:    "from",
		Aliases: []string{"f"},
		Usage:   "Start of the reporting range (e.g. '2024-03-01' or 'last monday'). Overrides --period",
	}

	toFlag = &cli.StringFlag{
		Name:  "to",
		Usage: "End of the reporting range. Defaults to today",
	}

	limitFlag = &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Maximum number of sessions to list",
		Value:   100,
	}

	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the results as JSON",
	}

	windowsFlag = &cli.BoolFlag{
		Name:    "windows",
		Aliases: []string{"w"},
		Usage:   "Summarize per window title instead of per app",
	}

	idFlag = &cli.Int64Flag{
		Name:  "id",
		Usage: "Delete the single session with this id",
	}

	allFlag = &cli.BoolFlag{
		Name:  "all",
		Usage: "Delete every recorded session",
	}
)
