package main

import (
	"os"

	"github.com/ayoisaiah/gaze/app"
	"github.com/ayoisaiah/gaze/report"
)

func run(args []string) error {
	return app.Get().Run(args)
}

func main() {
	err := run(os.Args)
	if err != nil {
		report.Error(err)
		os.Exit(1)
	}
}
