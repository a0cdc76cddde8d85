package app

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/gaze/internal/config"
	"github.com/ayoisaiah/gaze/internal/timeutil"
	"github.com/ayoisaiah/gaze/report"
	"github.com/ayoisaiah/gaze/store"
)

var errNothingToDelete = errors.New(
	"specify --id, --app, --all, or a time period to delete",
)

// rangeEnd substitutes an effectively unbounded end for all-time queries.
func rangeEnd(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().AddDate(100, 0, 0)
	}

	return t
}

func openDB() (store.DB, error) {
	return store.NewClient(config.DBFilePath())
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func currentAction(ctx *cli.Context) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	sess, err := db.CurrentSession(ctx.Context)
	if err != nil {
		return err
	}

	start, end := timeutil.DayRange(time.Now())

	total, err := db.TotalSeconds(ctx.Context, start, end)
	if err != nil {
		return err
	}

	report.Current(sess, total)

	return nil
}

func logAction(ctx *cli.Context) error {
	conf, err := config.Filter(ctx)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	sessions, err := db.SearchSessions(ctx.Context, store.SearchOptions{
		Query:   conf.Query,
		AppName: conf.AppName,
		Start:   conf.StartTime,
		End:     conf.EndTime,
		Limit:   conf.Limit,
	})
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		return printJSON(sessions)
	}

	report.Sessions(sessions, os.Stdout)

	return nil
}

func summaryAction(ctx *cli.Context) error {
	conf, err := config.Filter(ctx)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	start, end := conf.StartTime, rangeEnd(conf.EndTime)

	if ctx.Bool("windows") {
		summaries, err := db.WindowSummaries(ctx.Context, start, end)
		if err != nil {
			return err
		}

		if ctx.Bool("json") {
			return printJSON(summaries)
		}

		report.WindowSummaries(summaries, os.Stdout)

		return nil
	}

	summaries, err := db.AppSummaries(ctx.Context, start, end)
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		return printJSON(summaries)
	}

	report.AppSummaries(summaries, os.Stdout)

	return nil
}

func deleteAction(ctx *cli.Context) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if ctx.Bool("all") {
		count, err := db.DeleteAllSessions(ctx.Context)
		if err != nil {
			return err
		}

		report.SessionsDeleted(count)

		return nil
	}

	if id := ctx.Int64("id"); id != 0 {
		deleted, err := db.DeleteSession(ctx.Context, id)
		if err != nil {
			return err
		}

		var count int64
		if deleted {
			count = 1
		}

		report.SessionsDeleted(count)

		return nil
	}

	if app := ctx.String("app"); app != "" {
		count, err := db.DeleteSessionsByAppName(ctx.Context, app)
		if err != nil {
			return err
		}

		report.SessionsDeleted(count)

		return nil
	}

	if ctx.String("period") == "" && ctx.String("from") == "" {
		return errNothingToDelete
	}

	conf, err := config.Filter(ctx)
	if err != nil {
		return err
	}

	count, err := db.DeleteSessionsInRange(
		ctx.Context,
		conf.StartTime,
		rangeEnd(conf.EndTime),
	)
	if err != nil {
		return err
	}

	report.SessionsDeleted(count)

	return nil
}
