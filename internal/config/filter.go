package config

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/gaze/internal/timeutil"
)

var (
	errInvalidDateRange = errors.New(
		"the start time must be earlier than the end time",
	)

	errInvalidPeriod = errors.New(
		"please provide a valid time period",
	)

	errInvalidDate = errors.New(
		"please provide a valid date",
	)
)

// FilterConfig narrows which sessions a command operates on.
type FilterConfig struct {
	StartTime time.Time
	EndTime   time.Time
	AppName   string
	Query     string
	Limit     int
}

// getTimeRange returns the start and end time for the specified period.
func getTimeRange(period timeutil.Period) (start, end time.Time) {
	now := time.Now()

	start, end = timeutil.DayRange(now)

	//nolint:exhaustive // other cases covered by default
	switch period {
	case timeutil.PeriodToday:
		return
	case timeutil.PeriodYesterday:
		start, end = timeutil.DayRange(now.AddDate(0, 0, timeutil.Range[period]))
		return
	case timeutil.PeriodAllTime:
		start = time.Time{}
		return
	default:
		start = timeutil.RoundToStart(now.AddDate(0, 0, timeutil.Range[period]))
	}

	return
}

// parseDate accepts natural-language dates ("yesterday", "last monday")
// as well as conventional formats.
func parseDate(s string) (time.Time, error) {
	d, err := dateparser.Parse(nil, s)
	if err != nil {
		return time.Time{}, errInvalidDate
	}

	return d.Time, nil
}

// Filter builds the session filter from command-line arguments. The time
// range comes from --period unless --from (and optionally --to) narrows
// it explicitly.
func Filter(ctx *cli.Context) (*FilterConfig, error) {
	f := &FilterConfig{
		AppName: ctx.String("app"),
		Query:   strings.Join(ctx.Args().Slice(), " "),
		Limit:   ctx.Int("limit"),
	}

	period := timeutil.Period(strings.TrimSpace(ctx.String("period")))

	if period != "" && !slices.Contains(timeutil.PeriodCollection, period) {
		return nil, errInvalidPeriod
	}

	if period == "" {
		period = timeutil.PeriodToday
	}

	f.StartTime, f.EndTime = getTimeRange(period)

	if from := ctx.String("from"); from != "" {
		start, err := parseDate(from)
		if err != nil {
			return nil, err
		}

		f.StartTime = timeutil.RoundToStart(start)
		_, f.EndTime = timeutil.DayRange(time.Now())
	}

	if to := ctx.String("to"); to != "" {
		end, err := parseDate(to)
		if err != nil {
			return nil, err
		}

		_, f.EndTime = timeutil.DayRange(end)
	}

	if !f.StartTime.IsZero() && f.EndTime.Before(f.StartTime) {
		return nil, errInvalidDateRange
	}

	return f, nil
}
