// Package report renders sessions and usage summaries for the terminal.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/maruel/natural"
	"github.com/pterm/pterm"

	"github.com/ayoisaiah/gaze/internal/models"
	"github.com/ayoisaiah/gaze/internal/ui"
)

const noSessionsMsg = "No sessions found for the specified time range"

const noTitle = "(no title)"

// FormatDuration renders a number of seconds compactly, e.g. "2h 5m 30s".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}

	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// Sessions prints a session table, most recent first as given.
func Sessions(sessions []models.Session, w io.Writer) {
	if len(sessions) == 0 {
		pterm.Info.Println(noSessionsMsg)
		return
	}

	now := time.Now()

	data := [][]string{{"#", "APP", "TITLE", "STARTED", "ENDED", "DURATION"}}

	for _, s := range sessions {
		title := s.Title()
		if title == "" {
			title = noTitle
		}

		ended := ui.Cyan("ongoing")
		if s.EndedAt != nil {
			ended = s.EndedAt.Local().Format("2006-01-02 15:04:05")
		}

		data = append(data, []string{
			strconv.FormatInt(s.ID, 10),
			s.AppName,
			title,
			s.StartedAt.Local().Format("2006-01-02 15:04:05"),
			ended,
			FormatDuration(int64(s.Duration(now) / time.Second)),
		})
	}

	ui.PrintTable(data, w)
}

// AppSummaries prints per-app totals, longest first. Rows with equal
// totals are ordered naturally by app name.
func AppSummaries(summaries []models.AppSummary, w io.Writer) {
	if len(summaries) == 0 {
		pterm.Info.Println(noSessionsMsg)
		return
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].TotalSeconds != summaries[j].TotalSeconds {
			return summaries[i].TotalSeconds > summaries[j].TotalSeconds
		}

		return natural.Less(summaries[i].AppName, summaries[j].AppName)
	})

	data := [][]string{{"APP", "TIME", "SESSIONS"}}

	for _, s := range summaries {
		data = append(data, []string{
			s.AppName,
			FormatDuration(s.TotalSeconds),
			strconv.Itoa(s.SessionCount),
		})
	}

	ui.PrintTable(data, w)
}

// WindowSummaries prints per-window totals, longest first.
func WindowSummaries(summaries []models.WindowSummary, w io.Writer) {
	if len(summaries) == 0 {
		pterm.Info.Println(noSessionsMsg)
		return
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].TotalSeconds != summaries[j].TotalSeconds {
			return summaries[i].TotalSeconds > summaries[j].TotalSeconds
		}

		return natural.Less(label(summaries[i]), label(summaries[j]))
	})

	data := [][]string{{"APP", "TITLE", "TIME", "SESSIONS"}}

	for _, s := range summaries {
		title := s.WindowTitle
		if title == "" {
			title = noTitle
		}

		data = append(data, []string{
			s.AppName,
			title,
			FormatDuration(s.TotalSeconds),
			strconv.Itoa(s.SessionCount),
		})
	}

	ui.PrintTable(data, w)
}

func label(s models.WindowSummary) string {
	return s.AppName + ": " + s.WindowTitle
}

// Current prints the open session and the day's total so far.
func Current(sess *models.Session, todaySeconds int64) {
	if sess == nil {
		pterm.Info.Println("No session is currently being tracked")
	} else {
		title := sess.Title()
		if title == "" {
			title = noTitle
		}

		pterm.Info.Printfln(
			"Tracking %s: %s (since %s)",
			ui.Green(sess.AppName),
			title,
			sess.StartedAt.Local().Format("15:04:05"),
		)
	}

	pterm.Info.Printfln("Total today: %s", ui.Highlight(FormatDuration(todaySeconds)))
}

// SessionsDeleted reports the outcome of a delete command.
func SessionsDeleted(count int64) {
	if count == 0 {
		pterm.Info.Println("no sessions were deleted")
		return
	}

	pterm.Info.Printfln("deleted %d session(s)", count)
}

func Error(err error) {
	pterm.Error.Println(err)
}
