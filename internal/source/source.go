// Package source feeds externally detected activity events into the
// recorder. Detection is platform glue outside this program: a helper
// observes the foreground app and writes one JSON event per line, which
// Stream decodes and dispatches in arrival order.
package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/ayoisaiah/gaze/internal/models"
	"github.com/ayoisaiah/gaze/internal/tracker"
)

// Event is one inbound notification from the activity helper.
type Event struct {
	// Type is one of "activity", "title", "suspend", or "resume".
	Type string `json:"type"`
	// Activity accompanies "activity" and "resume" events.
	Activity *models.ActivityInfo `json:"activity,omitempty"`
	// Title accompanies "title" events.
	Title string `json:"title,omitempty"`
}

// Stream dispatches events from r until it is exhausted or ctx is
// cancelled. Malformed lines are logged and skipped; a recording failure
// on one event does not stop the stream.
func Stream(ctx context.Context, r io.Reader, rec *tracker.Recorder) error {
	logger := slog.Default().With(slog.String("component", "source"))

	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev Event

		if err := json.Unmarshal(line, &ev); err != nil {
			logger.Warn("skipping malformed event", slog.Any("error", err))
			continue
		}

		if err := dispatch(ctx, rec, ev); err != nil {
			logger.Error("event not recorded",
				slog.String("type", ev.Type),
				slog.Any("error", err),
			)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading events: %w", err)
	}

	return nil
}

func dispatch(ctx context.Context, rec *tracker.Recorder, ev Event) error {
	switch ev.Type {
	case "activity":
		if ev.Activity == nil {
			return fmt.Errorf("activity event without activity payload")
		}

		return rec.OnActivityChanged(ctx, *ev.Activity)
	case "title":
		return rec.OnTitleChanged(ctx, ev.Title)
	case "suspend":
		return rec.OnSystemSuspend(ctx)
	case "resume":
		if ev.Activity == nil {
			return fmt.Errorf("resume event without activity payload")
		}

		return rec.OnSystemResume(ctx, *ev.Activity)
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
}
