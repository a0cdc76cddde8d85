// Package hook runs a user-configured command whenever a session closes.
package hook

import (
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/ayoisaiah/gaze/internal/models"
)

// Runner executes the configured session command with details of the
// closed session in its environment.
type Runner struct {
	cmd    string
	logger *slog.Logger
}

// New returns a runner for cmd, or nil when no command is configured.
func New(cmd string) *Runner {
	if cmd == "" {
		return nil
	}

	return &Runner{
		cmd:    cmd,
		logger: slog.Default().With(slog.String("component", "hook")),
	}
}

// Run executes the command for one closed session. Failures are logged,
// never propagated: a broken hook must not affect tracking.
func (r *Runner) Run(sess models.Session) {
	if r == nil {
		return
	}

	args, err := shellquote.Split(r.cmd)
	if err != nil {
		r.logger.Error("invalid session command", slog.Any("error", err))
		return
	}

	if len(args) == 0 {
		return
	}

	seconds := int64(sess.Duration(time.Now()) / time.Second)

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Env = append(os.Environ(),
		"GAZE_APP_ID="+sess.AppID,
		"GAZE_APP_NAME="+sess.AppName,
		"GAZE_WINDOW_TITLE="+sess.Title(),
		"GAZE_DURATION_SECONDS="+strconv.FormatInt(seconds, 10),
	)

	if err := cmd.Run(); err != nil {
		r.logger.Error("session command failed", slog.Any("error", err))
	}
}
