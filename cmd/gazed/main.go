// Command gazed records app and window activity delivered on stdin by a
// platform-specific helper, persisting it as sessions for the gaze CLI
// to query.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ayoisaiah/gaze/internal/config"
	"github.com/ayoisaiah/gaze/internal/hook"
	"github.com/ayoisaiah/gaze/internal/policy"
	"github.com/ayoisaiah/gaze/internal/source"
	"github.com/ayoisaiah/gaze/internal/tracker"
	"github.com/ayoisaiah/gaze/internal/watch"
	"github.com/ayoisaiah/gaze/store"
)

// shutdownTimeout bounds how long a termination waits on in-flight
// storage operations before the process force-exits.
const shutdownTimeout = 5 * time.Second

func main() {
	daemon := &cli.App{
		Name:    "gazed",
		Usage:   "Record app and window activity as sessions",
		Version: config.Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log individual app and title changes",
			},
		},
		Action: run,
	}

	if err := daemon.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	config.InitializePaths()

	settings, err := config.LoadSettings(config.SettingsFilePath())
	if err != nil {
		return err
	}

	setupLogging(settings, ctx.Bool("verbose"))

	slog.Info("starting gazed", slog.String("version", config.Version))

	writePidFile()
	defer removePidFile()

	db, err := store.NewClient(config.DBFilePath())
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	slog.Info("database initialized", slog.String("path", config.DBFilePath()))

	// sessions left open by an unclean shutdown have no trustworthy end
	// time, so they are dropped instead of closed
	orphans, err := db.DeleteOrphanedSessions(ctx.Context)
	if err != nil {
		slog.Warn("deleting orphaned sessions failed", slog.Any("error", err))
	} else if orphans > 0 {
		slog.Info("deleted orphaned sessions", slog.Int64("count", orphans))
	}

	pol := policy.Load(config.ExclusionsFilePath())

	slog.Info("exclusion config loaded",
		slog.Int("apps", len(pol.ExcludedApps)),
		slog.Int("windows", len(pol.ExcludedWindows)),
	)

	var opts []tracker.Option

	if runner := hook.New(settings.SessionCmd); runner != nil {
		opts = append(opts, tracker.WithSessionEndHook(runner.Run))
	}

	rec := tracker.NewRecorder(db, pol, opts...)

	watcher := watch.New(config.ExclusionsFilePath(), func() {
		newPol := policy.Load(config.ExclusionsFilePath())

		slog.Info("exclusion config reloaded",
			slog.Int("apps", len(newPol.ExcludedApps)),
			slog.Int("windows", len(newPol.ExcludedWindows)),
		)

		if err := rec.ReloadPolicy(context.Background(), newPol); err != nil {
			slog.Error("applying reloaded config failed", slog.Any("error", err))
		}
	}, watch.WithIntervals(settings.Debounce, settings.RetryInterval, settings.MaxRetries))

	if err := watcher.Start(); err != nil {
		slog.Warn("config watcher failed to start", slog.Any("error", err))
		slog.Warn("config changes will not be detected automatically")
	} else {
		slog.Info("config watcher started",
			slog.String("path", config.ExclusionsFilePath()),
		)
	}

	runCtx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	go func() {
		if err := source.Stream(runCtx, os.Stdin, rec); err != nil &&
			runCtx.Err() == nil {
			slog.Error("event stream failed", slog.Any("error", err))
		}
	}()

	slog.Info("daemon is running")

	<-runCtx.Done()

	slog.Info("shutting down")

	// a stuck storage operation must not keep the process alive forever
	time.AfterFunc(shutdownTimeout, func() {
		slog.Error("shutdown timeout reached, forcing exit")
		os.Exit(1)
	})

	watcher.Stop()

	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	now := time.Now()

	if err := rec.Shutdown(shutCtx, now); err != nil {
		slog.Warn("ending current session failed", slog.Any("error", err))
	}

	// belt and braces: close anything still open in storage, without
	// relying on in-memory state being reachable
	closed, err := db.CloseAllOpenSessions(shutCtx, now)
	if err != nil {
		slog.Warn("closing open sessions failed", slog.Any("error", err))
	} else if closed > 0 {
		slog.Info("closed open sessions", slog.Int64("count", closed))
	}

	slog.Info("goodbye")

	return nil
}

func setupLogging(settings *config.Settings, verbose bool) {
	level := slog.LevelInfo

	switch settings.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if verbose {
		level = slog.LevelDebug
	}

	var out io.Writer = &lumberjack.Logger{
		Filename:   config.LogFilePath(),
		MaxSize:    settings.LogMaxSizeMB,
		MaxBackups: settings.LogMaxBackups,
	}

	if verbose {
		out = io.MultiWriter(out, os.Stderr)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	})))
}

func writePidFile() {
	content := fmt.Sprintf(
		"%d\n%s",
		os.Getpid(),
		time.Now().Format(time.RFC3339),
	)

	err := os.WriteFile(config.PidFilePath(), []byte(content), 0o644)
	if err != nil {
		slog.Warn("writing pid file failed", slog.Any("error", err))
		return
	}

	slog.Info("pid file written", slog.String("path", config.PidFilePath()))
}

func removePidFile() {
	_ = os.Remove(config.PidFilePath())
}
