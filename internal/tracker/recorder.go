// Package tracker converts activity change events into persisted,
// non-overlapping sessions. A Recorder is the sole owner of the "current
// open session": every transition runs under one lock, so two events can
// never interleave their read-modify-write of that state.
package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/ayoisaiah/gaze/internal/models"
	"github.com/ayoisaiah/gaze/internal/policy"
	"github.com/ayoisaiah/gaze/store"
)

// Recorder tracks the active (app, window title) pair and records one
// open session at a time.
type Recorder struct {
	mu sync.Mutex

	db     store.DB
	policy *policy.Policy

	// current is the open persisted session, nil when idle.
	current *models.Session

	// displayed is what is in front of the user right now. It is kept
	// even when the policy suppresses recording, so that a later title
	// change on an excluded window is still detected.
	displayed *models.ActivityInfo

	// onSessionEnd, when set, receives every session the recorder closes.
	onSessionEnd func(models.Session)

	clock  func() time.Time
	logger *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithSessionEndHook registers a callback invoked (on its own goroutine)
// for every session the recorder closes.
func WithSessionEndHook(fn func(models.Session)) Option {
	return func(r *Recorder) {
		r.onSessionEnd = fn
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) {
		r.clock = clock
	}
}

// NewRecorder creates a recorder persisting to db and filtering with pol.
func NewRecorder(db store.DB, pol *policy.Policy, opts ...Option) *Recorder {
	r := &Recorder{
		db:     db,
		policy: pol,
		clock:  time.Now,
		logger: slog.Default().With(slog.String("component", "recorder")),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// OnActivityChanged handles a switch to a different app or window.
func (r *Recorder) OnActivityChanged(
	ctx context.Context,
	info models.ActivityInfo,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.logger.Enabled(ctx, slog.LevelDebug) {
		r.logger.Debug(spew.Sdump(info))
	}

	return r.handleActivity(ctx, info)
}

// OnTitleChanged handles a window title change within the frontmost app.
// If it arrives before any activity event has established an app, there
// is nothing to attribute the title to and it is dropped.
func (r *Recorder) OnTitleChanged(ctx context.Context, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.displayed == nil {
		r.logger.Debug("title change with no known app", slog.String("title", title))
		return nil
	}

	if r.displayed.Title() == title {
		return nil
	}

	info := models.ActivityInfo{
		AppID:       r.displayed.AppID,
		AppName:     r.displayed.AppName,
		WindowTitle: &title,
	}

	return r.handleActivity(ctx, info)
}

// OnSystemSuspend unconditionally ends any open session. No guess is made
// about what happens while the system is asleep.
func (r *Recorder) OnSystemSuspend(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.endCurrent(ctx, r.clock()); err != nil {
		return err
	}

	r.displayed = nil

	return nil
}

// OnSystemResume re-evaluates the frontmost activity as a fresh change,
// since it may have moved on while the system was asleep.
func (r *Recorder) OnSystemResume(
	ctx context.Context,
	info models.ActivityInfo,
) error {
	return r.OnActivityChanged(ctx, info)
}

// ReloadPolicy swaps in a new exclusion policy. If the tracked activity
// is now excluded, its session ends; an app-level exclusion also forgets
// the app, while a window-only exclusion keeps the app identity so a
// later title change can resume tracking.
func (r *Recorder) ReloadPolicy(ctx context.Context, pol *policy.Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.policy = pol

	if r.displayed == nil {
		return nil
	}

	appExcluded := pol.ShouldExcludeApp(r.displayed.AppID)
	windowExcluded := r.displayed.WindowTitle != nil &&
		pol.ShouldExcludeWindow(r.displayed.AppID, r.displayed.Title())

	if !appExcluded && !windowExcluded {
		return nil
	}

	// capture the identity being acted on before the write, and confirm
	// it has not been superseded before touching bookkeeping afterwards
	capturedAppID := r.displayed.AppID

	if err := r.endCurrent(ctx, r.clock()); err != nil {
		return err
	}

	if r.displayed == nil || r.displayed.AppID != capturedAppID {
		return nil
	}

	if appExcluded {
		r.displayed = nil
	}

	return nil
}

// Shutdown ends any open session at the given instant.
func (r *Recorder) Shutdown(ctx context.Context, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.endCurrent(ctx, at); err != nil {
		return err
	}

	r.displayed = nil

	return nil
}

// CurrentSession returns a copy of the open session, or nil when idle.
func (r *Recorder) CurrentSession() *models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return nil
	}

	sess := *r.current

	return &sess
}

// handleActivity is the shared transition for activity and title changes.
// Callers must hold the lock.
func (r *Recorder) handleActivity(
	ctx context.Context,
	info models.ActivityInfo,
) error {
	if r.displayed != nil &&
		r.displayed.AppID == info.AppID &&
		r.displayed.Title() == info.Title() {
		return nil
	}

	if r.policy.ShouldExcludeApp(info.AppID) {
		if err := r.endCurrent(ctx, r.clock()); err != nil {
			return err
		}

		r.displayed = nil

		return nil
	}

	if err := r.endCurrent(ctx, r.clock()); err != nil {
		return err
	}

	windowExcluded := info.WindowTitle != nil &&
		r.policy.ShouldExcludeWindow(info.AppID, info.Title())

	if windowExcluded {
		// no row for this title, but remember it so the next distinct,
		// non-excluded title is detected
		r.displayed = &info

		return nil
	}

	sess, err := r.db.InsertSession(ctx, &models.Session{
		AppID:       info.AppID,
		AppName:     info.AppName,
		WindowTitle: info.WindowTitle,
		StartedAt:   r.clock(),
	})
	if err != nil {
		// the previous session stays ended; report idle rather than
		// claim a row that was never written
		r.current = nil

		r.logger.Error("starting session failed",
			slog.String("app", info.AppName),
			slog.Any("error", err),
		)

		return err
	}

	r.current = sess
	r.displayed = &info

	r.logger.Debug("session started",
		slog.String("app", info.AppName),
		slog.String("title", info.Title()),
	)

	return nil
}

// endCurrent persists an end time for the open session, if any. Callers
// must hold the lock. On storage failure the in-memory state is left
// untouched.
func (r *Recorder) endCurrent(ctx context.Context, at time.Time) error {
	if r.current == nil {
		return nil
	}

	if err := r.db.EndSession(ctx, r.current.ID, at); err != nil {
		r.logger.Error("ending session failed",
			slog.Int64("id", r.current.ID),
			slog.Any("error", err),
		)

		return err
	}

	ended := *r.current
	ended.EndedAt = &at
	r.current = nil

	r.logger.Debug("session ended", slog.String("app", ended.AppName))

	if r.onSessionEnd != nil {
		go r.onSessionEnd(ended)
	}

	return nil
}
