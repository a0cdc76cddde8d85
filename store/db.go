package store

import (
	"context"
	"time"

	"github.com/ayoisaiah/gaze/internal/models"
)

// SearchOptions narrows a session search. Zero fields are ignored.
type SearchOptions struct {
	// Query is matched case-insensitively as a substring of the app name
	// or the window title.
	Query string
	// AppName is matched case-insensitively as a substring of the app name.
	AppName string
	// Start and End bound the session start time when non-zero.
	Start time.Time
	End   time.Time
	// Limit caps the result count. Zero means the default limit.
	Limit int
}

// DB is the session storage interface.
type DB interface {
	// InsertSession persists a new session and returns it with its
	// assigned id.
	InsertSession(ctx context.Context, sess *models.Session) (*models.Session, error)
	// EndSession closes an open session at the given instant. Ending an
	// already-ended session changes nothing.
	EndSession(ctx context.Context, id int64, at time.Time) error
	// Session fetches a session by id, or nil if it does not exist.
	Session(ctx context.Context, id int64) (*models.Session, error)
	// CurrentSession returns the open session with the most recent start
	// time, or nil if no session is open.
	CurrentSession(ctx context.Context) (*models.Session, error)
	// SessionsInRange returns sessions started within [start, end),
	// ordered by start time ascending.
	SessionsInRange(ctx context.Context, start, end time.Time) ([]models.Session, error)
	// SearchSessions returns sessions matching the options, ordered by
	// start time descending.
	SearchSessions(ctx context.Context, opts SearchOptions) ([]models.Session, error)
	// DeleteSession deletes one session and reports whether it existed.
	DeleteSession(ctx context.Context, id int64) (bool, error)
	// DeleteSessionsInRange deletes sessions started within [start, end).
	DeleteSessionsInRange(ctx context.Context, start, end time.Time) (int64, error)
	// DeleteSessionsByAppName deletes sessions whose app name contains
	// the given text (case-insensitive).
	DeleteSessionsByAppName(ctx context.Context, appName string) (int64, error)
	// DeleteAllSessions removes every session.
	DeleteAllSessions(ctx context.Context) (int64, error)
	// CountSessions returns the total number of stored sessions.
	CountSessions(ctx context.Context) (int64, error)
	// DeleteOrphanedSessions removes sessions left open by an unclean
	// shutdown. Their end time is unknowable, so they are dropped rather
	// than guessed at.
	DeleteOrphanedSessions(ctx context.Context) (int64, error)
	// CloseAllOpenSessions ends every open session at the given instant.
	CloseAllOpenSessions(ctx context.Context, at time.Time) (int64, error)
	// TotalSeconds sums session durations for sessions started within
	// [start, end). Open sessions contribute their elapsed time.
	TotalSeconds(ctx context.Context, start, end time.Time) (int64, error)
	// AppSummaries aggregates usage per app, longest first.
	AppSummaries(ctx context.Context, start, end time.Time) ([]models.AppSummary, error)
	// WindowSummaries aggregates usage per (app, window title), longest
	// first.
	WindowSummaries(ctx context.Context, start, end time.Time) ([]models.WindowSummary, error)
	// Close ends the database connection.
	Close() error
}
