// Package store persists gaze sessions in an embedded SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayoisaiah/gaze/internal/models"
	_ "modernc.org/sqlite"
)

const defaultSearchLimit = 100

// Client is a SQLite-backed session store. Writes are serialized by the
// database; reads may run concurrently with the writer under WAL.
type Client struct {
	db *sql.DB

	// now is captured once per aggregate query so that every open
	// session in the result contributes a consistent elapsed time.
	now func() time.Time
}

// NewClient opens (creating if necessary) the database at dbPath and
// applies any pending migrations.
func NewClient(dbPath string) (*Client, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &Client{db: db, now: time.Now}, nil
}

// Close ends the database connection.
func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InsertSession(
	ctx context.Context,
	sess *models.Session,
) (*models.Session, error) {
	res, err := c.db.ExecContext(ctx, `
INSERT INTO sessions (app_id, app_name, window_title, started_at, ended_at)
VALUES (?, ?, ?, ?, ?)`,
		sess.AppID,
		sess.AppName,
		nullString(sess.WindowTitle),
		toMillis(sess.StartedAt),
		nullMillis(sess.EndedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading inserted id: %w", err)
	}

	inserted := *sess
	inserted.ID = id

	return &inserted, nil
}

func (c *Client) EndSession(ctx context.Context, id int64, at time.Time) error {
	_, err := c.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		toMillis(at),
		id,
	)
	if err != nil {
		return fmt.Errorf("ending session %d: %w", id, err)
	}

	return nil
}

const sessionColumns = `id, app_id, app_name, window_title, started_at, ended_at`

func (c *Client) Session(ctx context.Context, id int64) (*models.Session, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id,
	)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	return sess, err
}

func (c *Client) CurrentSession(ctx context.Context) (*models.Session, error) {
	row := c.db.QueryRowContext(ctx, `
SELECT `+sessionColumns+` FROM sessions
WHERE ended_at IS NULL
ORDER BY started_at DESC
LIMIT 1`)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	return sess, err
}

func (c *Client) SessionsInRange(
	ctx context.Context,
	start, end time.Time,
) ([]models.Session, error) {
	rows, err := c.db.QueryContext(ctx, `
SELECT `+sessionColumns+` FROM sessions
WHERE started_at >= ? AND started_at < ?
ORDER BY started_at ASC`,
		toMillis(start),
		toMillis(end),
	)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}

	return collectSessions(rows)
}

func (c *Client) SearchSessions(
	ctx context.Context,
	opts SearchOptions,
) ([]models.Session, error) {
	var (
		conds []string
		args  []any
	)

	if opts.Query != "" {
		p := likePattern(opts.Query)
		conds = append(conds,
			`(app_name LIKE ? ESCAPE '\' OR window_title LIKE ? ESCAPE '\')`)
		args = append(args, p, p)
	}

	if opts.AppName != "" {
		conds = append(conds, `app_name LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(opts.AppName))
	}

	if !opts.Start.IsZero() {
		conds = append(conds, `started_at >= ?`)
		args = append(args, toMillis(opts.Start))
	}

	if !opts.End.IsZero() {
		conds = append(conds, `started_at < ?`)
		args = append(args, toMillis(opts.End))
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}

	query += ` ORDER BY started_at DESC LIMIT ?`

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching sessions: %w", err)
	}

	return collectSessions(rows)
}

func (c *Client) DeleteSession(ctx context.Context, id int64) (bool, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting session %d: %w", id, err)
	}

	n, err := res.RowsAffected()

	return n > 0, err
}

func (c *Client) DeleteSessionsInRange(
	ctx context.Context,
	start, end time.Time,
) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE started_at >= ? AND started_at < ?`,
		toMillis(start),
		toMillis(end),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting sessions: %w", err)
	}

	return res.RowsAffected()
}

func (c *Client) DeleteSessionsByAppName(
	ctx context.Context,
	appName string,
) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE app_name LIKE ? ESCAPE '\'`,
		likePattern(appName),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting sessions for %q: %w", appName, err)
	}

	return res.RowsAffected()
}

func (c *Client) DeleteAllSessions(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("deleting all sessions: %w", err)
	}

	return res.RowsAffected()
}

func (c *Client) CountSessions(ctx context.Context) (int64, error) {
	var n int64

	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}

	return n, nil
}

func (c *Client) DeleteOrphanedSessions(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE ended_at IS NULL`,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting orphaned sessions: %w", err)
	}

	return res.RowsAffected()
}

func (c *Client) CloseAllOpenSessions(
	ctx context.Context,
	at time.Time,
) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE ended_at IS NULL`,
		toMillis(at),
	)
	if err != nil {
		return 0, fmt.Errorf("closing open sessions: %w", err)
	}

	return res.RowsAffected()
}

// durationExpr computes a session's length in milliseconds, with open
// sessions measured against the query-wide now value bound to the first
// placeholder.
const durationExpr = `(COALESCE(ended_at, ?) - started_at)`

func (c *Client) TotalSeconds(
	ctx context.Context,
	start, end time.Time,
) (int64, error) {
	var total int64

	err := c.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM`+durationExpr+`, 0) / 1000 FROM sessions
WHERE started_at >= ? AND started_at < ?`,
		toMillis(c.now()),
		toMillis(start),
		toMillis(end),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing durations: %w", err)
	}

	return total, nil
}

func (c *Client) AppSummaries(
	ctx context.Context,
	start, end time.Time,
) ([]models.AppSummary, error) {
	rows, err := c.db.QueryContext(ctx, `
SELECT app_id, app_name, SUM`+durationExpr+` / 1000 AS total_seconds, COUNT(*)
FROM sessions
WHERE started_at >= ? AND started_at < ?
GROUP BY app_id
ORDER BY total_seconds DESC, app_id ASC`,
		toMillis(c.now()),
		toMillis(start),
		toMillis(end),
	)
	if err != nil {
		return nil, fmt.Errorf("summarizing by app: %w", err)
	}

	defer rows.Close()

	var summaries []models.AppSummary

	for rows.Next() {
		var s models.AppSummary

		err := rows.Scan(&s.AppID, &s.AppName, &s.TotalSeconds, &s.SessionCount)
		if err != nil {
			return nil, fmt.Errorf("scanning app summary: %w", err)
		}

		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

func (c *Client) WindowSummaries(
	ctx context.Context,
	start, end time.Time,
) ([]models.WindowSummary, error) {
	rows, err := c.db.QueryContext(ctx, `
SELECT app_id, app_name, COALESCE(window_title, '') AS title,
       SUM`+durationExpr+` / 1000 AS total_seconds, COUNT(*)
FROM sessions
WHERE started_at >= ? AND started_at < ?
GROUP BY app_id, title
ORDER BY total_seconds DESC, app_id ASC, title ASC`,
		toMillis(c.now()),
		toMillis(start),
		toMillis(end),
	)
	if err != nil {
		return nil, fmt.Errorf("summarizing by window: %w", err)
	}

	defer rows.Close()

	var summaries []models.WindowSummary

	for rows.Next() {
		var s models.WindowSummary

		err := rows.Scan(
			&s.AppID,
			&s.AppName,
			&s.WindowTitle,
			&s.TotalSeconds,
			&s.SessionCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning window summary: %w", err)
		}

		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// likePattern wraps text in substring wildcards, escaping any LIKE
// metacharacters it contains so user input always matches literally.
func likePattern(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(text) + "%"
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}

	return sql.NullString{String: *s, Valid: true}
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		sess    models.Session
		title   sql.NullString
		started int64
		ended   sql.NullInt64
	)

	err := row.Scan(
		&sess.ID,
		&sess.AppID,
		&sess.AppName,
		&title,
		&started,
		&ended,
	)
	if err != nil {
		return nil, err
	}

	if title.Valid {
		sess.WindowTitle = &title.String
	}

	sess.StartedAt = fromMillis(started)

	if ended.Valid {
		t := fromMillis(ended.Int64)
		sess.EndedAt = &t
	}

	return &sess, nil
}

func collectSessions(rows *sql.Rows) ([]models.Session, error) {
	defer rows.Close()

	var sessions []models.Session

	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}

		sessions = append(sessions, *sess)
	}

	return sessions, rows.Err()
}
