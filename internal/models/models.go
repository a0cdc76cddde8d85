// Package models defines the records gaze persists and reports on.
package models

import "time"

// Session is one contiguous span of attention on an (app, window title)
// pair. ID is zero until the session has been persisted. A nil EndedAt
// means the session is still open.
type Session struct {
	ID          int64      `json:"id"`
	AppID       string     `json:"app_id"`
	AppName     string     `json:"app_name"`
	WindowTitle *string    `json:"window_title,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
}

// Open reports whether the session has not been ended yet.
func (s *Session) Open() bool {
	return s.EndedAt == nil
}

// Duration returns the session length, using now for open sessions.
// Never negative.
func (s *Session) Duration(now time.Time) time.Duration {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}

	d := end.Sub(s.StartedAt)
	if d < 0 {
		return 0
	}

	return d
}

// Title returns the window title or an empty string.
func (s *Session) Title() string {
	if s.WindowTitle == nil {
		return ""
	}

	return *s.WindowTitle
}

// ActivityInfo describes what is currently in front of the user. It is
// never persisted; it only drives state transitions.
type ActivityInfo struct {
	AppID       string  `json:"app_id"`
	AppName     string  `json:"app_name"`
	WindowTitle *string `json:"window_title,omitempty"`
}

// Title returns the window title or an empty string.
func (a *ActivityInfo) Title() string {
	if a.WindowTitle == nil {
		return ""
	}

	return *a.WindowTitle
}

// AppSummary aggregates usage per application over a queried range.
type AppSummary struct {
	AppID        string `json:"app_id"`
	AppName      string `json:"app_name"`
	TotalSeconds int64  `json:"total_seconds"`
	SessionCount int    `json:"session_count"`
}

// WindowSummary aggregates usage per (app, window title) over a queried
// range. WindowTitle is empty for sessions recorded without a title.
type WindowSummary struct {
	AppID        string `json:"app_id"`
	AppName      string `json:"app_name"`
	WindowTitle  string `json:"window_title"`
	TotalSeconds int64  `json:"total_seconds"`
	SessionCount int    `json:"session_count"`
}
