// Package policy decides which apps and windows gaze never records.
// A Policy is an immutable snapshot: reloads build a new one and swap it
// in whole, so readers never observe partial updates.
package policy

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/ayoisaiah/gaze/internal/pattern"
)

// ExcludedApp excludes every session of one application.
type ExcludedApp struct {
	ID      string `json:"id"`
	Comment string `json:"comment,omitempty"`
}

// ExcludedWindow excludes windows whose title matches a glob pattern.
// AppMatch is an app identifier, or "*" to apply to every app.
type ExcludedWindow struct {
	AppMatch      string `json:"appMatch"`
	TitlePattern  string `json:"titlePattern"`
	CaseSensitive bool   `json:"caseSensitive"`
	Comment       string `json:"comment,omitempty"`
}

// UnmarshalJSON defaults caseSensitive to true when the field is absent.
func (w *ExcludedWindow) UnmarshalJSON(data []byte) error {
	type alias ExcludedWindow

	aux := alias{CaseSensitive: true}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*w = ExcludedWindow(aux)

	return nil
}

// Policy holds the active exclusion rules.
type Policy struct {
	ExcludedApps    []ExcludedApp    `json:"excludedApps"`
	ExcludedWindows []ExcludedWindow `json:"excludedWindows"`

	appIDs map[string]struct{}
}

// New builds a policy from the given rules.
func New(apps []ExcludedApp, windows []ExcludedWindow) *Policy {
	ids := make(map[string]struct{}, len(apps))
	for _, a := range apps {
		ids[a.ID] = struct{}{}
	}

	return &Policy{
		ExcludedApps:    apps,
		ExcludedWindows: windows,
		appIDs:          ids,
	}
}

// Default excludes only the system login window.
func Default() *Policy {
	return New(
		[]ExcludedApp{
			{ID: "com.apple.loginwindow", Comment: "System login"},
		},
		nil,
	)
}

// Load reads a policy document from path. A missing file yields the
// default policy; a malformed one is logged and also falls back to the
// default, so a bad edit can never stop tracking.
func Load(path string) *Policy {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("reading exclusion config failed",
				slog.String("path", path),
				slog.Any("error", err),
			)
		}

		return Default()
	}

	return Parse(data)
}

// Parse decodes a policy document, falling back to the default policy on
// malformed input. Absent fields default to empty rule lists.
func Parse(data []byte) *Policy {
	var doc struct {
		ExcludedApps    []ExcludedApp    `json:"excludedApps"`
		ExcludedWindows []ExcludedWindow `json:"excludedWindows"`
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Error("parsing exclusion config failed", slog.Any("error", err))

		return Default()
	}

	return New(doc.ExcludedApps, doc.ExcludedWindows)
}

// ShouldExcludeApp reports whether the app is excluded outright.
func (p *Policy) ShouldExcludeApp(appID string) bool {
	_, ok := p.appIDs[appID]
	return ok
}

// ShouldExcludeWindow reports whether a window title is excluded for the
// given app. Any matching rule wins, so evaluation stops at the first hit.
func (p *Policy) ShouldExcludeWindow(appID, title string) bool {
	for _, w := range p.ExcludedWindows {
		if w.AppMatch != "*" && w.AppMatch != appID {
			continue
		}

		if pattern.Compile(w.TitlePattern, w.CaseSensitive).Matches(title) {
			return true
		}
	}

	return false
}
