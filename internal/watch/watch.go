// Package watch reloads the exclusion config when the file backing it
// changes. Bursts of change notifications are debounced, and a file that
// briefly disappears (editors rewrite via delete-then-recreate) is polled
// for until it returns.
package watch

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ayoisaiah/gaze/internal/policy"
)

const (
	defaultDebounceInterval = 100 * time.Millisecond
	defaultRetryInterval    = 500 * time.Millisecond
	defaultMaxRetries       = 3
)

var errAlreadyWatching = errors.New("config watcher is already running")

// Watcher watches one config file and invokes onChange after each
// effective change.
type Watcher struct {
	path     string
	onChange func()

	debounceInterval time.Duration
	retryInterval    time.Duration
	maxRetries       int

	mu          sync.Mutex
	fsw         *fsnotify.Watcher
	debounce    *time.Timer
	retry       *time.Timer
	retriesLeft int
	done        chan struct{}

	logger *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithIntervals overrides the debounce and restore-poll timing, mainly
// for tests.
func WithIntervals(debounce, retry time.Duration, maxRetries int) Option {
	return func(w *Watcher) {
		w.debounceInterval = debounce
		w.retryInterval = retry
		w.maxRetries = maxRetries
	}
}

// New creates a watcher for path. onChange runs on a timer goroutine
// after each debounced change, so it must be safe to call concurrently
// with the rest of the program.
func New(path string, onChange func(), opts ...Option) *Watcher {
	w := &Watcher{
		path:             filepath.Clean(path),
		onChange:         onChange,
		debounceInterval: defaultDebounceInterval,
		retryInterval:    defaultRetryInterval,
		maxRetries:       defaultMaxRetries,
		logger:           slog.Default().With(slog.String("component", "watch")),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start begins watching. If the config file does not exist yet, a default
// policy document is written first so there is something to watch and to
// edit. The parent directory is watched rather than the file itself so
// the watch survives delete-then-recreate rewrites.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fsw != nil {
		return errAlreadyWatching
	}

	dir := filepath.Dir(w.path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(w.path); errors.Is(err, os.ErrNotExist) {
		if err := writeDefaultConfig(w.path); err != nil {
			return err
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}

	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	w.fsw = fsw
	w.done = make(chan struct{})

	go w.loop(fsw, w.done)

	return nil
}

// Stop cancels any pending debounce or retry timer and releases the
// underlying watch. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopLocked()
}

func (w *Watcher) stopLocked() {
	if w.fsw == nil {
		return
	}

	if w.debounce != nil {
		w.debounce.Stop()
		w.debounce = nil
	}

	if w.retry != nil {
		w.retry.Stop()
		w.retry = nil
	}

	close(w.done)
	_ = w.fsw.Close()
	w.fsw = nil
}

func (w *Watcher) loop(fsw *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}

			if filepath.Clean(ev.Name) != w.path {
				continue
			}

			w.handleChange()
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}

			w.logger.Error("watch error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) handleChange() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fsw == nil {
		return
	}

	if w.debounce != nil {
		w.debounce.Stop()
		w.debounce = nil
	}

	// a vanished file usually means a non-atomic rewrite is in progress;
	// wait for the new copy instead of reloading nothing
	if _, err := os.Stat(w.path); errors.Is(err, os.ErrNotExist) {
		w.logger.Info("config file missing, waiting for it to be restored")
		w.retriesLeft = w.maxRetries
		w.scheduleRetryLocked()

		return
	}

	// the file is present again; a still-pending restore poll must not
	// fire a second reload on top of the debounced one
	if w.retry != nil {
		w.retry.Stop()
		w.retry = nil
	}

	w.debounce = time.AfterFunc(w.debounceInterval, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()

	if w.fsw == nil {
		w.mu.Unlock()
		return
	}

	w.debounce = nil
	w.mu.Unlock()

	// onChange runs outside the lock so a slow reload cannot block Stop
	w.onChange()
}

func (w *Watcher) scheduleRetryLocked() {
	if w.retry != nil {
		w.retry.Stop()
	}

	w.retry = time.AfterFunc(w.retryInterval, w.pollRestore)
}

func (w *Watcher) pollRestore() {
	w.mu.Lock()

	if w.fsw == nil {
		w.mu.Unlock()
		return
	}

	w.retry = nil

	if _, err := os.Stat(w.path); err == nil {
		w.logger.Info("config file restored, reloading")
		w.mu.Unlock()

		w.onChange()

		return
	}

	w.retriesLeft--
	if w.retriesLeft > 0 {
		w.scheduleRetryLocked()
		w.mu.Unlock()

		return
	}

	// keep the last-known-good policy; nothing left to watch until the
	// watcher is restarted
	w.logger.Warn("config file not restored, keeping last loaded config")
	w.stopLocked()
	w.mu.Unlock()
}

func writeDefaultConfig(path string) error {
	data, err := json.MarshalIndent(policy.Default(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	return nil
}
