package watch_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/gaze/internal/policy"
	"github.com/ayoisaiah/gaze/internal/watch"
)

const (
	testDebounce = 20 * time.Millisecond
	testRetry    = 30 * time.Millisecond

	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

func startWatcher(t *testing.T, path string, count *atomic.Int32) *watch.Watcher {
	t.Helper()

	w := watch.New(path, func() {
		count.Add(1)
	}, watch.WithIntervals(testDebounce, testRetry, 3))

	require.NoError(t, w.Start())

	t.Cleanup(w.Stop)

	return w
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestStartWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	var count atomic.Int32

	startWatcher(t, path, &count)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		ExcludedApps []policy.ExcludedApp `json:"excludedApps"`
	}

	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.ExcludedApps, 1)
	assert.Equal(t, "com.apple.loginwindow", doc.ExcludedApps[0].ID)
}

func TestStartKeepsExistingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, path, `{"excludedApps": []}`)

	var count atomic.Int32

	startWatcher(t, path, &count)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"excludedApps": []}`, string(data))
}

func TestChangeTriggersReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, path, `{}`)

	var count atomic.Int32

	startWatcher(t, path, &count)

	writeConfig(t, path, `{"excludedApps": []}`)

	assert.Eventually(t, func() bool {
		return count.Load() >= 1
	}, waitFor, tick)
}

func TestBurstOfWritesCollapses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, path, `{}`)

	var count atomic.Int32

	startWatcher(t, path, &count)

	for i := 0; i < 5; i++ {
		writeConfig(t, path, `{"excludedApps": []}`)
	}

	assert.Eventually(t, func() bool {
		return count.Load() >= 1
	}, waitFor, tick)

	// let any stray timers fire before checking the count settled
	time.Sleep(5 * testDebounce)

	assert.LessOrEqual(t, count.Load(), int32(2))
}

func TestDeleteThenRecreateReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, path, `{}`)

	var count atomic.Int32

	startWatcher(t, path, &count)

	require.NoError(t, os.Remove(path))

	// give the watcher time to observe the missing file
	time.Sleep(testDebounce)

	writeConfig(t, path, `{"excludedApps": []}`)

	assert.Eventually(t, func() bool {
		return count.Load() >= 1
	}, waitFor, tick)
}

func TestRestoreCancelsPendingRetry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, path, `{}`)

	var count atomic.Int32

	// retry polls far apart, so the recreate event always arrives while
	// one is still pending
	slowRetry := 500 * time.Millisecond

	w := watch.New(path, func() {
		count.Add(1)
	}, watch.WithIntervals(testDebounce, slowRetry, 3))

	require.NoError(t, w.Start())

	t.Cleanup(w.Stop)

	require.NoError(t, os.Remove(path))

	// give the watcher time to observe the missing file
	time.Sleep(5 * testDebounce)

	writeConfig(t, path, `{"excludedApps": []}`)

	assert.Eventually(t, func() bool {
		return count.Load() >= 1
	}, waitFor, tick)

	// the pending poll was cancelled by the recreate event, so no second
	// reload fires when its deadline passes
	time.Sleep(slowRetry + 5*testDebounce)

	assert.EqualValues(t, 1, count.Load())
}

func TestRetryExhaustionDisablesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, path, `{}`)

	var count atomic.Int32

	w := startWatcher(t, path, &count)

	require.NoError(t, os.Remove(path))

	// let every restore poll run out
	time.Sleep(10 * testRetry)

	// too late: the watch has shut itself down and keeps the last loaded
	// config, so restoring the file changes nothing
	writeConfig(t, path, `{"excludedApps": []}`)

	time.Sleep(5 * testDebounce)

	assert.Zero(t, count.Load())

	// a fresh start picks the restored file up again
	require.NoError(t, w.Start())

	writeConfig(t, path, `{"excludedWindows": []}`)

	assert.Eventually(t, func() bool {
		return count.Load() >= 1
	}, waitFor, tick)
}

func TestUnrelatedFilesAreIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeConfig(t, path, `{}`)

	var count atomic.Int32

	startWatcher(t, path, &count)

	writeConfig(t, filepath.Join(dir, "other.json"), `{}`)

	time.Sleep(5 * testDebounce)

	assert.Zero(t, count.Load())
}

func TestStopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	var count atomic.Int32

	w := startWatcher(t, path, &count)

	w.Stop()
	w.Stop()
}

func TestStartTwiceFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	var count atomic.Int32

	w := startWatcher(t, path, &count)

	assert.Error(t, w.Start())
}
